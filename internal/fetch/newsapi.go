package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pulsefeed/pulsefeed/internal/config"
	"github.com/pulsefeed/pulsefeed/internal/models"
	"go.uber.org/zap"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// NewsAPI fetches top headlines per category from newsapi.org.
type NewsAPI struct {
	BaseURL    string
	HTTPClient *http.Client

	apiKey     string
	country    string
	categories []string
	limit      int
	logger     *zap.Logger
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// NewNewsAPI creates a NewsAPI fetcher.
func NewNewsAPI(cfg config.NewsAPIConfig, logger *zap.Logger) *NewsAPI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsAPI{
		BaseURL:    newsAPIBaseURL,
		HTTPClient: newHTTPClient(),
		apiKey:     cfg.APIKey,
		country:    cfg.Country,
		categories: cfg.Categories,
		limit:      cfg.Limit,
		logger:     logger,
	}
}

// Name implements Fetcher.
func (n *NewsAPI) Name() string { return "newsapi" }

// Fetch returns top headlines for every configured category. A failing
// category is logged and skipped.
func (n *NewsAPI) Fetch(ctx context.Context) ([]models.Article, error) {
	if n.apiKey == "" {
		return nil, fmt.Errorf("newsapi key not configured")
	}
	var articles []models.Article
	for _, category := range n.categories {
		batch, err := n.fetchCategory(ctx, category)
		if err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			n.logger.Warn("skipping category",
				zap.String("category", category), zap.Error(err))
			continue
		}
		articles = append(articles, batch...)
	}
	return articles, nil
}

func (n *NewsAPI) fetchCategory(ctx context.Context, category string) ([]models.Article, error) {
	params := url.Values{}
	params.Set("country", n.country)
	params.Set("category", category)
	params.Set("pageSize", fmt.Sprintf("%d", n.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		n.BaseURL+"/top-headlines?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", n.apiKey)

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s", payload.Message)
	}

	articles := make([]models.Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		text := a.Description
		if text == "" {
			text = a.Content
		}
		articles = append(articles, models.Article{
			ID:          "newsapi-" + a.URL,
			URL:         a.URL,
			Title:       a.Title,
			Text:        text,
			Source:      n.Name(),
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}
