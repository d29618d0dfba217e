package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/config"
	"github.com/pulsefeed/pulsefeed/internal/models"
	"go.uber.org/zap"
)

const hackerNewsBaseURL = "https://hacker-news.firebaseio.com/v0"

// HackerNews fetches top stories from the Hacker News Firebase API.
type HackerNews struct {
	BaseURL    string
	HTTPClient *http.Client

	limit    int
	minScore int
	logger   *zap.Logger
}

type hnItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// NewHackerNews creates a Hacker News fetcher.
func NewHackerNews(cfg config.HackerNewsConfig, logger *zap.Logger) *HackerNews {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HackerNews{
		BaseURL:    hackerNewsBaseURL,
		HTTPClient: newHTTPClient(),
		limit:      cfg.Limit,
		minScore:   cfg.MinScore,
		logger:     logger,
	}
}

// Name implements Fetcher.
func (h *HackerNews) Name() string { return "hackernews" }

// Fetch returns up to the configured number of top stories at or above the
// minimum score. Individual story failures are logged and skipped.
func (h *HackerNews) Fetch(ctx context.Context) ([]models.Article, error) {
	var ids []int
	if err := h.getJSON(ctx, h.BaseURL+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("failed to fetch top stories: %w", err)
	}

	articles := make([]models.Article, 0, h.limit)
	for _, id := range ids {
		if len(articles) >= h.limit {
			break
		}
		var item hnItem
		if err := h.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", h.BaseURL, id), &item); err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			h.logger.Warn("skipping story", zap.Int("id", id), zap.Error(err))
			continue
		}
		if item.Type != "story" || item.Deleted || item.Dead || item.Title == "" {
			continue
		}
		if item.Score < h.minScore {
			continue
		}
		articles = append(articles, h.toArticle(item))
	}
	return articles, nil
}

func (h *HackerNews) toArticle(item hnItem) models.Article {
	url := item.URL
	if url == "" {
		url = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID)
	}
	return models.Article{
		ID:           fmt.Sprintf("hackernews-%d", item.ID),
		URL:          url,
		Title:        item.Title,
		Text:         item.Text,
		Source:       h.Name(),
		Engagement:   item.Score,
		CommentCount: item.Descendants,
		PublishedAt:  time.Unix(item.Time, 0).UTC().Format(time.RFC3339),
	}
}

func (h *HackerNews) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
