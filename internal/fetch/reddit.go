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

const redditBaseURL = "https://www.reddit.com"

// Reddit fetches hot posts from public subreddit listings. No credentials
// are needed; Reddit only requires a descriptive User-Agent.
type Reddit struct {
	BaseURL    string
	HTTPClient *http.Client

	subreddits []string
	limit      int
	minScore   int
	userAgent  string
	logger     *zap.Logger
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	SelfText    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// NewReddit creates a Reddit fetcher.
func NewReddit(cfg config.RedditConfig, logger *zap.Logger) *Reddit {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reddit{
		BaseURL:    redditBaseURL,
		HTTPClient: newHTTPClient(),
		subreddits: cfg.Subreddits,
		limit:      cfg.Limit,
		minScore:   cfg.MinScore,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// Name implements Fetcher.
func (r *Reddit) Name() string { return "reddit" }

// Fetch returns hot posts from every configured subreddit. A failing
// subreddit is logged and skipped so one bad listing does not starve the
// rest.
func (r *Reddit) Fetch(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	for _, subreddit := range r.subreddits {
		posts, err := r.fetchSubreddit(ctx, subreddit)
		if err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			r.logger.Warn("skipping subreddit",
				zap.String("subreddit", subreddit), zap.Error(err))
			continue
		}
		for _, post := range posts {
			if post.Stickied || post.Score < r.minScore || post.Title == "" {
				continue
			}
			articles = append(articles, r.toArticle(post))
		}
	}
	return articles, nil
}

func (r *Reddit) fetchSubreddit(ctx context.Context, subreddit string) ([]redditPost, error) {
	url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", r.BaseURL, subreddit, r.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func (r *Reddit) toArticle(post redditPost) models.Article {
	url := post.URL
	if url == "" {
		url = redditBaseURL + post.Permalink
	}
	return models.Article{
		ID:           "reddit-" + post.ID,
		URL:          url,
		Title:        post.Title,
		Text:         post.SelfText,
		Source:       r.Name(),
		Engagement:   post.Score,
		CommentCount: post.NumComments,
		PublishedAt:  time.Unix(int64(post.CreatedUTC), 0).UTC().Format(time.RFC3339),
	}
}
