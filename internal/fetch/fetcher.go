// Package fetch collects articles from the configured sources: Hacker News,
// Reddit, RSS feeds, NewsAPI and curated Substack/Medium publications.
package fetch

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/config"
	"github.com/pulsefeed/pulsefeed/internal/models"
	"go.uber.org/zap"
)

const requestTimeout = 15 * time.Second

// Fetcher retrieves articles from one source.
type Fetcher interface {
	// Name identifies the source ("hackernews", "reddit", ...). It is used
	// as Article.Source and for source filtering.
	Name() string

	// Fetch returns the source's current articles. Implementations return
	// partial results with a nil error when individual items fail; a
	// non-nil error means the source produced nothing usable.
	Fetch(ctx context.Context) ([]models.Article, error)
}

// FetchAll runs every fetcher concurrently and merges their articles in
// fetcher order. A failing source is logged and skipped; the merged batch
// carries whatever the healthy sources returned.
func FetchAll(ctx context.Context, fetchers []Fetcher, logger *zap.Logger) []models.Article {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([][]models.Article, len(fetchers))
	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func(i int, f Fetcher) {
			defer wg.Done()
			articles, err := f.Fetch(ctx)
			if err != nil {
				logger.Warn("source fetch failed",
					zap.String("source", f.Name()),
					zap.Error(err))
				return
			}
			logger.Info("source fetched",
				zap.String("source", f.Name()),
				zap.Int("articles", len(articles)))
			results[i] = articles
		}(i, f)
	}
	wg.Wait()

	var merged []models.Article
	for _, articles := range results {
		merged = append(merged, articles...)
	}
	return merged
}

// FromConfig builds the enabled fetchers. feeds may be nil when the RSS
// source is disabled.
func FromConfig(cfg *config.Config, feeds *FeedList, logger *zap.Logger) []Fetcher {
	var fetchers []Fetcher
	if cfg.Sources.HackerNews.EnabledOrDefault() {
		fetchers = append(fetchers, NewHackerNews(cfg.Sources.HackerNews, logger))
	}
	if cfg.Sources.Reddit.EnabledOrDefault() {
		fetchers = append(fetchers, NewReddit(cfg.Sources.Reddit, logger))
	}
	if cfg.Sources.RSS.EnabledOrDefault() && feeds != nil {
		fetchers = append(fetchers, NewRSS(feeds, cfg.Sources.RSS.LimitPerFeed, logger))
	}
	if cfg.Sources.NewsAPI.EnabledOrDefault() {
		fetchers = append(fetchers, NewNewsAPI(cfg.Sources.NewsAPI, logger))
	}
	if cfg.Sources.Substack.EnabledOrDefault() {
		fetchers = append(fetchers, NewSubstackDiscovery(cfg.Sources.Substack, logger))
	}
	if cfg.Sources.Medium.EnabledOrDefault() {
		fetchers = append(fetchers, NewMediumDiscovery(cfg.Sources.Medium, logger))
	}
	return fetchers
}

// Filter returns the fetchers whose name appears in sources. An empty
// sources list selects everything.
func Filter(fetchers []Fetcher, sources []string) []Fetcher {
	if len(sources) == 0 {
		return fetchers
	}
	wanted := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		wanted[s] = struct{}{}
	}
	var out []Fetcher
	for _, f := range fetchers {
		if _, ok := wanted[f.Name()]; ok {
			out = append(out, f)
		}
	}
	return out
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}
