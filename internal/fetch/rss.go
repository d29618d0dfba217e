package fetch

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pulsefeed/pulsefeed/internal/models"
	"go.uber.org/zap"
)

// RSS fetches articles from the feed URLs held by a FeedList.
type RSS struct {
	feeds        *FeedList
	parser       *gofeed.Parser
	limitPerFeed int
	logger       *zap.Logger
}

// NewRSS creates an RSS fetcher over a feed list.
func NewRSS(feeds *FeedList, limitPerFeed int, logger *zap.Logger) *RSS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RSS{
		feeds:        feeds,
		parser:       gofeed.NewParser(),
		limitPerFeed: limitPerFeed,
		logger:       logger,
	}
}

// Name implements Fetcher.
func (r *RSS) Name() string { return "rss" }

// Fetch parses every configured feed and returns the newest items. Feeds
// that fail to parse are logged and skipped.
func (r *RSS) Fetch(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	for _, url := range r.feeds.URLs() {
		feed, err := r.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			r.logger.Warn("skipping feed", zap.String("url", url), zap.Error(err))
			continue
		}
		articles = append(articles, feedArticles(feed, r.Name(), r.limitPerFeed)...)
	}
	return articles, nil
}

// feedArticles converts up to limit items of a parsed feed. Shared with the
// discovery fetchers.
func feedArticles(feed *gofeed.Feed, source string, limit int) []models.Article {
	items := feed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	articles := make([]models.Article, 0, len(items))
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		text := item.Description
		if text == "" {
			text = item.Content
		}
		articles = append(articles, models.Article{
			ID:          source + "-" + item.Link,
			URL:         item.Link,
			Title:       item.Title,
			Text:        text,
			Source:      source,
			PublishedAt: itemTimestamp(item),
		})
	}
	return articles
}

func itemTimestamp(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return item.Published
}
