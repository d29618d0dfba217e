package dedup

import (
	"fmt"

	"github.com/pulsefeed/pulsefeed/internal/models"
	"github.com/pulsefeed/pulsefeed/pkg/utils"
	"go.uber.org/zap"
)

// DefaultThreshold is the default estimated-Jaccard cutoff for treating two
// articles as near-duplicates.
const DefaultThreshold = 0.5

// Stats reports the outcome of the last deduplication pass.
type Stats struct {
	Original int     `json:"original"`
	Unique   int     `json:"unique"`
	Removed  int     `json:"removed"`
	Rate     float64 `json:"dedup_rate"`
}

// Deduplicator removes near-duplicate articles from a batch. It is not safe
// for concurrent use; each pipeline run owns its own Deduplicator pass.
type Deduplicator struct {
	threshold float64
	signer    *Signer
	logger    *zap.Logger
	lastStats Stats
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithLogger sets a logger for per-pass observability.
func WithLogger(l *zap.Logger) Option {
	return func(d *Deduplicator) { d.logger = l }
}

// NewDeduplicator creates a deduplicator. threshold <= 0 falls back to
// DefaultThreshold, numPerm <= 0 to DefaultNumPerm.
func NewDeduplicator(threshold float64, numPerm int, opts ...Option) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	d := &Deduplicator{
		threshold: threshold,
		signer:    NewSigner(numPerm),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deduplicate returns the subsequence of first occurrences in articles, with
// exact URL duplicates and near-duplicate content removed. Input order is
// preserved and the first-seen article of every duplicate group is the one
// retained. Articles with empty content are kept (they cannot match anything)
// unless their URL was already seen.
func (d *Deduplicator) Deduplicate(articles []models.Article) []models.Article {
	unique := make([]models.Article, 0, len(articles))
	if len(articles) == 0 {
		d.lastStats = Stats{}
		return unique
	}

	index := newLSHIndex(d.threshold, d.signer.NumPerm())
	seenURLs := make(map[string]struct{})

	for _, article := range articles {
		if article.URL != "" {
			if _, seen := seenURLs[article.URL]; seen {
				d.logger.Debug("duplicate url", zap.String("url", article.URL))
				continue
			}
		}

		sig := d.signer.Sign(normalizeContent(article))
		if len(sig) > 0 {
			if match := index.Query(sig); match >= 0 {
				d.logger.Debug("duplicate content",
					zap.String("title", utils.Truncate(article.Title, 50)),
					zap.Int("similar_to", match))
				continue
			}
			index.Insert(sig)
		}

		if article.URL != "" {
			seenURLs[article.URL] = struct{}{}
		}
		unique = append(unique, article)
	}

	removed := len(articles) - len(unique)
	d.lastStats = Stats{
		Original: len(articles),
		Unique:   len(unique),
		Removed:  removed,
		Rate:     float64(removed) / float64(len(articles)),
	}
	d.logger.Info("deduplication complete",
		zap.Int("original", d.lastStats.Original),
		zap.Int("unique", d.lastStats.Unique),
		zap.Int("removed", d.lastStats.Removed),
		zap.String("dedup_rate", fmt.Sprintf("%.1f%%", d.lastStats.Rate*100)))

	return unique
}

// Stats returns counts for the most recent Deduplicate call.
func (d *Deduplicator) Stats() Stats { return d.lastStats }

// FindDuplicateGroups maps the id of each retained article to the articles
// judged duplicates of it. Ids are "article_<index>" where index is the
// retained article's position in the input.
func (d *Deduplicator) FindDuplicateGroups(articles []models.Article) map[string][]models.Article {
	groups := make(map[string][]models.Article)
	index := newLSHIndex(d.threshold, d.signer.NumPerm())
	urlKeeper := make(map[string]int) // url -> input index of keeper
	idKeeper := make(map[int]int)     // lsh insertion id -> input index of keeper

	for i, article := range articles {
		if article.URL != "" {
			if keeper, seen := urlKeeper[article.URL]; seen {
				key := articleKey(keeper)
				groups[key] = append(groups[key], article)
				continue
			}
		}

		sig := d.signer.Sign(normalizeContent(article))
		if len(sig) > 0 {
			if match := index.Query(sig); match >= 0 {
				key := articleKey(idKeeper[match])
				groups[key] = append(groups[key], article)
				continue
			}
			idKeeper[index.Insert(sig)] = i
		}

		if article.URL != "" {
			urlKeeper[article.URL] = i
		}
	}
	return groups
}

func articleKey(index int) string {
	return fmt.Sprintf("article_%d", index)
}

// normalizeContent produces the canonical shingle text for an article:
// title and body joined, markup and URLs stripped, lower-cased alphanumerics.
func normalizeContent(a models.Article) string {
	return utils.NormalizeForShingles(a.Title + " " + a.Text)
}
