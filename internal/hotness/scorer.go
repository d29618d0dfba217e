// Package hotness ranks articles with a gravity-decayed engagement score.
package hotness

import (
	"math"
	"sort"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/models"
	"go.uber.org/zap"
)

// DefaultGravity controls how fast scores decay with article age.
const DefaultGravity = 1.8

// timestampLayouts are tried in order when parsing article timestamps.
// Sources disagree on formats, so several fallbacks are accepted.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Scorer computes hotness scores. The zero value is unusable; use NewScorer.
type Scorer struct {
	gravity float64
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// NewScorer creates a scorer. gravity <= 0 falls back to DefaultGravity.
func NewScorer(gravity float64, opts ...Option) *Scorer {
	if gravity <= 0 {
		gravity = DefaultGravity
	}
	s := &Scorer{
		gravity: gravity,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the hotness of a single article:
//
//	score = max(0, (engagement-1) / (ageHours+2)^gravity) * sourceWeight
//
// Engagement resolves explicit engagement first, then comment count, then 1.
// Articles without a parseable timestamp score 0.
func (s *Scorer) Score(article models.Article, sourceWeight float64) float64 {
	published, ok := ParseTimestamp(article.PublishedAt)
	if !ok {
		return 0
	}
	ageHours := s.now().Sub(published).Hours()
	if ageHours < 0 {
		ageHours = 0
	}

	engagement := article.Engagement
	if engagement == 0 {
		engagement = article.CommentCount
	}
	if engagement == 0 {
		engagement = 1
	}

	score := float64(engagement-1) / math.Pow(ageHours+2, s.gravity)
	if score < 0 {
		score = 0
	}
	score *= sourceWeight
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}

// Rank scores every article and returns them ordered by score descending.
// The input slice is not modified; equal scores keep input order. Source
// weights default to 1.0 for sources missing from weights.
func (s *Scorer) Rank(articles []models.Article, weights map[string]float64) []models.ScoredArticle {
	scored := make([]models.ScoredArticle, 0, len(articles))
	for _, article := range articles {
		weight, ok := weights[article.Source]
		if !ok {
			weight = 1.0
		}
		scored = append(scored, models.ScoredArticle{
			Article:  article,
			HotScore: s.Score(article, weight),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].HotScore > scored[j].HotScore
	})
	s.logger.Debug("ranked articles", zap.Int("count", len(scored)))
	return scored
}

// TopN returns the first n scored articles at or above minScore. n <= 0
// means no count limit.
func TopN(scored []models.ScoredArticle, n int, minScore float64) []models.ScoredArticle {
	out := make([]models.ScoredArticle, 0, len(scored))
	for _, sa := range scored {
		if sa.HotScore < minScore {
			continue
		}
		out = append(out, sa)
		if n > 0 && len(out) >= n {
			break
		}
	}
	return out
}

// ParseTimestamp parses an article timestamp in any accepted layout. The
// second return is false when no layout matches.
func ParseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
