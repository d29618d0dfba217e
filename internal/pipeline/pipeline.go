// Package pipeline orchestrates one aggregation pass: fetch, deduplicate,
// extract keywords, rank, snapshot and detect trends.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/config"
	"github.com/pulsefeed/pulsefeed/internal/dedup"
	"github.com/pulsefeed/pulsefeed/internal/fetch"
	"github.com/pulsefeed/pulsefeed/internal/hotness"
	"github.com/pulsefeed/pulsefeed/internal/keywords"
	"github.com/pulsefeed/pulsefeed/internal/models"
	"github.com/pulsefeed/pulsefeed/internal/storage"
	"github.com/pulsefeed/pulsefeed/internal/velocity"
	"github.com/pulsefeed/pulsefeed/pkg/utils"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a run is triggered while another run is
// still active. At most one run executes at a time.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Pipeline wires the fetchers, analysis stages and store together.
type Pipeline struct {
	cfg       *config.Config
	fetchers  []fetch.Fetcher
	dedup     *dedup.Deduplicator
	extractor *keywords.Extractor
	scorer    *hotness.Scorer
	detector  *velocity.Detector
	store     storage.Store
	logger    *zap.Logger
	running   atomic.Bool
}

// New builds a pipeline with analyzers tuned from cfg.
func New(cfg *config.Config, fetchers []fetch.Fetcher, store storage.Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:      cfg,
		fetchers: fetchers,
		dedup: dedup.NewDeduplicator(
			cfg.Analyze.Dedup.Threshold,
			cfg.Analyze.Dedup.NumPerm,
			dedup.WithLogger(logger)),
		extractor: keywords.NewExtractor(
			keywords.WithLimits(
				cfg.Analyze.Keywords.MinLength,
				cfg.Analyze.Keywords.MaxWords,
				cfg.Analyze.Keywords.MaxPerArticle),
			keywords.WithLogger(logger)),
		scorer: hotness.NewScorer(
			cfg.Analyze.Hotness.Gravity,
			hotness.WithLogger(logger)),
		detector: velocity.NewDetector(
			cfg.Analyze.Velocity.MinGrowthPercent,
			cfg.Analyze.Velocity.MinCurrentVolume,
			velocity.WithSpikeThreshold(cfg.Analyze.Velocity.SpikeThreshold),
			velocity.WithLogger(logger)),
		store:  store,
		logger: logger,
	}
}

// Running reports whether a run is currently active.
func (p *Pipeline) Running() bool { return p.running.Load() }

// Run executes one full pass. sources optionally restricts fetching to the
// named sources. Per-article and per-source failures degrade; store failures
// abort the run and are returned alongside the stats gathered so far.
func (p *Pipeline) Run(ctx context.Context, sources []string) (*models.RunStats, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer p.running.Store(false)
	return p.run(ctx, sources)
}

// run is the pass body. Callers must hold the running flag.
func (p *Pipeline) run(ctx context.Context, sources []string) (*models.RunStats, error) {
	start := time.Now()
	fetchers := fetch.Filter(p.fetchers, sources)
	articles := fetch.FetchAll(ctx, fetchers, p.logger)

	stats := &models.RunStats{
		ArticlesFetched: len(articles),
		BySource:        countBySource(articles),
	}

	unique := p.dedup.Deduplicate(articles)
	dstats := p.dedup.Stats()
	stats.ArticlesUnique = dstats.Unique
	stats.ArticlesRemoved = dstats.Removed
	stats.DedupRate = dstats.Rate

	records := p.extractor.TopKeywords(unique,
		p.cfg.Analyze.Keywords.TopN, p.cfg.Analyze.Keywords.MinFrequency)
	stats.Keywords = len(records)

	scored := p.scorer.Rank(unique, p.cfg.Analyze.Hotness.SourceWeights)

	// History is read before this run's snapshot lands, so a keyword's first
	// appearance is judged against a genuinely empty past.
	timeframe := p.cfg.Analyze.Velocity.TimeframeDays
	history, err := p.store.GetAllHistory(ctx, 2*timeframe)
	if err != nil {
		return stats, fmt.Errorf("failed to load history: %w", err)
	}

	now := time.Now().UTC()
	for _, record := range records {
		if err := p.store.UpsertDaily(ctx, record.Keyword, now,
			record.Frequency, sampleSources(record.SampleArticles)); err != nil {
			return stats, fmt.Errorf("failed to snapshot keyword %q: %w", record.Keyword, err)
		}
	}

	current := make(map[string]int, len(records))
	for _, record := range records {
		current[record.Keyword] = record.Frequency
	}
	trending := p.detector.FindTrendingUp(current, history, timeframe)
	stats.TrendingUp = len(trending)

	if err := p.store.ReplaceHotTopics(ctx, p.hotTopics(records, scored, now)); err != nil {
		return stats, fmt.Errorf("failed to persist hot topics: %w", err)
	}
	if err := p.store.ReplaceTrendingTopics(ctx, trendingTopics(trending, now)); err != nil {
		return stats, fmt.Errorf("failed to persist trending topics: %w", err)
	}

	if retention := p.cfg.Storage.RetentionDays; retention > 0 {
		purged, err := p.store.PurgeOlderThan(ctx, retention)
		if err != nil {
			return stats, fmt.Errorf("failed to purge history: %w", err)
		}
		if purged > 0 {
			p.logger.Info("purged old history", zap.Int64("rows", purged))
		}
	}

	p.logger.Info("pipeline run complete",
		zap.Int("fetched", stats.ArticlesFetched),
		zap.Int("unique", stats.ArticlesUnique),
		zap.Int("keywords", stats.Keywords),
		zap.Int("trending_up", stats.TrendingUp),
		zap.Duration("took", time.Since(start)))
	return stats, nil
}

// hotTopics ranks the extracted keywords by the summed hot score of the
// articles mentioning them, best first.
func (p *Pipeline) hotTopics(records []models.KeywordRecord, scored []models.ScoredArticle, fetchedAt time.Time) []models.HotTopic {
	topics := make([]models.HotTopic, 0, len(records))
	for _, record := range records {
		topics = append(topics, models.HotTopic{
			Keyword:        record.Keyword,
			Score:          keywordScore(record.Keyword, scored),
			Mentions:       record.Frequency,
			Sources:        sampleSources(record.SampleArticles),
			SampleArticles: record.SampleArticles,
			FetchedAt:      fetchedAt,
		})
	}
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].Score > topics[j].Score })

	limit := p.cfg.Analyze.Hotness.TopN
	minScore := p.cfg.Analyze.Hotness.MinScore
	out := make([]models.HotTopic, 0, len(topics))
	for _, topic := range topics {
		if topic.Score < minScore {
			continue
		}
		topic.Rank = len(out) + 1
		out = append(out, topic)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func trendingTopics(results []models.TrendingResult, fetchedAt time.Time) []models.TrendingTopic {
	topics := make([]models.TrendingTopic, 0, len(results))
	for i, result := range results {
		topics = append(topics, models.TrendingTopic{
			Rank:           i + 1,
			TrendingResult: result,
			FetchedAt:      fetchedAt,
		})
	}
	return topics
}

// keywordScore sums the hot scores of articles mentioning the keyword.
// Matching runs on shingle-normalized text so hyphenated titles still count.
func keywordScore(keyword string, scored []models.ScoredArticle) float64 {
	var total float64
	for _, sa := range scored {
		if strings.Contains(utils.NormalizeForShingles(sa.Title+" "+sa.Text), keyword) {
			total += sa.HotScore
		}
	}
	return total
}

// sampleSources returns the distinct sources of the samples, first-seen
// order.
func sampleSources(samples []models.SampleArticle) []string {
	seen := make(map[string]struct{}, len(samples))
	var sources []string
	for _, s := range samples {
		if _, ok := seen[s.Source]; ok {
			continue
		}
		seen[s.Source] = struct{}{}
		sources = append(sources, s.Source)
	}
	return sources
}

func countBySource(articles []models.Article) map[string]int {
	if len(articles) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, a := range articles {
		counts[a.Source]++
	}
	return counts
}
