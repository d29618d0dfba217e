package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "pulsefeed.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertDailyAndGetHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	today := time.Now().UTC()

	if err := store.UpsertDaily(ctx, "Rust Async", today.AddDate(0, 0, -1), 3, []string{"hackernews"}); err != nil {
		t.Fatalf("UpsertDaily: %v", err)
	}
	if err := store.UpsertDaily(ctx, "rust async", today, 5, []string{"hackernews", "reddit"}); err != nil {
		t.Fatalf("UpsertDaily: %v", err)
	}
	// Same keyword, same day: replaced, not duplicated.
	if err := store.UpsertDaily(ctx, "rust async", today, 8, []string{"hackernews", "reddit"}); err != nil {
		t.Fatalf("UpsertDaily replace: %v", err)
	}

	points, err := store.GetHistory(ctx, "RUST ASYNC", 7)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("history = %+v, want 2 points", points)
	}
	if points[0].Date >= points[1].Date {
		t.Errorf("history not oldest-first: %+v", points)
	}
	if points[1].Mentions != 8 {
		t.Errorf("latest mentions = %d, want replaced value 8", points[1].Mentions)
	}
	if len(points[1].Sources) != 2 || points[1].Sources[0] != "hackernews" {
		t.Errorf("sources = %v, want round-tripped list", points[1].Sources)
	}
}

func TestGetHistoryUnknownKeyword(t *testing.T) {
	store := newTestStore(t)
	points, err := store.GetHistory(context.Background(), "never seen", 7)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("history = %v, want empty", points)
	}
}

func TestGetAllHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	today := time.Now().UTC()

	if err := store.UpsertDaily(ctx, "alpha", today, 2, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertDaily(ctx, "beta", today.AddDate(0, 0, -2), 4, []string{"rss"}); err != nil {
		t.Fatal(err)
	}

	history, err := store.GetAllHistory(ctx, 7)
	if err != nil {
		t.Fatalf("GetAllHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history keys = %d, want 2", len(history))
	}
	if len(history["alpha"]) != 1 || history["alpha"][0].Mentions != 2 {
		t.Errorf("alpha history = %+v", history["alpha"])
	}
}

func TestPurgeOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	today := time.Now().UTC()

	if err := store.UpsertDaily(ctx, "old topic", today.AddDate(0, 0, -40), 5, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertDaily(ctx, "fresh topic", today, 5, nil); err != nil {
		t.Fatal(err)
	}

	removed, err := store.PurgeOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	history, err := store.GetAllHistory(ctx, 60)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := history["old topic"]; ok {
		t.Error("purged keyword still present")
	}
	if _, ok := history["fresh topic"]; !ok {
		t.Error("recent keyword was purged")
	}
}

func TestReplaceAndReadHotTopics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := []models.HotTopic{
		{Rank: 1, Keyword: "stale", Score: 1, FetchedAt: now},
	}
	if err := store.ReplaceHotTopics(ctx, first); err != nil {
		t.Fatalf("ReplaceHotTopics: %v", err)
	}

	second := []models.HotTopic{
		{Rank: 1, Keyword: "gpt 5 launches", Score: 42.5, Mentions: 12,
			Sources: []string{"hackernews", "reddit"},
			SampleArticles: []models.SampleArticle{
				{Title: "GPT-5 launches", URL: "https://a.example/1", Source: "hackernews"},
			},
			FetchedAt: now},
		{Rank: 2, Keyword: "zig package manager", Score: 10.1, Mentions: 4, FetchedAt: now},
	}
	if err := store.ReplaceHotTopics(ctx, second); err != nil {
		t.Fatalf("ReplaceHotTopics: %v", err)
	}

	topics, err := store.HotTopics(ctx, 0)
	if err != nil {
		t.Fatalf("HotTopics: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("topics = %d, want old ranking fully replaced", len(topics))
	}
	if topics[0].Keyword != "gpt 5 launches" || topics[0].Rank != 1 {
		t.Errorf("topics[0] = %+v", topics[0])
	}
	if len(topics[0].SampleArticles) != 1 || topics[0].SampleArticles[0].URL != "https://a.example/1" {
		t.Errorf("sample articles = %+v", topics[0].SampleArticles)
	}

	limited, err := store.HotTopics(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limited topics = %d, want 1", len(limited))
	}
}

func TestReplaceAndReadTrendingTopics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	topics := []models.TrendingTopic{
		{Rank: 1, TrendingResult: models.TrendingResult{
			Keyword: "brand new", CurrentVolume: 10, Velocity: 100, PercentGrowth: 1000, IsNew: true,
		}, FetchedAt: now},
		{Rank: 2, TrendingResult: models.TrendingResult{
			Keyword: "steady riser", CurrentVolume: 20, PreviousVolume: 8, Velocity: 2.1,
			PercentGrowth: 150, IsSpike: true, ZScore: 4.5,
		}, FetchedAt: now},
	}
	if err := store.ReplaceTrendingTopics(ctx, topics); err != nil {
		t.Fatalf("ReplaceTrendingTopics: %v", err)
	}

	got, err := store.TrendingTopics(ctx, 0)
	if err != nil {
		t.Fatalf("TrendingTopics: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("topics = %d, want 2", len(got))
	}
	if !got[0].IsNew || got[0].Keyword != "brand new" {
		t.Errorf("topics[0] = %+v", got[0])
	}
	if got[1].PreviousVolume != 8 || got[1].PercentGrowth != 150 {
		t.Errorf("topics[1] = %+v", got[1])
	}
	if !got[1].IsSpike || got[1].ZScore != 4.5 {
		t.Errorf("spike fields = %v %v, want persisted", got[1].IsSpike, got[1].ZScore)
	}
}

func TestJobLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &models.Job{ID: "job-1"}
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != models.JobRunning || got.CompletedAt != nil {
		t.Errorf("running job = %+v", got)
	}

	stats := &models.RunStats{ArticlesFetched: 30, ArticlesUnique: 24, ArticlesRemoved: 6, DedupRate: 0.2, Keywords: 15}
	if err := store.CompleteJob(ctx, "job-1", stats); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	got, err = store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.JobCompleted || got.CompletedAt == nil {
		t.Errorf("completed job = %+v", got)
	}
	if got.Stats == nil || got.Stats.ArticlesUnique != 24 {
		t.Errorf("stats = %+v", got.Stats)
	}

	if err := store.CreateJob(ctx, &models.Job{ID: "job-2"}); err != nil {
		t.Fatal(err)
	}
	if err := store.FailJob(ctx, "job-2", "all sources unavailable"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	got, err = store.GetJob(ctx, "job-2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.JobFailed || got.Error != "all sources unavailable" {
		t.Errorf("failed job = %+v", got)
	}
}

func TestGetJobNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetJob(context.Background(), "missing"); err == nil {
		t.Error("GetJob(missing) = nil error, want not found")
	}
}
