package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/config"
	"github.com/pulsefeed/pulsefeed/internal/models"
	"github.com/pulsefeed/pulsefeed/internal/pipeline"
	"github.com/pulsefeed/pulsefeed/internal/storage"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "pulsefeed.db")

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	p := pipeline.New(cfg, nil, store, zap.NewNop())
	return NewServer(p, nil, store, nil, cfg, zap.NewNop()), store
}

func doRequest(t *testing.T, s *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["status"] != "ok" {
		t.Errorf("body = %v", payload)
	}
}

func TestHandleHotTopics(t *testing.T) {
	s, store := newTestServer(t)
	now := time.Now().UTC()
	topics := []models.HotTopic{
		{Rank: 1, Keyword: "gpt 5 launches", Score: 42, Mentions: 12, FetchedAt: now},
		{Rank: 2, Keyword: "rust compiler internals", Score: 10, Mentions: 4, FetchedAt: now},
	}
	if err := store.ReplaceHotTopics(context.Background(), topics); err != nil {
		t.Fatal(err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/hot?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	if payload["timeframe"] != "24hr" {
		t.Errorf("timeframe = %v, want default 24hr", payload["timeframe"])
	}
	if payload["count"] != float64(1) {
		t.Errorf("count = %v, want limit applied", payload["count"])
	}
}

func TestHandleHotTopicsEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/hot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if topics, ok := payload["topics"].([]interface{}); !ok || len(topics) != 0 {
		t.Errorf("topics = %v, want empty array", payload["topics"])
	}
}

func TestHandleHotTopicsBadTimeframe(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/hot?timeframe=1year", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleTrendingUp(t *testing.T) {
	s, store := newTestServer(t)
	topics := []models.TrendingTopic{
		{Rank: 1, TrendingResult: models.TrendingResult{
			Keyword: "brand new", CurrentVolume: 10, Velocity: 100, PercentGrowth: 1000, IsNew: true,
		}, FetchedAt: time.Now().UTC()},
	}
	if err := store.ReplaceTrendingTopics(context.Background(), topics); err != nil {
		t.Fatal(err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/trending-up?timeframe=14day", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["timeframe"] != "14day" || payload["count"] != float64(1) {
		t.Errorf("payload = %v", payload)
	}

	if rec := doRequest(t, s, http.MethodGet, "/api/v1/trending-up?timeframe=2day", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad timeframe status = %d, want 400", rec.Code)
	}
}

func TestHandleKeywordHistory(t *testing.T) {
	s, store := newTestServer(t)
	if err := store.UpsertDaily(context.Background(), "zig build", time.Now().UTC(), 7, []string{"hackernews"}); err != nil {
		t.Fatal(err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/v1/keywords/zig%20build/history?days=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["keyword"] != "zig build" {
		t.Errorf("keyword = %v", payload["keyword"])
	}
	if history, ok := payload["history"].([]interface{}); !ok || len(history) != 1 {
		t.Errorf("history = %v", payload["history"])
	}

	if rec := doRequest(t, s, http.MethodGet, "/api/v1/keywords/x/history?days=-2", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad days status = %d, want 400", rec.Code)
	}
}

func TestHandleTriggerFetchAndStatus(t *testing.T) {
	s, store := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/fetch", `{"sources":["hackernews"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	jobID, _ := payload["job_id"].(string)
	if jobID == "" {
		t.Fatalf("payload = %v, want job_id", payload)
	}

	// The run has no fetchers, so the job completes quickly.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status == models.JobCompleted {
			rec := doRequest(t, s, http.MethodGet, "/api/v1/fetch/"+jobID, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("job status endpoint = %d", rec.Code)
			}
			if body := decodeBody(t, rec); body["status"] != models.JobCompleted {
				t.Errorf("job body = %v", body)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job never completed")
}

func TestHandleFetchStatusNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := doRequest(t, s, http.MethodGet, "/api/v1/fetch/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleTriggerFetchBadBody(t *testing.T) {
	s, _ := newTestServer(t)
	if rec := doRequest(t, s, http.MethodPost, "/api/v1/fetch", `{broken`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["running"] != false {
		t.Errorf("running = %v", payload["running"])
	}
	if _, ok := payload["config"].(map[string]interface{}); !ok {
		t.Errorf("config missing: %v", payload)
	}
}
