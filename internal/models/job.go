package models

import "time"

// Job statuses.
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// RunStats summarizes one pipeline run. A partially failed run still reports
// the counts it reached so callers can detect degraded output.
type RunStats struct {
	ArticlesFetched int            `json:"articles_fetched"`
	ArticlesUnique  int            `json:"articles_unique"`
	ArticlesRemoved int            `json:"articles_removed"`
	DedupRate       float64        `json:"dedup_rate"`
	Keywords        int            `json:"keywords"`
	TrendingUp      int            `json:"trending_up"`
	BySource        map[string]int `json:"by_source,omitempty"`
}

// Job tracks one pipeline execution triggered via the API or the scheduler.
type Job struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Stats       *RunStats  `json:"stats,omitempty"`
}
