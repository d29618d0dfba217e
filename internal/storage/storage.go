// Package storage persists keyword history snapshots, ranked topic results
// and pipeline job records.
package storage

import (
	"context"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

// SnapshotStore records daily keyword mention volumes.
type SnapshotStore interface {
	// UpsertDaily writes the mention volume of keyword for one UTC calendar
	// day. Re-running a day replaces the previous value.
	UpsertDaily(ctx context.Context, keyword string, day time.Time, mentions int, sources []string) error

	// GetHistory returns up to days of history for one keyword, oldest first.
	GetHistory(ctx context.Context, keyword string, days int) ([]models.HistoryPoint, error)

	// GetAllHistory returns history for every keyword seen in the last days.
	GetAllHistory(ctx context.Context, days int) (map[string][]models.HistoryPoint, error)

	// PurgeOlderThan deletes history older than days and reports how many
	// rows were removed.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// TopicStore persists the ranked output of the latest pipeline run.
type TopicStore interface {
	ReplaceHotTopics(ctx context.Context, topics []models.HotTopic) error
	HotTopics(ctx context.Context, limit int) ([]models.HotTopic, error)
	ReplaceTrendingTopics(ctx context.Context, topics []models.TrendingTopic) error
	TrendingTopics(ctx context.Context, limit int) ([]models.TrendingTopic, error)
}

// JobStore tracks pipeline executions.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	CompleteJob(ctx context.Context, id string, stats *models.RunStats) error
	FailJob(ctx context.Context, id string, cause string) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
}

// Store is the full persistence surface used by the pipeline and the API.
type Store interface {
	SnapshotStore
	TopicStore
	JobStore
	Close() error
}
