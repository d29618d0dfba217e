package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

const dayLayout = "2006-01-02"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS keyword_history (
		keyword TEXT NOT NULL,
		day TEXT NOT NULL,
		mentions INTEGER NOT NULL,
		sources TEXT,
		PRIMARY KEY (keyword, day)
	);

	CREATE INDEX IF NOT EXISTS idx_history_day ON keyword_history(day);

	CREATE TABLE IF NOT EXISTS hot_topics (
		rank INTEGER PRIMARY KEY,
		keyword TEXT NOT NULL,
		score REAL NOT NULL,
		mentions INTEGER NOT NULL,
		sources TEXT,
		sample_articles TEXT,
		fetched_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trending_topics (
		rank INTEGER PRIMARY KEY,
		keyword TEXT NOT NULL,
		current_volume INTEGER NOT NULL,
		previous_volume INTEGER NOT NULL,
		velocity REAL NOT NULL,
		percent_growth REAL NOT NULL,
		is_new INTEGER NOT NULL,
		is_spike INTEGER NOT NULL DEFAULT 0,
		z_score REAL NOT NULL DEFAULT 0,
		fetched_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		error TEXT,
		stats TEXT
	);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertDaily writes one day of mention volume for a keyword. Keywords are
// stored lower-cased; re-writing an existing day replaces it.
func (s *SQLiteStore) UpsertDaily(ctx context.Context, keyword string, day time.Time, mentions int, sources []string) error {
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO keyword_history (keyword, day, mentions, sources)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(keyword, day) DO UPDATE SET
			mentions = excluded.mentions,
			sources = excluded.sources`,
		strings.ToLower(keyword), day.UTC().Format(dayLayout), mentions, string(sourcesJSON),
	)
	return err
}

// GetHistory returns the last days of history for one keyword, oldest first.
func (s *SQLiteStore) GetHistory(ctx context.Context, keyword string, days int) ([]models.HistoryPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, mentions, sources FROM keyword_history
		 WHERE keyword = ? AND day >= ?
		 ORDER BY day`,
		strings.ToLower(keyword), cutoffDay(days),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.HistoryPoint
	for rows.Next() {
		point, err := scanHistoryPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

// GetAllHistory returns per-keyword history for every keyword with mentions
// in the last days, each list oldest first.
func (s *SQLiteStore) GetAllHistory(ctx context.Context, days int) (map[string][]models.HistoryPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword, day, mentions, sources FROM keyword_history
		 WHERE day >= ?
		 ORDER BY keyword, day`,
		cutoffDay(days),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make(map[string][]models.HistoryPoint)
	for rows.Next() {
		var keyword string
		var point models.HistoryPoint
		var sourcesJSON sql.NullString
		if err := rows.Scan(&keyword, &point.Date, &point.Mentions, &sourcesJSON); err != nil {
			return nil, err
		}
		if sourcesJSON.Valid && sourcesJSON.String != "" {
			_ = json.Unmarshal([]byte(sourcesJSON.String), &point.Sources)
		}
		history[keyword] = append(history[keyword], point)
	}
	return history, rows.Err()
}

// PurgeOlderThan deletes history rows older than days.
func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM keyword_history WHERE day < ?`, cutoffDay(days))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ReplaceHotTopics atomically swaps the persisted hot topic ranking.
func (s *SQLiteStore) ReplaceHotTopics(ctx context.Context, topics []models.HotTopic) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM hot_topics`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hot_topics (rank, keyword, score, mentions, sources, sample_articles, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, topic := range topics {
		sourcesJSON, err := json.Marshal(topic.Sources)
		if err != nil {
			return fmt.Errorf("failed to marshal sources: %w", err)
		}
		samplesJSON, err := json.Marshal(topic.SampleArticles)
		if err != nil {
			return fmt.Errorf("failed to marshal sample articles: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			topic.Rank, topic.Keyword, topic.Score, topic.Mentions,
			string(sourcesJSON), string(samplesJSON), topic.FetchedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// HotTopics returns the persisted hot topic ranking, best first. limit <= 0
// returns everything.
func (s *SQLiteStore) HotTopics(ctx context.Context, limit int) ([]models.HotTopic, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, keyword, score, mentions, sources, sample_articles, fetched_at
		 FROM hot_topics ORDER BY rank LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []models.HotTopic
	for rows.Next() {
		var topic models.HotTopic
		var sourcesJSON, samplesJSON sql.NullString
		if err := rows.Scan(&topic.Rank, &topic.Keyword, &topic.Score, &topic.Mentions,
			&sourcesJSON, &samplesJSON, &topic.FetchedAt); err != nil {
			return nil, err
		}
		if sourcesJSON.Valid && sourcesJSON.String != "" {
			_ = json.Unmarshal([]byte(sourcesJSON.String), &topic.Sources)
		}
		if samplesJSON.Valid && samplesJSON.String != "" {
			_ = json.Unmarshal([]byte(samplesJSON.String), &topic.SampleArticles)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

// ReplaceTrendingTopics atomically swaps the persisted trending ranking.
func (s *SQLiteStore) ReplaceTrendingTopics(ctx context.Context, topics []models.TrendingTopic) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trending_topics`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trending_topics (rank, keyword, current_volume, previous_volume, velocity, percent_growth, is_new, is_spike, z_score, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, topic := range topics {
		if _, err := stmt.ExecContext(ctx,
			topic.Rank, topic.Keyword, topic.CurrentVolume, topic.PreviousVolume,
			topic.Velocity, topic.PercentGrowth, topic.IsNew, topic.IsSpike,
			topic.ZScore, topic.FetchedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// TrendingTopics returns the persisted trending ranking, best first.
// limit <= 0 returns everything.
func (s *SQLiteStore) TrendingTopics(ctx context.Context, limit int) ([]models.TrendingTopic, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, keyword, current_volume, previous_volume, velocity, percent_growth, is_new, is_spike, z_score, fetched_at
		 FROM trending_topics ORDER BY rank LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []models.TrendingTopic
	for rows.Next() {
		var topic models.TrendingTopic
		if err := rows.Scan(&topic.Rank, &topic.Keyword, &topic.CurrentVolume, &topic.PreviousVolume,
			&topic.Velocity, &topic.PercentGrowth, &topic.IsNew, &topic.IsSpike,
			&topic.ZScore, &topic.FetchedAt); err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

// CreateJob inserts a new job record in running state.
func (s *SQLiteStore) CreateJob(ctx context.Context, job *models.Job) error {
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.JobRunning
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, started_at) VALUES (?, ?, ?)`,
		job.ID, job.Status, job.StartedAt,
	)
	return err
}

// CompleteJob marks a job completed and attaches its run stats.
func (s *SQLiteStore) CompleteJob(ctx context.Context, id string, stats *models.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return s.finishJob(ctx, id, models.JobCompleted, "", string(statsJSON))
}

// FailJob marks a job failed with a cause.
func (s *SQLiteStore) FailJob(ctx context.Context, id string, cause string) error {
	return s.finishJob(ctx, id, models.JobFailed, cause, "")
}

func (s *SQLiteStore) finishJob(ctx context.Context, id, status, cause, statsJSON string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, completed_at = ?, error = ?, stats = ? WHERE id = ?`,
		status, time.Now().UTC(), cause, statsJSON, id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

// GetJob returns a job by ID.
func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	var completedAt sql.NullTime
	var cause, statsJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, started_at, completed_at, error, stats FROM jobs WHERE id = ?`, id,
	).Scan(&job.ID, &job.Status, &job.StartedAt, &completedAt, &cause, &statsJSON)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	job.Error = cause.String
	if statsJSON.Valid && statsJSON.String != "" {
		var stats models.RunStats
		if err := json.Unmarshal([]byte(statsJSON.String), &stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
		}
		job.Stats = &stats
	}
	return &job, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanHistoryPoint(rows *sql.Rows) (models.HistoryPoint, error) {
	var point models.HistoryPoint
	var sourcesJSON sql.NullString
	if err := rows.Scan(&point.Date, &point.Mentions, &sourcesJSON); err != nil {
		return point, err
	}
	if sourcesJSON.Valid && sourcesJSON.String != "" {
		_ = json.Unmarshal([]byte(sourcesJSON.String), &point.Sources)
	}
	return point, nil
}

// cutoffDay is the oldest day (inclusive) kept by a days-long lookback.
func cutoffDay(days int) string {
	return time.Now().UTC().AddDate(0, 0, -days).Format(dayLayout)
}
