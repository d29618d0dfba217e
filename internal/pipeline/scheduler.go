package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pulsefeed/pulsefeed/internal/models"
	"github.com/pulsefeed/pulsefeed/internal/storage"
	"go.uber.org/zap"
)

// Scheduler triggers pipeline runs on a fixed interval. Ticks that land
// while a run is active are skipped rather than queued.
type Scheduler struct {
	pipeline *Pipeline
	jobs     storage.JobStore
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	runs     int
	skips    int
	lastRun  time.Time
	lastErr  string
	done     chan struct{}
	stopOnce sync.Once
}

// SchedulerStatus is a snapshot of scheduler activity.
type SchedulerStatus struct {
	IntervalMinutes int       `json:"interval_minutes"`
	Runs            int       `json:"runs"`
	Skips           int       `json:"skips"`
	LastRun         time.Time `json:"last_run,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
}

// NewScheduler creates a scheduler over the pipeline.
func NewScheduler(p *Pipeline, jobs storage.JobStore, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		pipeline: p,
		jobs:     jobs,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs the scheduler loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick claims the pipeline's run slot before recording a job, so a tick that
// loses the race to an API-triggered run leaves no job row behind.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.pipeline.running.CompareAndSwap(false, true) {
		s.mu.Lock()
		s.skips++
		s.mu.Unlock()
		s.logger.Info("skipping scheduled run, previous run still active")
		return
	}
	defer s.pipeline.running.Store(false)

	job := &models.Job{ID: "scheduled-" + uuid.NewString()}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		s.recordError(err)
		s.logger.Warn("failed to create scheduled job", zap.Error(err))
		return
	}

	stats, err := s.pipeline.run(ctx, nil)
	if err != nil {
		s.recordError(err)
		if ferr := s.jobs.FailJob(ctx, job.ID, err.Error()); ferr != nil {
			s.logger.Warn("failed to mark job failed", zap.Error(ferr))
		}
		s.logger.Warn("scheduled run failed", zap.String("job", job.ID), zap.Error(err))
		return
	}

	if err := s.jobs.CompleteJob(ctx, job.ID, stats); err != nil {
		s.logger.Warn("failed to mark job completed", zap.Error(err))
	}
	s.mu.Lock()
	s.runs++
	s.lastRun = time.Now()
	s.lastErr = ""
	s.mu.Unlock()
	s.logger.Info("scheduled run complete", zap.String("job", job.ID))
}

func (s *Scheduler) recordError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

// Status returns a snapshot of scheduler activity.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{
		IntervalMinutes: int(s.interval.Minutes()),
		Runs:            s.runs,
		Skips:           s.skips,
		LastRun:         s.lastRun,
		LastError:       s.lastErr,
	}
}

// Stop stops the scheduler loop.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
