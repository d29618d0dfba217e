package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pulsefeed/pulsefeed/internal/models"
	"go.uber.org/zap"
)

// runTimeout bounds a background pipeline run triggered over the API.
const runTimeout = 10 * time.Minute

var (
	hotTimeframes      = map[string]bool{"24hr": true, "3day": true, "7day": true}
	trendingTimeframes = map[string]bool{"7day": true, "14day": true, "30day": true}
)

type fetchRequest struct {
	Sources []string `json:"sources"`
}

func (s *Server) handleTriggerFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if s.pipeline.Running() {
		s.respondError(w, http.StatusConflict, "a fetch run is already in progress")
		return
	}

	job := &models.Job{ID: uuid.NewString()}
	if err := s.store.CreateJob(r.Context(), job); err != nil {
		s.logger.Error("failed to create job", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	go s.runJob(job.ID, req.Sources)

	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": models.JobRunning,
	})
}

// runJob executes a pipeline run detached from the request context.
func (s *Server) runJob(jobID string, sources []string) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	stats, err := s.pipeline.Run(ctx, sources)
	if err != nil {
		s.logger.Error("fetch run failed", zap.String("job", jobID), zap.Error(err))
		if ferr := s.store.FailJob(ctx, jobID, err.Error()); ferr != nil {
			s.logger.Error("failed to mark job failed", zap.Error(ferr))
		}
		return
	}
	if err := s.store.CompleteJob(ctx, jobID, stats); err != nil {
		s.logger.Error("failed to mark job completed", zap.Error(err))
	}
}

func (s *Server) handleFetchStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "job not found")
		return
	}
	s.respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleHotTopics(w http.ResponseWriter, r *http.Request) {
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "24hr"
	}
	if !hotTimeframes[timeframe] {
		s.respondError(w, http.StatusBadRequest, "timeframe must be one of 24hr, 3day, 7day")
		return
	}
	topics, err := s.store.HotTopics(r.Context(), s.queryLimit(r))
	if err != nil {
		s.logger.Error("failed to load hot topics", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if topics == nil {
		topics = []models.HotTopic{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"timeframe": timeframe,
		"count":     len(topics),
		"topics":    topics,
	})
}

func (s *Server) handleTrendingUp(w http.ResponseWriter, r *http.Request) {
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "7day"
	}
	if !trendingTimeframes[timeframe] {
		s.respondError(w, http.StatusBadRequest, "timeframe must be one of 7day, 14day, 30day")
		return
	}
	topics, err := s.store.TrendingTopics(r.Context(), s.queryLimit(r))
	if err != nil {
		s.logger.Error("failed to load trending topics", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if topics == nil {
		topics = []models.TrendingTopic{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"timeframe": timeframe,
		"count":     len(topics),
		"topics":    topics,
	})
}

func (s *Server) handleKeywordHistory(w http.ResponseWriter, r *http.Request) {
	keyword := chi.URLParam(r, "keyword")
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}
	history, err := s.store.GetHistory(r.Context(), keyword, days)
	if err != nil {
		s.logger.Error("failed to load history", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if history == nil {
		history = []models.HistoryPoint{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"keyword": keyword,
		"days":    days,
		"history": history,
	})
}

func (s *Server) handleFeeds(w http.ResponseWriter, r *http.Request) {
	sources := make([]string, 0, len(s.fetchers))
	for _, f := range s.fetchers {
		sources = append(sources, f.Name())
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sources": sources})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"running": s.pipeline.Running(),
		"config": map[string]interface{}{
			"dedup_threshold":  s.config.Analyze.Dedup.Threshold,
			"timeframe_days":   s.config.Analyze.Velocity.TimeframeDays,
			"retention_days":   s.config.Storage.RetentionDays,
			"hotness_gravity":  s.config.Analyze.Hotness.Gravity,
			"keyword_top_n":    s.config.Analyze.Keywords.TopN,
			"scheduler_active": s.scheduler != nil,
		},
	}
	if s.scheduler != nil {
		resp["scheduler"] = s.scheduler.Status()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// queryLimit parses the limit query parameter; 0 means no limit.
func (s *Server) queryLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
