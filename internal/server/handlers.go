package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/merge"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/search"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// aggregateRequest is the body of POST /api/search/aggregate.
type aggregateRequest struct {
	UserID          string               `json:"user_id"`
	Query           string               `json:"query"`
	Strategy        string               `json:"strategy,omitempty"`
	IncludePersonal bool                 `json:"include_personal,omitempty"`
	Sources         []merge.SourceResult `json:"sources"`
}

// sqmFeedbackRequest is the body of POST /api/feedback/sqm. SourceRanks
// maps source name to the URLs it returned and their native ranks.
type sqmFeedbackRequest struct {
	UserID      string                    `json:"user_id"`
	Weights     *models.WeightProfile     `json:"weights,omitempty"`
	Feedback    []models.FeedbackSignals  `json:"feedback"`
	SourceRanks map[string]map[string]int `json:"source_ranks"`
}

// learnFeedbackRequest is the body of POST /api/feedback/learn.
type learnFeedbackRequest struct {
	UserID   string                   `json:"user_id"`
	Query    string                   `json:"query"`
	Weights  *models.WeightProfile    `json:"weights,omitempty"`
	Feedback []models.FeedbackSignals `json:"feedback"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "starting"
	if s.ready.Load() {
		status = "ready"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         status,
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeError(w, http.StatusServiceUnavailable, "service starting")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Service) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Service) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = s.config.DefaultStrategy
	}

	result, err := s.manager.Aggregate(r.Context(), search.AggregateParams{
		UserID:          req.UserID,
		Query:           req.Query,
		Strategy:        strategy,
		Sources:         req.Sources,
		IncludePersonal: req.IncludePersonal,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleSQMFeedback(w http.ResponseWriter, r *http.Request) {
	var req sqmFeedbackRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	// Rank maps arrive keyed by raw URL; fold them onto the canonical
	// document identity before correlating.
	ranks := make(map[string]map[string]int, len(req.SourceRanks))
	for source, byURL := range req.SourceRanks {
		normalized := make(map[string]int, len(byURL))
		for rawURL, rank := range byURL {
			normalized[merge.NormalizeKey(rawURL)] = rank
		}
		ranks[source] = normalized
	}

	rhos, err := s.manager.ComputeSQM(r.Context(), req.UserID, req.Feedback, s.weightsOrDefault(req.Weights), ranks)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated":           rhos,
		"insufficient_data": rhos == nil,
	})
}

func (s *Service) handleLearnFeedback(w http.ResponseWriter, r *http.Request) {
	var req learnFeedbackRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	upserts, err := s.manager.UpdateLearningIndex(r.Context(), req.UserID, req.Feedback, s.weightsOrDefault(req.Weights), req.Query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upserts": upserts,
		"count":   len(upserts),
	})
}

func (s *Service) handleListSQM(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userID is required")
		return
	}

	records, err := s.manager.ListSQM(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"scores":  records,
	})
}

// weightsOrDefault substitutes the configured profile when the request
// carries none. Supplied profiles are clamped, not trusted.
func (s *Service) weightsOrDefault(w *models.WeightProfile) models.WeightProfile {
	if w == nil {
		return s.config.Weights
	}
	return w.Clamped()
}
