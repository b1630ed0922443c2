// Package server provides the HTTP host exposing the personalized search
// core to provider adapters and the browsing front end.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/config"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/search"
)

// Service is the HTTP host around the search manager.
type Service struct {
	version string
	config  *config.Config
	manager *search.Manager

	router     *chi.Mux
	httpServer *http.Server

	ready     atomic.Bool
	startTime time.Time
}

// NewService creates the HTTP service and wires its routes.
func NewService(cfg *config.Config, manager *search.Manager, version string) *Service {
	svc := &Service{
		version:   version,
		config:    cfg,
		manager:   manager,
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}
	svc.setupRoutes()
	return svc
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestID)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/ready", s.handleReady)
	s.router.Get("/api/version", s.handleVersion)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireReady)
		r.Post("/api/search/aggregate", s.handleAggregate)
		r.Post("/api/feedback/sqm", s.handleSQMFeedback)
		r.Post("/api/feedback/learn", s.handleLearnFeedback)
		r.Get("/api/users/{userID}/sqm", s.handleListSQM)
	})
}

// Start runs the HTTP listener until Shutdown is called.
func (s *Service) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.ready.Store(true)

	log.Info().Int("port", s.config.Port).Str("version", s.version).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// requestID tags every request with a UUID for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// requireReady rejects requests until the service finished starting up.
func (s *Service) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeError(w, http.StatusServiceUnavailable, "service starting")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
