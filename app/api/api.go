// Package api implements the simulated HTTP surface in front of the store.
// Every handler sits behind a middleware that injects artificial latency and
// random failures, standing in for a real network so the UI layer can
// exercise loading and error states against purely local data.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/talentflow/talentflow/app/store"
)

// simulation defaults, matching the behavior the UI was built against
const (
	DefaultErrorRate = 0.05
	DefaultMinDelay  = 200 * time.Millisecond
	DefaultMaxDelay  = 1200 * time.Millisecond

	defaultPageSize    = 10
	recentCandidates   = 5
	joinConcurrency    = 8
	maxRequestBodySize = 1024 * 1024
)

// Server serves the simulated API backed by the entity store
type Server struct {
	store     *store.Store
	version   string
	errorRate float64
	minDelay  time.Duration
	maxDelay  time.Duration

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// Config holds server configuration. ErrorRate and delays are taken as
// given: zero disables injection, which is what tests want.
type Config struct {
	Store     *store.Store
	Version   string
	ErrorRate float64       // probability of an injected 500 per request
	MinDelay  time.Duration // lower bound of the artificial latency
	MaxDelay  time.Duration // upper bound (exclusive) of the artificial latency
	Rand      *rand.Rand    // randomness source, seedable for tests
}

// New creates the API server
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("api server initialization failed: store is required")
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // failure simulation, not security sensitive
	}
	return &Server{
		store:     cfg.Store,
		version:   cfg.Version,
		errorRate: cfg.ErrorRate,
		minDelay:  cfg.MinDelay,
		maxDelay:  cfg.MaxDelay,
		rnd:       rnd,
	}, nil
}

// Run starts the http server and blocks until the context is canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting api server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Handler returns the http.Handler with all routes and middleware configured.
// It is also the entry point for the in-process client shim.
func (s *Server) Handler() http.Handler {
	router := routegroup.New(http.NewServeMux())

	// global middleware - applied to all routes
	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("talentflow", "talentflow", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(maxRequestBodySize),
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	router.Mount("/api").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(s.simulate) // artificial latency and random failures

		api.HandleFunc("GET /jobs", s.handleListJobs)
		api.HandleFunc("POST /jobs", s.handleCreateJob)
		api.HandleFunc("GET /jobs/{id}", s.handleGetJob)
		api.HandleFunc("PUT /jobs/{id}", s.handleUpdateJob)
		api.HandleFunc("PATCH /jobs/{id}/reorder", s.handleReorderJob)

		api.HandleFunc("GET /candidates", s.handleListCandidates)
		api.HandleFunc("GET /candidates/kanban", s.handleKanban)
		api.HandleFunc("GET /candidates/{id}", s.handleGetCandidate)
		api.HandleFunc("PATCH /candidates/{id}/stage", s.handleCandidateStage)

		api.HandleFunc("GET /assessments", s.handleListAssessments)
		api.HandleFunc("POST /assessments", s.handleCreateAssessment)
		api.HandleFunc("GET /assessments/{id}/responses", s.handleListResponses)
		api.HandleFunc("POST /assessments/{id}/responses", s.handleCreateResponse)
	})

	return router
}

// simulate injects artificial latency on every request and, with the
// configured probability, short-circuits to a 500 without touching the
// store. The delay applies on both paths, before the response is written.
// Once started a request runs to completion, there is no cancellation.
func (s *Server) simulate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(s.randomDelay())
		if s.shouldFail() {
			s.writeJSONError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// randomDelay picks a delay uniformly in [minDelay, maxDelay)
func (s *Server) randomDelay() time.Duration {
	if s.maxDelay <= s.minDelay {
		return s.minDelay
	}
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.minDelay + time.Duration(s.rnd.Float64()*float64(s.maxDelay-s.minDelay))
}

func (s *Server) shouldFail() bool {
	if s.errorRate <= 0 {
		return false
	}
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.Float64() < s.errorRate
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes the error envelope {message}
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{"message": message}); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}

// Page is the fixed envelope for paginated list responses
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// newPage slices items for the requested page and fills the envelope
func newPage[T any](items []T, page, pageSize int) Page[T] {
	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	data := items[start:end]
	if data == nil {
		data = []T{} // keep JSON as [] instead of null
	}
	return Page[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}
}

// intParam parses a positive integer query parameter, falling back to the
// default on anything missing or invalid. Parameter parsing never fails.
func intParam(q url.Values, name string, def int) int {
	v, err := strconv.Atoi(q.Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
