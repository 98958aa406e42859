// Package server hosts the engine behind a local HTTP API. It implements no
// storage or retention logic itself; it calls the engine's exported surface
// and serializes archival per identity.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/engram/internal/engine"
)

// Server is the engram HTTP API server.
type Server struct {
	engine            *engine.Engine
	router            chi.Router
	version           string
	started           time.Time
	defaultMaxAgeDays int

	// The engine assumes a single writer per identity; archive runs and
	// writes against the same identity must not interleave.
	mu       sync.Mutex
	identMus map[string]*sync.Mutex
}

// New creates a Server over the given engine. maxAgeDays is the retention
// window applied when an archive request names none.
func New(eng *engine.Engine, version string, maxAgeDays int) *Server {
	s := &Server{
		engine:            eng,
		version:           version,
		started:           time.Now(),
		defaultMaxAgeDays: maxAgeDays,
		identMus:          make(map[string]*sync.Mutex),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// identityLock returns the per-identity mutex, creating it on first use.
func (s *Server) identityLock(ciID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.identMus[ciID]
	if !ok {
		m = &sync.Mutex{}
		s.identMus[ciID] = m
	}
	return m
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/records", s.handleStoreRecord)
		r.Get("/records", s.handleQueryRecords)

		r.Post("/archive", s.handleArchive)
		r.Get("/archive/at-risk", s.handleAtRisk)

		r.Get("/digests", s.handleDigests)
		r.Get("/digests/search", s.handleSearchDigests)
		r.Post("/index/rebuild", s.handleRebuildIndex)
	})

	s.router = r
}
