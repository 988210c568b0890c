// Package web serves the JSON HTTP API.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conorfennell/leitner/internal/catalog"
	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/sourcesync"
	"github.com/conorfennell/leitner/internal/study"
)

// Deps are the services the API is built on.
type Deps struct {
	Store   catalog.Store
	Catalog *catalog.Service
	Study   *study.Controller
	Sync    *sourcesync.Syncer
	Clock   datemath.Clock
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	Deps
	router chi.Router
}

// NewServer creates and configures a new server.
func NewServer(deps Deps) *Server {
	s := &Server{Deps: deps, router: chi.NewRouter()}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/decks", func(r chi.Router) {
			r.Get("/", s.handleListDecks())
			r.Post("/", s.handleCreateDeck())
			r.Route("/{deckID}", func(r chi.Router) {
				r.Get("/", s.handleGetDeck())
				r.Patch("/", s.handleUpdateDeck())
				r.Delete("/", s.handleDeleteDeck())
				r.Get("/cards", s.handleListCards())
				r.Post("/cards", s.handleAddCard())
				r.Get("/export", s.handleExport())
				r.Post("/sessions", s.handleStartSession())
			})
		})

		r.Route("/cards/{cardID}", func(r chi.Router) {
			r.Get("/", s.handleGetCard())
			r.Patch("/", s.handleEditCard())
			r.Delete("/", s.handleDeleteCard())
		})

		r.Post("/import", s.handleImport())

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession())
			r.Delete("/", s.handleAbandonSession())
			r.Post("/reveal", s.handleReveal())
			r.Post("/answer", s.handleAnswer())
		})

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", s.handleListSources())
			r.Post("/", s.handleAddSource())
			r.Delete("/{sourceID}", s.handleDeleteSource())
		})
		r.Post("/sync", s.handleSync())
	})
}

// requestLogger logs one line per request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
