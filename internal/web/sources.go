package web

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/leitner/internal/sourcesync"
	"github.com/conorfennell/leitner/internal/storage"
)

type sourceRequest struct {
	Path string `json:"path"`
	Deck string `json:"deck"`
}

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.Sync.Sources(r.Context())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if sources == nil {
			sources = []storage.Source{}
		}
		respondJSON(w, http.StatusOK, sources)
	}
}

// handleAddSource registers a directory or git URL and binds it to a deck,
// creating the deck when needed.
func (s *Server) handleAddSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sourceRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Path == "" {
			respondError(w, http.StatusBadRequest, "path cannot be empty")
			return
		}
		src, err := s.Sync.AddSource(r.Context(), req.Path, req.Deck)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, src)
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "sourceID"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid source ID")
			return
		}
		if err := s.Sync.RemoveSource(r.Context(), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondError(w, http.StatusNotFound, "source not found")
				return
			}
			respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleSync runs a sync of every source in the foreground and returns the
// per-source reports.
func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := s.Sync.SyncAll(r.Context())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if reports == nil {
			reports = []sourcesync.Report{}
		}
		respondJSON(w, http.StatusOK, reports)
	}
}
