package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type answerRequest struct {
	Correct *bool `json:"correct"`
}

// handleStartSession opens a study session on the deck's due cards.
// A deck with nothing due answers 409.
func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		if _, err := s.Catalog.Deck(r.Context(), deckID); err != nil {
			respondErr(w, r, err)
			return
		}
		view, err := s.Study.Start(r.Context(), deckID)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, view)
	}
}

func (s *Server) handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.Study.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleReveal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.Study.Reveal(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, view)
	}
}

// handleAnswer takes {"correct": true|false}. The response of the final
// answer carries the session summary; the session is gone afterwards.
func (s *Server) handleAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Correct == nil {
			respondError(w, http.StatusBadRequest, "missing field: correct")
			return
		}
		view, err := s.Study.Answer(r.Context(), chi.URLParam(r, "sessionID"), *req.Correct)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleAbandonSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Study.Abandon(chi.URLParam(r, "sessionID")); err != nil {
			respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
