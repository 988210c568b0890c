package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/leitner/internal/catalog"
	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/exchange"
)

type deckRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type cardRequest struct {
	Front *string `json:"front"`
	Back  *string `json:"back"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// handleListDecks returns every deck with card and due counts.
func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decks, err := s.Catalog.ListDecks(r.Context())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, decks)
	}
}

func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deckRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		deck, err := s.Catalog.CreateDeck(r.Context(), deref(req.Name), deref(req.Description))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, deck)
	}
}

func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.Catalog.Deck(r.Context(), chi.URLParam(r, "deckID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, deck)
	}
}

func (s *Server) handleUpdateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deckRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		deck, err := s.Catalog.UpdateDeck(r.Context(), chi.URLParam(r, "deckID"),
			catalog.DeckUpdate{Name: req.Name, Description: req.Description})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, deck)
	}
}

// handleDeleteDeck removes the deck and all of its cards.
func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Catalog.DeleteDeck(r.Context(), chi.URLParam(r, "deckID")); err != nil {
			respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleListCards supports ?q= for text search and ?level=all|due|1|2|3.
func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := chi.URLParam(r, "deckID")
		if _, err := s.Catalog.Deck(r.Context(), deckID); err != nil {
			respondErr(w, r, err)
			return
		}
		q := r.URL.Query()
		cards, err := s.Catalog.ListCards(r.Context(), deckID, q.Get("q"), q.Get("level"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if cards == nil {
			cards = []domain.Card{}
		}
		respondJSON(w, http.StatusOK, cards)
	}
}

func (s *Server) handleAddCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cardRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		card, err := s.Catalog.AddCard(r.Context(), chi.URLParam(r, "deckID"), deref(req.Front), deref(req.Back))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, card)
	}
}

func (s *Server) handleGetCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := s.Catalog.Card(r.Context(), chi.URLParam(r, "cardID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, card)
	}
}

// handleEditCard changes front and/or back. Review progress is untouched.
func (s *Server) handleEditCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cardRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		card, err := s.Catalog.EditCard(r.Context(), chi.URLParam(r, "cardID"),
			catalog.CardUpdate{Front: req.Front, Back: req.Back})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Catalog.DeleteCard(r.Context(), chi.URLParam(r, "cardID")); err != nil {
			respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleExport downloads a deck in the exchange format.
func (s *Server) handleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := exchange.ExportFrom(r.Context(), s.Store, chi.URLParam(r, "deckID"), s.Clock.Now())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exchange.Filename(doc)))
		if err := exchange.Encode(w, doc); err != nil {
			respondErr(w, r, err)
		}
	}
}

func (s *Server) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		doc, err := exchange.Decode(r.Body)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		res, err := exchange.ImportInto(r.Context(), s.Store, *doc, s.Clock.Now())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, res.Deck)
	}
}
