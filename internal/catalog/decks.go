// Package catalog manages decks and cards: creation, validation, edits,
// deletion, search and filtering. Scheduling fields are never touched here.
package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/leitner/internal/domain"
)

// NewDeck builds a deck with trimmed fields and a fresh ID.
func NewDeck(name, description string, now time.Time) domain.Deck {
	return domain.Deck{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Created:     now,
	}
}

// ValidateDeckName rejects empty names and names already used by another deck,
// compared case-insensitively. excludeID lets a deck keep its own name on rename.
func ValidateDeckName(name string, existing []domain.Deck, excludeID string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyDeckName
	}
	for _, d := range existing {
		if d.ID != excludeID && strings.EqualFold(d.Name, trimmed) {
			return ErrDuplicateDeckName
		}
	}
	return nil
}

// FindDeck returns the deck with id from decks.
func FindDeck(id string, decks []domain.Deck) (domain.Deck, bool) {
	for _, d := range decks {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Deck{}, false
}

// DeckUpdate holds optional new values for a deck.
type DeckUpdate struct {
	Name        *string
	Description *string
}

// UpdateDeck applies u to deck, keeping ID, Created and CardCount.
// An empty name leaves the old one in place.
func UpdateDeck(deck domain.Deck, u DeckUpdate) domain.Deck {
	if u.Name != nil {
		if name := strings.TrimSpace(*u.Name); name != "" {
			deck.Name = name
		}
	}
	if u.Description != nil {
		deck.Description = strings.TrimSpace(*u.Description)
	}
	return deck
}

// DeleteDeck returns decks without id.
func DeleteDeck(id string, decks []domain.Deck) []domain.Deck {
	out := make([]domain.Deck, 0, len(decks))
	for _, d := range decks {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}

// WithCounts sets CardCount on every deck from cards.
func WithCounts(decks []domain.Deck, cards []domain.Card) []domain.Deck {
	counts := make(map[string]int)
	for _, c := range cards {
		counts[c.DeckID]++
	}
	out := make([]domain.Deck, len(decks))
	for i, d := range decks {
		d.CardCount = counts[d.ID]
		out[i] = d
	}
	return out
}

// UniqueDeckName returns name, or "name (2)", "name (3)"... if it is taken,
// ignoring case.
func UniqueDeckName(name string, decks []domain.Deck) string {
	taken := make(map[string]bool, len(decks))
	for _, d := range decks {
		taken[strings.ToLower(d.Name)] = true
	}
	candidate := name
	for n := 2; taken[strings.ToLower(candidate)]; n++ {
		candidate = name + " (" + strconv.Itoa(n) + ")"
	}
	return candidate
}
