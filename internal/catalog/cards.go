package catalog

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/leitner"
)

// NewCard creates a level 1 card that is due immediately.
func NewCard(deckID, front, back string, now time.Time) domain.Card {
	return domain.Card{
		ID:         uuid.NewString(),
		DeckID:     deckID,
		Front:      strings.TrimSpace(front),
		Back:       strings.TrimSpace(back),
		Level:      domain.MinLevel,
		NextReview: now,
		Created:    now,
	}
}

// ValidateCard checks that both sides have text after trimming.
func ValidateCard(front, back string) error {
	if strings.TrimSpace(front) == "" {
		return ErrEmptyFront
	}
	if strings.TrimSpace(back) == "" {
		return ErrEmptyBack
	}
	return nil
}

// CardUpdate holds optional new text for a card.
type CardUpdate struct {
	Front *string
	Back  *string
}

// UpdateCard changes only the text of a card. ID, deck, level, counts and
// review dates stay as they are.
func UpdateCard(card domain.Card, u CardUpdate) domain.Card {
	if u.Front != nil {
		card.Front = strings.TrimSpace(*u.Front)
	}
	if u.Back != nil {
		card.Back = strings.TrimSpace(*u.Back)
	}
	return card
}

// FindCard returns the card with id from cards.
func FindCard(id string, cards []domain.Card) (domain.Card, bool) {
	i := slices.IndexFunc(cards, func(c domain.Card) bool { return c.ID == id })
	if i < 0 {
		return domain.Card{}, false
	}
	return cards[i], true
}

// ReplaceCard swaps the card with the same ID in cards.
func ReplaceCard(updated domain.Card, cards []domain.Card) []domain.Card {
	out := slices.Clone(cards)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = updated
		}
	}
	return out
}

// DeleteCard returns cards without id.
func DeleteCard(id string, cards []domain.Card) []domain.Card {
	return slices.DeleteFunc(slices.Clone(cards), func(c domain.Card) bool { return c.ID == id })
}

// DeleteCardsByDeck returns cards that do not belong to deckID.
func DeleteCardsByDeck(deckID string, cards []domain.Card) []domain.Card {
	return slices.DeleteFunc(slices.Clone(cards), func(c domain.Card) bool { return c.DeckID == deckID })
}

// CardsByDeck returns the cards of deckID in their stored order.
func CardsByDeck(deckID string, cards []domain.Card) []domain.Card {
	var out []domain.Card
	for _, c := range cards {
		if c.DeckID == deckID {
			out = append(out, c)
		}
	}
	return out
}

// Search keeps cards whose front or back contains query, ignoring case.
// A blank query matches everything.
func Search(cards []domain.Card, query string) []domain.Card {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return cards
	}
	var out []domain.Card
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.Front), q) || strings.Contains(strings.ToLower(c.Back), q) {
			out = append(out, c)
		}
	}
	return out
}

// FilterByLevel keeps cards matching filter: "" or "all" for everything,
// "due" for cards due at now, or a level number.
func FilterByLevel(cards []domain.Card, filter string, now time.Time) []domain.Card {
	switch filter {
	case "", "all":
		return cards
	case "due":
		var out []domain.Card
		for _, c := range cards {
			if leitner.IsDue(c, now) {
				out = append(out, c)
			}
		}
		return out
	}

	level, err := strconv.Atoi(filter)
	if err != nil {
		return nil
	}
	var out []domain.Card
	for _, c := range cards {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out
}
