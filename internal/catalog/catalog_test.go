package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/domain"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func ptr(s string) *string { return &s }

func TestNewCard(t *testing.T) {
	card := NewCard("deck1", "  Question  ", "  Answer  ", t0)

	assert.NotEmpty(t, card.ID)
	assert.Equal(t, "deck1", card.DeckID)
	assert.Equal(t, "Question", card.Front)
	assert.Equal(t, "Answer", card.Back)
	assert.Equal(t, 1, card.Level)
	assert.Zero(t, card.CorrectCount)
	assert.Nil(t, card.LastReviewed)
	assert.Equal(t, t0, card.NextReview)
	assert.Equal(t, t0, card.Created)
	assert.NotEqual(t, card.ID, NewCard("deck1", "q", "a", t0).ID)
}

func TestValidateCard(t *testing.T) {
	testCases := []struct {
		name  string
		front string
		back  string
		want  error
	}{
		{"empty front", "", "Answer", ErrEmptyFront},
		{"empty back", "Question", "", ErrEmptyBack},
		{"whitespace front", "   ", "Answer", ErrEmptyFront},
		{"whitespace back", "Question", "   ", ErrEmptyBack},
		{"valid", "Question", "Answer", nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidateCard(tc.front, tc.back))
		})
	}
}

func TestUpdateCardPreservesSchedule(t *testing.T) {
	reviewed := t0.Add(-time.Hour)
	card := domain.Card{
		ID: "c1", DeckID: "d1", Front: "Original Front", Back: "Original Back",
		Level: 3, CorrectCount: 7, LastReviewed: &reviewed, NextReview: datemath.AddDays(t0, 7), Created: t0,
	}

	updated := UpdateCard(card, CardUpdate{Front: ptr("  Updated Front ")})

	assert.Equal(t, "Updated Front", updated.Front)
	assert.Equal(t, "Original Back", updated.Back)
	assert.Equal(t, card.ID, updated.ID)
	assert.Equal(t, card.Created, updated.Created)
	assert.Equal(t, card.Level, updated.Level)
	assert.Equal(t, card.CorrectCount, updated.CorrectCount)
	assert.Equal(t, card.LastReviewed, updated.LastReviewed)
	assert.Equal(t, card.NextReview, updated.NextReview)
}

func TestDeleteCards(t *testing.T) {
	cards := []domain.Card{
		NewCard("deck1", "Q1", "A1", t0),
		NewCard("deck1", "Q2", "A2", t0),
		NewCard("deck2", "Q3", "A3", t0),
		NewCard("deck2", "Q4", "A4", t0),
	}

	after := DeleteCard(cards[1].ID, cards)
	assert.Len(t, after, 3)
	_, found := FindCard(cards[1].ID, after)
	assert.False(t, found)
	assert.Len(t, cards, 4, "input is not modified")

	remaining := DeleteCardsByDeck("deck1", cards)
	require.Len(t, remaining, 2)
	for _, c := range remaining {
		assert.Equal(t, "deck2", c.DeckID)
	}

	assert.Len(t, CardsByDeck("deck2", cards), 2)
}

func TestSearch(t *testing.T) {
	cards := []domain.Card{
		NewCard("deck1", "Hello World", "안녕하세요", t0),
		NewCard("deck1", "Goodbye", "안녕히 가세요", t0),
		NewCard("deck1", "Thank you", "감사합니다", t0),
	}

	assert.Len(t, Search(cards, "hello"), 1)
	assert.Len(t, Search(cards, "안녕"), 2)
	assert.Len(t, Search(cards, "xyz"), 0)
	assert.Len(t, Search(cards, "  "), 3)
}

func TestFilterByLevel(t *testing.T) {
	cards := []domain.Card{
		NewCard("deck1", "Q1", "A1", t0),
		NewCard("deck1", "Q2", "A2", t0),
		NewCard("deck1", "Q3", "A3", t0),
	}
	cards[1].Level = 2
	cards[2].Level = 3
	cards[2].NextReview = datemath.AddDays(t0, 7)

	assert.Len(t, FilterByLevel(cards, "1", t0), 1)
	assert.Len(t, FilterByLevel(cards, "2", t0), 1)
	assert.Len(t, FilterByLevel(cards, "all", t0), 3)
	assert.Len(t, FilterByLevel(cards, "", t0), 3)
	assert.Len(t, FilterByLevel(cards, "due", t0), 2)
	assert.Empty(t, FilterByLevel(cards, "bogus", t0))
}

func TestValidateDeckName(t *testing.T) {
	decks := []domain.Deck{NewDeck("Existing Deck", "", t0)}

	assert.Equal(t, ErrEmptyDeckName, ValidateDeckName("", decks, ""))
	assert.Equal(t, ErrEmptyDeckName, ValidateDeckName("   ", decks, ""))
	assert.Equal(t, ErrDuplicateDeckName, ValidateDeckName("existing deck", decks, ""))
	assert.NoError(t, ValidateDeckName("Existing Deck", decks, decks[0].ID))
	assert.NoError(t, ValidateDeckName("  New Deck  ", decks, ""))
}

func TestDeckHelpers(t *testing.T) {
	deck := NewDeck("  Spaced  ", "  Desc  ", t0)
	assert.Equal(t, "Spaced", deck.Name)
	assert.Equal(t, "Desc", deck.Description)
	assert.Zero(t, deck.CardCount)

	deck.CardCount = 4
	updated := UpdateDeck(deck, DeckUpdate{Name: ptr("Updated"), Description: ptr("")})
	assert.Equal(t, deck.ID, updated.ID)
	assert.Equal(t, deck.Created, updated.Created)
	assert.Equal(t, 4, updated.CardCount)
	assert.Equal(t, "Updated", updated.Name)
	assert.Empty(t, updated.Description)

	assert.Equal(t, "Updated", UpdateDeck(updated, DeckUpdate{Name: ptr("  ")}).Name)

	decks := []domain.Deck{deck, NewDeck("Other", "", t0)}
	assert.Len(t, DeleteDeck(deck.ID, decks), 1)

	counted := WithCounts(decks, []domain.Card{NewCard(deck.ID, "q", "a", t0), NewCard(deck.ID, "q", "a", t0)})
	assert.Equal(t, 2, counted[0].CardCount)
	assert.Equal(t, 0, counted[1].CardCount)
}

func TestUniqueDeckName(t *testing.T) {
	decks := []domain.Deck{{Name: "Spanish"}, {Name: "Spanish (2)"}}
	assert.Equal(t, "French", UniqueDeckName("French", decks))
	assert.Equal(t, "Spanish (3)", UniqueDeckName("Spanish", decks))
	assert.Equal(t, "spanish (3)", UniqueDeckName("spanish", decks))
}
