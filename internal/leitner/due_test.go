package leitner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/domain"
)

func TestIsDue(t *testing.T) {
	endOfDay := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)

	testCases := []struct {
		name       string
		nextReview time.Time
		now        time.Time
		want       bool
	}{
		{name: "never scheduled", nextReview: time.Time{}, now: t0, want: true},
		{name: "yesterday", nextReview: datemath.AddDays(t0, -1), now: t0, want: true},
		{name: "today earlier", nextReview: t0.Add(-time.Hour), now: t0, want: true},
		{name: "today later", nextReview: t0.Add(5 * time.Hour), now: t0, want: true},
		{name: "tomorrow", nextReview: datemath.AddDays(t0, 1), now: t0, want: false},
		{name: "tomorrow one second before midnight", nextReview: endOfDay.Add(2 * time.Second), now: endOfDay, want: false},
		{name: "in five days", nextReview: datemath.AddDays(t0, 5), now: t0, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			card := domain.Card{NextReview: tc.nextReview}
			assert.Equal(t, tc.want, IsDue(card, tc.now))
		})
	}
}

func TestIsDueComparesInNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 2025-06-15 20:00 UTC is already 2025-06-16 05:00 at UTC+9.
	card := domain.Card{NextReview: time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC)}
	now := time.Date(2025, 6, 15, 23, 0, 0, 0, loc)

	assert.False(t, IsDue(card, now))
	assert.True(t, IsDue(card, datemath.AddDays(now, 1)))
}

func TestSelectDue(t *testing.T) {
	yesterday := datemath.AddDays(t0, -1)
	cards := []domain.Card{
		{ID: "1", DeckID: "deck-1", Level: 3, NextReview: yesterday},
		{ID: "2", DeckID: "deck-1", Level: 1, NextReview: yesterday},
		{ID: "3", DeckID: "deck-1", Level: 2, NextReview: yesterday},
		{ID: "4", DeckID: "other", Level: 1, NextReview: yesterday},
		{ID: "5", DeckID: "deck-1", Level: 1, NextReview: datemath.AddDays(t0, 5)},
		{ID: "6", DeckID: "deck-1", Level: 1, NextReview: t0},
		{ID: "7", DeckID: "deck-1", Level: 2},
	}

	due := SelectDue("deck-1", cards, t0)

	var ids []string
	for _, c := range due {
		ids = append(ids, c.ID)
		assert.Equal(t, "deck-1", c.DeckID)
	}
	assert.Equal(t, []string{"2", "6", "3", "7", "1"}, ids)
	assert.Equal(t, 5, CountDue("deck-1", cards, t0))
}

func TestSelectDueEmpty(t *testing.T) {
	assert.Empty(t, SelectDue("deck-1", nil, t0))
	assert.Zero(t, CountDue("missing", []domain.Card{{ID: "1", DeckID: "deck-1"}}, t0))
}

func TestSelectDueDoesNotReorderInput(t *testing.T) {
	cards := []domain.Card{
		{ID: "a", DeckID: "d", Level: 2},
		{ID: "b", DeckID: "d", Level: 1},
	}
	_ = SelectDue("d", cards, t0)
	assert.Equal(t, "a", cards[0].ID)
}
