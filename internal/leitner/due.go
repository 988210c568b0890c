package leitner

import (
	"slices"
	"time"

	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/domain"
)

// IsDue reports whether card should be reviewed on now's calendar day.
// Both instants are compared at day granularity in now's location, so a card
// scheduled for any time today is due and one scheduled for tomorrow is not.
func IsDue(card domain.Card, now time.Time) bool {
	if card.NextReview.IsZero() {
		return true
	}
	review := datemath.NormalizeToDay(card.NextReview.In(now.Location()))
	return !review.After(datemath.NormalizeToDay(now))
}

// SelectDue returns the due cards of deckID ordered by ascending level.
// Cards of equal level keep their input order.
func SelectDue(deckID string, cards []domain.Card, now time.Time) []domain.Card {
	var due []domain.Card
	for _, c := range cards {
		if c.DeckID == deckID && IsDue(c, now) {
			due = append(due, c)
		}
	}
	slices.SortStableFunc(due, func(a, b domain.Card) int {
		return a.Level - b.Level
	})
	return due
}

// CountDue is the number of cards SelectDue would return.
func CountDue(deckID string, cards []domain.Card, now time.Time) int {
	return len(SelectDue(deckID, cards, now))
}
