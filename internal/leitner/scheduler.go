// Package leitner implements the three-box Leitner schedule: level transitions
// after an answer and selection of the cards that are due.
package leitner

import (
	"time"

	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/domain"
)

// intervals maps a level to the number of days until its next review.
var intervals = map[int]int{
	1: 1,
	2: 3,
	3: 7,
}

// Interval returns the review interval in days for level.
// Unknown levels fall back to the level 1 interval.
func Interval(level int) int {
	if days, ok := intervals[level]; ok {
		return days
	}
	return intervals[domain.MinLevel]
}

// RecordCorrect promotes the card one level, saturating at MaxLevel, and
// schedules it by the interval of the new level.
func RecordCorrect(card domain.Card, now time.Time) domain.Card {
	next := card
	next.Level = min(card.Level+1, domain.MaxLevel)
	next.CorrectCount = card.CorrectCount + 1
	next.LastReviewed = timePtr(now)
	next.NextReview = datemath.AddDays(now, Interval(next.Level))
	return next
}

// RecordIncorrect sends the card back to level 1 whatever its current level.
// CorrectCount is left as is.
func RecordIncorrect(card domain.Card, now time.Time) domain.Card {
	next := card
	next.Level = domain.MinLevel
	next.LastReviewed = timePtr(now)
	next.NextReview = datemath.AddDays(now, Interval(domain.MinLevel))
	return next
}

// Record applies RecordCorrect or RecordIncorrect depending on the answer.
func Record(card domain.Card, correct bool, now time.Time) domain.Card {
	if correct {
		return RecordCorrect(card, now)
	}
	return RecordIncorrect(card, now)
}

// LevelLabel is the human name of a level.
func LevelLabel(level int) string {
	switch level {
	case 1:
		return "Learning"
	case 2:
		return "Review"
	case 3:
		return "Mastered"
	default:
		return ""
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
