// Package study drives a review session over a fixed set of due cards.
package study

import (
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/leitner"
)

// State is the position of a session in its lifecycle.
type State int

const (
	NotStarted State = iota
	Showing          // front of the current card visible
	Revealed         // answer visible, waiting for correct/incorrect
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Showing:
		return "showing"
	case Revealed:
		return "revealed"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{NotStarted, Showing, Revealed, Completed} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// Stats counts the answers given so far. Total is fixed when the session starts.
type Stats struct {
	Correct   int       `json:"correct"`
	Incorrect int       `json:"incorrect"`
	Total     int       `json:"total"`
	StartTime time.Time `json:"startTime"`
}

// Summary is what a session reports once it is over.
type Summary struct {
	Correct    int           `json:"correct"`
	Incorrect  int           `json:"incorrect"`
	Total      int           `json:"total"`
	Elapsed    time.Duration `json:"elapsed"`
	Percentage int           `json:"percentage"`
}

// SaveFunc persists a card updated by an answer. If it fails the session
// does not advance.
type SaveFunc func(updated domain.Card) error

// Option configures a Session.
type Option func(*Session)

// WithStrictTransitions makes invalid operations return ErrInvalidTransition
// instead of being ignored.
func WithStrictTransitions() Option {
	return func(s *Session) {
		s.strict = true
	}
}

// Session walks through a snapshot of due cards: show, reveal, answer, advance.
// The card list is fixed at Start; cards that become due later are not added.
type Session struct {
	deckID       string
	cards        []domain.Card
	currentIndex int
	isFlipped    bool
	stats        Stats
	strict       bool
}

// Start selects the due cards of deckID from cards and opens a session on them.
func Start(deckID string, cards []domain.Card, now time.Time, opts ...Option) (*Session, error) {
	due := leitner.SelectDue(deckID, cards, now)
	if len(due) == 0 {
		return nil, ErrEmptyDueSet
	}

	s := &Session{
		deckID: deckID,
		cards:  due,
		stats: Stats{
			Total:     len(due),
			StartTime: now,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DeckID is the deck under review.
func (s *Session) DeckID() string { return s.deckID }

// Cards returns a copy of the session's card snapshot.
func (s *Session) Cards() []domain.Card {
	return append([]domain.Card(nil), s.cards...)
}

// CurrentIndex is the zero-based position of the card being shown.
func (s *Session) CurrentIndex() int { return s.currentIndex }

// IsFlipped reports whether the answer side is visible.
func (s *Session) IsFlipped() bool { return s.isFlipped }

// Stats returns the running answer counts.
func (s *Session) Stats() Stats { return s.stats }

// State reports where the session is in its lifecycle.
func (s *Session) State() State {
	switch {
	case s == nil || len(s.cards) == 0:
		return NotStarted
	case s.currentIndex >= len(s.cards):
		return Completed
	case s.isFlipped:
		return Revealed
	default:
		return Showing
	}
}

// Current returns the card being shown, or false once the session is completed.
func (s *Session) Current() (domain.Card, bool) {
	if s.State() != Showing && s.State() != Revealed {
		return domain.Card{}, false
	}
	return s.cards[s.currentIndex], true
}

// Progress renders the position as "n of total".
func (s *Session) Progress() string {
	return fmt.Sprintf("%d of %d cards", min(s.currentIndex+1, s.stats.Total), s.stats.Total)
}

// Reveal shows the answer side of the current card. Revealing twice is a no-op.
func (s *Session) Reveal() error {
	switch s.State() {
	case Showing:
		s.isFlipped = true
		return nil
	case Revealed:
		return nil
	default:
		return s.invalid("reveal")
	}
}

// Answer records the outcome for the current card, which must be revealed.
// The updated card is handed to save (when non-nil) before the session moves
// on, so a failed save leaves the session exactly as it was. A call that does
// not apply returns a nil card, and ErrInvalidTransition in strict mode.
func (s *Session) Answer(correct bool, now time.Time, save SaveFunc) (*domain.Card, error) {
	if s.State() != Revealed {
		return nil, s.invalid("answer")
	}

	updated := leitner.Record(s.cards[s.currentIndex], correct, now)
	if save != nil {
		if err := save(updated); err != nil {
			return nil, err
		}
	}

	if correct {
		s.stats.Correct++
	} else {
		s.stats.Incorrect++
	}
	s.currentIndex++
	s.isFlipped = false
	return &updated, nil
}

// Summary reports the final counts and the time spent since Start.
func (s *Session) Summary(now time.Time) Summary {
	pct := 0
	if s.stats.Total > 0 {
		pct = int(math.Round(float64(s.stats.Correct) / float64(s.stats.Total) * 100))
	}
	return Summary{
		Correct:    s.stats.Correct,
		Incorrect:  s.stats.Incorrect,
		Total:      s.stats.Total,
		Elapsed:    now.Sub(s.stats.StartTime),
		Percentage: pct,
	}
}

func (s *Session) invalid(op string) error {
	if !s.strict {
		return nil
	}
	return fmt.Errorf("%s while %s: %w", op, s.State(), ErrInvalidTransition)
}
