package study

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/domain"
)

// CardStore is the full-collection storage contract the controller relies on.
type CardStore interface {
	LoadAllCards(ctx context.Context) ([]domain.Card, error)
	SaveAllCards(ctx context.Context, cards []domain.Card) error
}

// writeLocker is implemented by stores shared with other writers.
type writeLocker interface {
	WriteLock() sync.Locker
}

// ReviewRecorder keeps a history of answers. It is optional.
type ReviewRecorder interface {
	AppendReview(ctx context.Context, log domain.ReviewLog) error
}

// CardView is the card currently on screen. Back is empty until revealed.
type CardView struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back,omitempty"`
	Level int    `json:"level"`
}

// View is a read-only snapshot of a session for presentation.
type View struct {
	ID       string    `json:"id"`
	DeckID   string    `json:"deckId"`
	State    State     `json:"state"`
	Index    int       `json:"index"`
	Total    int       `json:"total"`
	Progress string    `json:"progress"`
	Card     *CardView `json:"card,omitempty"`
	Stats    Stats     `json:"stats"`
	Summary  *Summary  `json:"summary,omitempty"`
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithReviewRecorder appends a ReviewLog for every answer.
func WithReviewRecorder(r ReviewRecorder) ControllerOption {
	return func(c *Controller) {
		c.reviews = r
	}
}

// WithStrict opens every session in strict transition mode.
func WithStrict(strict bool) ControllerOption {
	return func(c *Controller) {
		c.strict = strict
	}
}

// Controller owns the active sessions and writes answered cards back to the
// store. It never caches cards; each operation re-reads the store.
type Controller struct {
	store   CardStore
	clock   datemath.Clock
	reviews ReviewRecorder
	strict  bool
	writes  sync.Locker

	mu       sync.Mutex
	sessions map[string]*Session
	entropy  *rand.Rand
}

// NewController creates a Controller over store.
func NewController(store CardStore, clock datemath.Clock, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:    store,
		clock:    clock,
		sessions: make(map[string]*Session),
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if l, ok := store.(writeLocker); ok {
		c.writes = l.WriteLock()
	} else {
		c.writes = new(sync.Mutex)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens a session on the cards of deckID that are due now.
func (c *Controller) Start(ctx context.Context, deckID string) (*View, error) {
	now := c.clock.Now()
	cards, err := c.store.LoadAllCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	var opts []Option
	if c.strict {
		opts = append(opts, WithStrictTransitions())
	}
	s, err := Start(deckID, cards, now, opts...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(now), c.entropy).String()
	c.sessions[id] = s
	slog.Info("study session started", "session", id, "deck", deckID, "cards", len(s.cards))
	return c.view(id, s, now), nil
}

// Get returns the current view of a session.
func (c *Controller) Get(id string) (*View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c.view(id, s, c.clock.Now()), nil
}

// Reveal shows the answer of the current card.
func (c *Controller) Reveal(ctx context.Context, id string) (*View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := s.Reveal(); err != nil {
		return nil, err
	}
	return c.view(id, s, c.clock.Now()), nil
}

// Answer records the outcome for the current card, merges the updated card into
// the stored collection and advances. A completed session is released and its
// final view carries the summary.
func (c *Controller) Answer(ctx context.Context, id string, correct bool) (*View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := c.clock.Now()
	updated, err := s.Answer(correct, now, func(card domain.Card) error {
		return c.persist(ctx, card)
	})
	if err != nil {
		return nil, err
	}

	if updated != nil && c.reviews != nil {
		rl := domain.ReviewLog{CardID: updated.ID, Timestamp: now, Correct: correct, Level: updated.Level}
		if err := c.reviews.AppendReview(ctx, rl); err != nil {
			slog.Warn("failed to record review", "card", updated.ID, "error", err)
		}
	}

	v := c.view(id, s, now)
	if s.State() == Completed {
		delete(c.sessions, id)
		slog.Info("study session completed", "session", id, "correct", v.Summary.Correct,
			"incorrect", v.Summary.Incorrect, "elapsed", v.Summary.Elapsed)
	}
	return v, nil
}

// Abandon drops a session. Answers already given stay saved.
func (c *Controller) Abandon(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(c.sessions, id)
	slog.Info("study session abandoned", "session", id)
	return nil
}

// Active is the number of sessions in progress.
func (c *Controller) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// persist reads the whole collection, swaps in the updated card and saves it all.
func (c *Controller) persist(ctx context.Context, updated domain.Card) error {
	c.writes.Lock()
	defer c.writes.Unlock()
	cards, err := c.store.LoadAllCards(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}
	found := false
	for i := range cards {
		if cards[i].ID == updated.ID {
			cards[i] = updated
			found = true
		}
	}
	if !found {
		// Deleted elsewhere while the session was open; don't resurrect it.
		slog.Warn("answered card no longer exists", "card", updated.ID)
		return nil
	}
	if err := c.store.SaveAllCards(ctx, cards); err != nil {
		return fmt.Errorf("failed to save cards: %w", err)
	}
	return nil
}

func (c *Controller) view(id string, s *Session, now time.Time) *View {
	v := &View{
		ID:       id,
		DeckID:   s.DeckID(),
		State:    s.State(),
		Index:    s.currentIndex,
		Total:    s.stats.Total,
		Progress: s.Progress(),
		Stats:    s.stats,
	}
	if card, ok := s.Current(); ok {
		cv := &CardView{ID: card.ID, Front: card.Front, Level: card.Level}
		if s.isFlipped {
			cv.Back = card.Back
		}
		v.Card = cv
	}
	if v.State == Completed {
		sum := s.Summary(now)
		v.Summary = &sum
	}
	return v
}
