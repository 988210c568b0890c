package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/leitner"
)

// Store is the full-collection persistence the catalog works against.
type Store interface {
	LoadDecks(ctx context.Context) ([]domain.Deck, error)
	SaveDecks(ctx context.Context, decks []domain.Deck) error
	LoadAllCards(ctx context.Context) ([]domain.Card, error)
	SaveAllCards(ctx context.Context, cards []domain.Card) error
}

// Locker is implemented by stores that hand out one write lock to every
// service working on the same collection.
type Locker interface {
	WriteLock() sync.Locker
}

// WriteLock returns the lock store shares across services, or a private one
// when the store has none.
func WriteLock(store any) sync.Locker {
	if l, ok := store.(Locker); ok {
		return l.WriteLock()
	}
	return new(sync.Mutex)
}

// DeckSummary is a deck with its number of due cards.
type DeckSummary struct {
	domain.Deck
	DueCount int `json:"dueCount"`
}

// Service applies catalog operations to a Store.
type Service struct {
	store    Store
	clock    datemath.Clock
	validate *validator.Validate
	writes   sync.Locker
}

// NewService creates a Service.
func NewService(store Store, clock datemath.Clock) *Service {
	return &Service{
		store:    store,
		clock:    clock,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		writes:   WriteLock(store),
	}
}

// ListDecks returns all decks with card and due counts.
func (s *Service) ListDecks(ctx context.Context) ([]DeckSummary, error) {
	decks, cards, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]DeckSummary, 0, len(decks))
	for _, d := range WithCounts(decks, cards) {
		out = append(out, DeckSummary{Deck: d, DueCount: leitner.CountDue(d.ID, cards, now)})
	}
	return out, nil
}

// Deck returns one deck with its counts.
func (s *Service) Deck(ctx context.Context, id string) (DeckSummary, error) {
	decks, err := s.ListDecks(ctx)
	if err != nil {
		return DeckSummary{}, err
	}
	for _, d := range decks {
		if d.ID == id {
			return d, nil
		}
	}
	return DeckSummary{}, ErrDeckNotFound
}

// ResolveDeck finds a deck by ID or, failing that, by case-insensitive name.
func (s *Service) ResolveDeck(ctx context.Context, ref string) (DeckSummary, error) {
	decks, err := s.ListDecks(ctx)
	if err != nil {
		return DeckSummary{}, err
	}
	for _, d := range decks {
		if d.ID == ref {
			return d, nil
		}
	}
	for _, d := range decks {
		if strings.EqualFold(d.Name, strings.TrimSpace(ref)) {
			return d, nil
		}
	}
	return DeckSummary{}, ErrDeckNotFound
}

// CreateDeck validates and stores a new deck.
func (s *Service) CreateDeck(ctx context.Context, name, description string) (domain.Deck, error) {
	s.writes.Lock()
	defer s.writes.Unlock()
	decks, err := s.store.LoadDecks(ctx)
	if err != nil {
		return domain.Deck{}, err
	}
	if err := ValidateDeckName(name, decks, ""); err != nil {
		return domain.Deck{}, err
	}
	deck := NewDeck(name, description, s.clock.Now())
	if err := s.validate.Struct(deck); err != nil {
		return domain.Deck{}, fmt.Errorf("invalid deck: %w", err)
	}
	if err := s.store.SaveDecks(ctx, append(decks, deck)); err != nil {
		return domain.Deck{}, err
	}
	slog.Info("deck created", "deck", deck.ID, "name", deck.Name)
	return deck, nil
}

// UpdateDeck renames a deck or changes its description.
func (s *Service) UpdateDeck(ctx context.Context, id string, u DeckUpdate) (domain.Deck, error) {
	s.writes.Lock()
	defer s.writes.Unlock()
	decks, err := s.store.LoadDecks(ctx)
	if err != nil {
		return domain.Deck{}, err
	}
	deck, ok := FindDeck(id, decks)
	if !ok {
		return domain.Deck{}, ErrDeckNotFound
	}
	if u.Name != nil {
		if err := ValidateDeckName(*u.Name, decks, id); err != nil {
			return domain.Deck{}, err
		}
	}
	updated := UpdateDeck(deck, u)
	for i := range decks {
		if decks[i].ID == id {
			decks[i] = updated
		}
	}
	if err := s.store.SaveDecks(ctx, decks); err != nil {
		return domain.Deck{}, err
	}
	return updated, nil
}

// DeleteDeck removes a deck and every card in it.
func (s *Service) DeleteDeck(ctx context.Context, id string) error {
	s.writes.Lock()
	defer s.writes.Unlock()
	decks, cards, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := FindDeck(id, decks); !ok {
		return ErrDeckNotFound
	}
	remaining := DeleteCardsByDeck(id, cards)
	if err := s.store.SaveAllCards(ctx, remaining); err != nil {
		return err
	}
	if err := s.store.SaveDecks(ctx, DeleteDeck(id, decks)); err != nil {
		return err
	}
	slog.Info("deck deleted", "deck", id, "cards", len(cards)-len(remaining))
	return nil
}

// ListCards returns the cards of a deck matching query and the level filter.
func (s *Service) ListCards(ctx context.Context, deckID, query, level string) ([]domain.Card, error) {
	cards, err := s.store.LoadAllCards(ctx)
	if err != nil {
		return nil, err
	}
	out := CardsByDeck(deckID, cards)
	out = Search(out, query)
	return FilterByLevel(out, level, s.clock.Now()), nil
}

// Card returns one card.
func (s *Service) Card(ctx context.Context, id string) (domain.Card, error) {
	cards, err := s.store.LoadAllCards(ctx)
	if err != nil {
		return domain.Card{}, err
	}
	c, ok := FindCard(id, cards)
	if !ok {
		return domain.Card{}, ErrCardNotFound
	}
	return c, nil
}

// AddCard creates a new card in deckID.
func (s *Service) AddCard(ctx context.Context, deckID, front, back string) (domain.Card, error) {
	s.writes.Lock()
	defer s.writes.Unlock()
	decks, cards, err := s.load(ctx)
	if err != nil {
		return domain.Card{}, err
	}
	if _, ok := FindDeck(deckID, decks); !ok {
		return domain.Card{}, ErrDeckNotFound
	}
	if err := ValidateCard(front, back); err != nil {
		return domain.Card{}, err
	}
	card := NewCard(deckID, front, back, s.clock.Now())
	if err := s.validate.Struct(card); err != nil {
		return domain.Card{}, fmt.Errorf("invalid card: %w", err)
	}
	if err := s.store.SaveAllCards(ctx, append(cards, card)); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// EditCard changes the text of a card.
func (s *Service) EditCard(ctx context.Context, id string, u CardUpdate) (domain.Card, error) {
	s.writes.Lock()
	defer s.writes.Unlock()
	cards, err := s.store.LoadAllCards(ctx)
	if err != nil {
		return domain.Card{}, err
	}
	card, ok := FindCard(id, cards)
	if !ok {
		return domain.Card{}, ErrCardNotFound
	}
	updated := UpdateCard(card, u)
	if err := ValidateCard(updated.Front, updated.Back); err != nil {
		return domain.Card{}, err
	}
	if err := s.validate.Struct(updated); err != nil {
		return domain.Card{}, fmt.Errorf("invalid card: %w", err)
	}
	if err := s.store.SaveAllCards(ctx, ReplaceCard(updated, cards)); err != nil {
		return domain.Card{}, err
	}
	return updated, nil
}

// DeleteCard removes one card.
func (s *Service) DeleteCard(ctx context.Context, id string) error {
	s.writes.Lock()
	defer s.writes.Unlock()
	cards, err := s.store.LoadAllCards(ctx)
	if err != nil {
		return err
	}
	if _, ok := FindCard(id, cards); !ok {
		return ErrCardNotFound
	}
	return s.store.SaveAllCards(ctx, DeleteCard(id, cards))
}

func (s *Service) load(ctx context.Context) ([]domain.Deck, []domain.Card, error) {
	decks, err := s.store.LoadDecks(ctx)
	if err != nil {
		return nil, nil, err
	}
	cards, err := s.store.LoadAllCards(ctx)
	if err != nil {
		return nil, nil, err
	}
	return decks, cards, nil
}
