// Package exchange reads and writes the JSON deck export format:
//
//	{"version": "1.0", "exportDate": "...", "deck": {...}, "cards": [...]}
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/leitner/internal/catalog"
	"github.com/conorfennell/leitner/internal/domain"
)

// Version is written into every export.
const Version = "1.0"

// ErrInvalidFormat is returned for documents without a deck or a cards array.
var ErrInvalidFormat = errors.New("invalid import format")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Document is one exported deck with its cards.
type Document struct {
	Version    string        `json:"version"`
	ExportDate time.Time     `json:"exportDate"`
	Deck       domain.Deck   `json:"deck"`
	Cards      []domain.Card `json:"cards"`
}

// Export builds the document for deck from the cards that belong to it.
func Export(deck domain.Deck, cards []domain.Card, now time.Time) Document {
	deckCards := catalog.CardsByDeck(deck.ID, cards)
	if deckCards == nil {
		deckCards = []domain.Card{}
	}
	deck.CardCount = len(deckCards)
	return Document{
		Version:    Version,
		ExportDate: now,
		Deck:       deck,
		Cards:      deckCards,
	}
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// Filename is the suggested file name for doc, e.g. "spanish-verbs-2025-06-15.json".
func Filename(doc Document) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(doc.Deck.Name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "deck"
	}
	return slug + "-" + doc.ExportDate.Format("2006-01-02") + ".json"
}

// Decode reads a document, requiring a deck object and a cards array.
func Decode(r io.Reader) (*Document, error) {
	var raw struct {
		Version    string         `json:"version"`
		ExportDate time.Time      `json:"exportDate"`
		Deck       *domain.Deck   `json:"deck"`
		Cards      *[]domain.Card `json:"cards"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if raw.Deck == nil || raw.Cards == nil {
		return nil, ErrInvalidFormat
	}
	return &Document{
		Version:    raw.Version,
		ExportDate: raw.ExportDate,
		Deck:       *raw.Deck,
		Cards:      *raw.Cards,
	}, nil
}

// Result is a deck and its cards ready to be stored.
type Result struct {
	Deck  domain.Deck
	Cards []domain.Card
}

// Import gives the deck and every card new IDs so the document can be loaded
// next to existing data. A taken deck name gets a " (n)" suffix. Review
// progress on the cards is kept.
func Import(doc Document, existing []domain.Deck, now time.Time) (Result, error) {
	name := strings.TrimSpace(doc.Deck.Name)
	if name == "" {
		return Result{}, fmt.Errorf("%w: deck: %v", ErrInvalidFormat, catalog.ErrEmptyDeckName)
	}
	deck := domain.Deck{
		ID:          uuid.NewString(),
		Name:        catalog.UniqueDeckName(name, existing),
		Description: strings.TrimSpace(doc.Deck.Description),
		Created:     now,
		CardCount:   len(doc.Cards),
	}
	if err := validate.Struct(deck); err != nil {
		return Result{}, fmt.Errorf("%w: deck: %v", ErrInvalidFormat, err)
	}

	cards := make([]domain.Card, 0, len(doc.Cards))
	for i, c := range doc.Cards {
		c.ID = uuid.NewString()
		c.DeckID = deck.ID
		c.Created = now
		if c.Level == 0 {
			c.Level = domain.MinLevel
		}
		if err := catalog.ValidateCard(c.Front, c.Back); err != nil {
			return Result{}, fmt.Errorf("%w: card %d: %v", ErrInvalidFormat, i, err)
		}
		if err := validate.Struct(c); err != nil {
			return Result{}, fmt.Errorf("%w: card %d: %v", ErrInvalidFormat, i, err)
		}
		cards = append(cards, c)
	}
	return Result{Deck: deck, Cards: cards}, nil
}

// ExportFrom loads deckID from store and builds its export document.
func ExportFrom(ctx context.Context, store catalog.Store, deckID string, now time.Time) (Document, error) {
	decks, err := store.LoadDecks(ctx)
	if err != nil {
		return Document{}, err
	}
	deck, ok := catalog.FindDeck(deckID, decks)
	if !ok {
		return Document{}, catalog.ErrDeckNotFound
	}
	cards, err := store.LoadAllCards(ctx)
	if err != nil {
		return Document{}, err
	}
	return Export(deck, cards, now), nil
}

// ImportInto imports doc and saves the new deck and cards to store.
func ImportInto(ctx context.Context, store catalog.Store, doc Document, now time.Time) (Result, error) {
	writes := catalog.WriteLock(store)
	writes.Lock()
	defer writes.Unlock()
	decks, err := store.LoadDecks(ctx)
	if err != nil {
		return Result{}, err
	}
	res, err := Import(doc, decks, now)
	if err != nil {
		return Result{}, err
	}
	cards, err := store.LoadAllCards(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := store.SaveDecks(ctx, append(decks, res.Deck)); err != nil {
		return Result{}, err
	}
	if err := store.SaveAllCards(ctx, append(cards, res.Cards...)); err != nil {
		return Result{}, err
	}
	slog.Info("deck imported", "deck", res.Deck.ID, "name", res.Deck.Name, "cards", len(res.Cards))
	return res, nil
}
