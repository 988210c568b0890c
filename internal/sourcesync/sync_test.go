package sourcesync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/leitner/internal/catalog"
	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/leitner"
	"github.com/conorfennell/leitner/internal/storage"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestSyncer(t *testing.T) (*Syncer, *storage.DB) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, datemath.FixedClock{T: t0}, filepath.Join(dir, "repos")), db
}

func writeNotes(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func deckCards(t *testing.T, db *storage.DB, deckID string) []domain.Card {
	t.Helper()
	cards, err := db.LoadAllCards(context.Background())
	require.NoError(t, err)
	return catalog.CardsByDeck(deckID, cards)
}

func TestAddSourceCreatesDeck(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSyncer(t)
	notesDir := filepath.Join(t.TempDir(), "golang")
	require.NoError(t, os.Mkdir(notesDir, 0o755))

	src, err := s.AddSource(ctx, notesDir, "")
	require.NoError(t, err)
	assert.Equal(t, storage.SourceLocal, src.Type)

	deck, err := s.catalog.Deck(ctx, src.DeckID)
	require.NoError(t, err)
	assert.Equal(t, "golang", deck.Name)

	_, err = s.AddSource(ctx, notesDir, "")
	assert.ErrorIs(t, err, ErrSourceExists)

	_, err = s.AddSource(ctx, filepath.Join(notesDir, "missing"), "")
	assert.Error(t, err)
}

func TestAddSourceUsesExistingDeck(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSyncer(t)
	deck, err := s.catalog.CreateDeck(ctx, "Go", "")
	require.NoError(t, err)

	src, err := s.AddSource(ctx, t.TempDir(), "go")
	require.NoError(t, err)
	assert.Equal(t, deck.ID, src.DeckID)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	s, db := newTestSyncer(t)
	notesDir := t.TempDir()
	writeNotes(t, notesDir, "go.md", "Q: What is Go?\nA: A language\nC: Programming\n---\nQ: Who made Go?\nA: Google\n")
	writeNotes(t, notesDir, "ignored.txt", "Q: not markdown\nA: skipped\n")

	src, err := s.AddSource(ctx, notesDir, "Go")
	require.NoError(t, err)
	manual, err := s.catalog.AddCard(ctx, src.DeckID, "hand made", "card")
	require.NoError(t, err)

	rep, err := s.SyncSource(ctx, *src)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Parsed)
	assert.Equal(t, 2, rep.Added)
	assert.Equal(t, 0, rep.Removed)

	cards := deckCards(t, db, src.DeckID)
	require.Len(t, cards, 3)
	synced, ok := catalog.FindCard(cards[1].ID, cards)
	require.True(t, ok)
	assert.Equal(t, "What is Go?", synced.Front)
	assert.Equal(t, "A language\n\nProgramming", synced.Back)
	assert.NotEmpty(t, synced.SourceHash)

	// progress on an unchanged note survives a resync
	progressed := leitner.RecordCorrect(synced, t0)
	require.NoError(t, db.SaveAllCards(ctx, catalog.ReplaceCard(progressed, cards)))

	writeNotes(t, notesDir, "go.md", "Q: What is Go?\nA: A language\nC: Programming\n---\nQ: Who made Go?\nA: Google, in 2009\n")
	rep, err = s.SyncSource(ctx, *src)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Added)
	assert.Equal(t, 1, rep.Removed)

	cards = deckCards(t, db, src.DeckID)
	require.Len(t, cards, 3)
	kept, ok := catalog.FindCard(synced.ID, cards)
	require.True(t, ok)
	assert.Equal(t, 2, kept.Level)
	assert.Equal(t, 1, kept.CorrectCount)
	_, ok = catalog.FindCard(manual.ID, cards)
	assert.True(t, ok, "hand-made card must be kept")

	sources, err := s.Sources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.NotNil(t, sources[0].LastScanned)
	assert.True(t, sources[0].LastScanned.Equal(t0))
}

func TestReconcileSkipsNotesWithoutAnswer(t *testing.T) {
	ctx := context.Background()
	s, db := newTestSyncer(t)
	notesDir := t.TempDir()
	writeNotes(t, notesDir, "a.md", "Q: unanswered\n---\nQ: answered\nA: yes\n")

	src, err := s.AddSource(ctx, notesDir, "")
	require.NoError(t, err)
	rep, err := s.SyncSource(ctx, *src)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Skipped)
	assert.Len(t, deckCards(t, db, src.DeckID), 1)
}

func TestDuplicateNotesBecomeOneCard(t *testing.T) {
	ctx := context.Background()
	s, db := newTestSyncer(t)
	notesDir := t.TempDir()
	writeNotes(t, notesDir, "a.md", "Q: same\nA: note\n")
	writeNotes(t, notesDir, "b.md", "Q: Same \nA: note\n")

	src, err := s.AddSource(ctx, notesDir, "")
	require.NoError(t, err)
	_, err = s.SyncSource(ctx, *src)
	require.NoError(t, err)
	assert.Len(t, deckCards(t, db, src.DeckID), 1)
}

func TestSyncAllAndRemove(t *testing.T) {
	ctx := context.Background()
	s, db := newTestSyncer(t)

	reps, err := s.SyncAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, reps)

	notesDir := t.TempDir()
	writeNotes(t, notesDir, "a.md", "Q: one\nA: 1\n")
	src, err := s.AddSource(ctx, notesDir, "")
	require.NoError(t, err)

	reps, err = s.SyncAll(ctx)
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, 1, reps[0].Added)

	require.NoError(t, s.RemoveSource(ctx, src.ID))
	assert.Len(t, deckCards(t, db, src.DeckID), 1, "removing a source keeps its deck")
	assert.Error(t, s.RemoveSource(ctx, src.ID))
}
