package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/leitner/internal/catalog"
	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/exchange"
	"github.com/conorfennell/leitner/internal/sourcesync"
	"github.com/conorfennell/leitner/internal/storage"
	"github.com/conorfennell/leitner/internal/study"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, strict bool) *Server {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := datemath.FixedClock{T: t0}
	return NewServer(Deps{
		Store:   db,
		Catalog: catalog.NewService(db, clock),
		Study:   study.NewController(db, clock, study.WithReviewRecorder(db), study.WithStrict(strict)),
		Sync:    sourcesync.New(db, clock, filepath.Join(dir, "repos")),
		Clock:   clock,
	})
}

// do sends a JSON request and decodes the response into out when given.
func do(t *testing.T, s *Server, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func createDeck(t *testing.T, s *Server, name string) domain.Deck {
	t.Helper()
	var deck domain.Deck
	rec := do(t, s, http.MethodPost, "/api/decks", map[string]string{"name": name}, &deck)
	require.Equal(t, http.StatusCreated, rec.Code)
	return deck
}

func addCard(t *testing.T, s *Server, deckID, front, back string) domain.Card {
	t.Helper()
	var card domain.Card
	rec := do(t, s, http.MethodPost, "/api/decks/"+deckID+"/cards", map[string]string{"front": front, "back": back}, &card)
	require.Equal(t, http.StatusCreated, rec.Code)
	return card
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeckAndCardEndpoints(t *testing.T) {
	s := newTestServer(t, false)
	deck := createDeck(t, s, "Korean")

	rec := do(t, s, http.MethodPost, "/api/decks", map[string]string{"name": "korean"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/decks", map[string]string{"name": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	card := addCard(t, s, deck.ID, "annyeong", "hello")
	assert.Equal(t, 1, card.Level)

	rec = do(t, s, http.MethodPost, "/api/decks/"+deck.ID+"/cards", map[string]string{"front": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var decks []catalog.DeckSummary
	rec = do(t, s, http.MethodGet, "/api/decks", nil, &decks)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decks, 1)
	assert.Equal(t, 1, decks[0].CardCount)
	assert.Equal(t, 1, decks[0].DueCount)

	var cards []domain.Card
	do(t, s, http.MethodGet, "/api/decks/"+deck.ID+"/cards?q=HELLO", nil, &cards)
	assert.Len(t, cards, 1)
	do(t, s, http.MethodGet, "/api/decks/"+deck.ID+"/cards?level=2", nil, &cards)
	assert.Empty(t, cards)

	var edited domain.Card
	rec = do(t, s, http.MethodPatch, "/api/cards/"+card.ID, map[string]string{"back": "hi"}, &edited)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", edited.Back)
	assert.Equal(t, "annyeong", edited.Front)

	rec = do(t, s, http.MethodDelete, "/api/cards/"+card.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/cards/"+card.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var renamed domain.Deck
	rec = do(t, s, http.MethodPatch, "/api/decks/"+deck.ID, map[string]string{"name": "Hangul"}, &renamed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hangul", renamed.Name)

	rec = do(t, s, http.MethodDelete, "/api/decks/"+deck.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/decks/"+deck.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudySessionFlow(t *testing.T) {
	s := newTestServer(t, false)
	deck := createDeck(t, s, "Capitals")
	addCard(t, s, deck.ID, "France", "Paris")
	addCard(t, s, deck.ID, "Japan", "Tokyo")

	var view study.View
	rec := do(t, s, http.MethodPost, "/api/decks/"+deck.ID+"/sessions", nil, &view)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, study.Showing, view.State)
	assert.Equal(t, "1 of 2 cards", view.Progress)
	require.NotNil(t, view.Card)
	assert.Empty(t, view.Card.Back)
	base := "/api/sessions/" + view.ID

	// answering before reveal is ignored in lenient mode
	rec = do(t, s, http.MethodPost, base+"/answer", map[string]bool{"correct": true}, &view)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, view.Index)

	do(t, s, http.MethodPost, base+"/reveal", nil, &view)
	assert.Equal(t, study.Revealed, view.State)
	assert.NotEmpty(t, view.Card.Back)

	do(t, s, http.MethodPost, base+"/answer", map[string]bool{"correct": true}, &view)
	assert.Equal(t, 1, view.Index)
	assert.Equal(t, 1, view.Stats.Correct)

	do(t, s, http.MethodPost, base+"/reveal", nil, &view)
	rec = do(t, s, http.MethodPost, base+"/answer", map[string]bool{"correct": false}, &view)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, study.Completed, view.State)
	require.NotNil(t, view.Summary)
	assert.Equal(t, 50, view.Summary.Percentage)

	rec = do(t, s, http.MethodGet, base, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the correct card moved to level 2 and is no longer due today
	var decks []catalog.DeckSummary
	do(t, s, http.MethodGet, "/api/decks", nil, &decks)
	require.Len(t, decks, 1)
	assert.Equal(t, 0, decks[0].DueCount)

	var errResp errorResponse
	rec = do(t, s, http.MethodPost, "/api/decks/"+deck.ID+"/sessions", nil, &errResp)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no cards due", errResp.Error)
}

func TestStudyStrictMode(t *testing.T) {
	s := newTestServer(t, true)
	deck := createDeck(t, s, "Strict")
	addCard(t, s, deck.ID, "q", "a")

	var view study.View
	do(t, s, http.MethodPost, "/api/decks/"+deck.ID+"/sessions", nil, &view)
	rec := do(t, s, http.MethodPost, "/api/sessions/"+view.ID+"/answer", map[string]bool{"correct": true}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/sessions/"+view.ID+"/answer", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/sessions/"+view.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/sessions/"+view.ID+"/reveal", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartSessionUnknownDeck(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s, http.MethodPost, "/api/decks/missing/sessions", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportImport(t *testing.T) {
	s := newTestServer(t, false)
	deck := createDeck(t, s, "Spanish")
	addCard(t, s, deck.ID, "ser", "to be")

	rec := do(t, s, http.MethodGet, "/api/decks/"+deck.ID+"/export", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "spanish-2025-06-15.json")

	var doc exchange.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, exchange.Version, doc.Version)
	require.Len(t, doc.Cards, 1)

	var imported domain.Deck
	rec = do(t, s, http.MethodPost, "/api/import", doc, &imported)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Spanish (2)", imported.Name)
	assert.NotEqual(t, deck.ID, imported.ID)

	rec = do(t, s, http.MethodPost, "/api/import", map[string]string{"version": "1.0"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSourcesAndSync(t *testing.T) {
	s := newTestServer(t, false)
	notes := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(notes, "n.md"), []byte("Q: one\nA: 1\n---\nQ: two\nA: 2\n"), 0o644))

	var src storage.Source
	rec := do(t, s, http.MethodPost, "/api/sources", map[string]string{"path": notes, "deck": "Numbers"}, &src)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, storage.SourceLocal, src.Type)

	rec = do(t, s, http.MethodPost, "/api/sources", map[string]string{"path": notes}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var reports []sourcesync.Report
	rec = do(t, s, http.MethodPost, "/api/sync", nil, &reports)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, reports, 1)
	assert.Equal(t, 2, reports[0].Added)

	var sources []storage.Source
	do(t, s, http.MethodGet, "/api/sources", nil, &sources)
	require.Len(t, sources, 1)
	assert.NotNil(t, sources[0].LastScanned)

	rec = do(t, s, http.MethodDelete, "/api/sources/"+strconv.FormatInt(src.ID, 10), nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/sources/"+strconv.FormatInt(src.ID, 10), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/sources/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
