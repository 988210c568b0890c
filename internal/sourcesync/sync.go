// Package sourcesync keeps decks in step with their markdown sources.
//
// Every source feeds exactly one deck. A note is matched to its card by
// content hash: unchanged notes keep their Leitner progress, new notes become
// new level 1 cards, and cards whose note disappeared are deleted. Cards
// added to the deck by hand have no hash and are never touched.
package sourcesync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/leitner/internal/catalog"
	"github.com/conorfennell/leitner/internal/contenthash"
	"github.com/conorfennell/leitner/internal/datemath"
	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/gitsource"
	"github.com/conorfennell/leitner/internal/parser"
	"github.com/conorfennell/leitner/internal/storage"
)

// ErrSourceExists is returned when a path is already registered.
var ErrSourceExists = errors.New("source already exists")

// Report summarises one source reconciliation.
type Report struct {
	SourceID int64     `json:"sourceId"`
	Path     string    `json:"path"`
	DeckID   string    `json:"deckId"`
	Parsed   int       `json:"parsed"`
	Added    int       `json:"added"`
	Removed  int       `json:"removed"`
	Skipped  int       `json:"skipped"`
	Errors   []string  `json:"errors,omitempty"`
	Scanned  time.Time `json:"scanned"`
}

// Syncer reconciles sources into the card store.
type Syncer struct {
	db       *storage.DB
	catalog  *catalog.Service
	clock    datemath.Clock
	reposDir string
}

// New creates a Syncer. Git sources are checked out under reposDir.
func New(db *storage.DB, clock datemath.Clock, reposDir string) *Syncer {
	return &Syncer{
		db:       db,
		catalog:  catalog.NewService(db, clock),
		clock:    clock,
		reposDir: reposDir,
	}
}

// AddSource registers path and binds it to deckRef, an existing deck ID or
// name. When no deck matches, a deck named deckRef is created; an empty
// deckRef names the deck after the source.
func (s *Syncer) AddSource(ctx context.Context, path, deckRef string) (*storage.Source, error) {
	sourceType := storage.SourceLocal
	if gitsource.IsURL(path) {
		sourceType = storage.SourceGit
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source %s is not a directory", abs)
		}
		path = abs
	}

	existing, err := s.db.FindSourceByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceExists, path)
	}

	deckID, err := s.resolveDeck(ctx, path, deckRef)
	if err != nil {
		return nil, err
	}
	id, err := s.db.InsertSource(ctx, path, sourceType, deckID)
	if err != nil {
		return nil, err
	}
	slog.Info("source added", "id", id, "type", sourceType, "path", path, "deck", deckID)
	return &storage.Source{ID: id, Path: path, Type: sourceType, DeckID: deckID}, nil
}

func (s *Syncer) resolveDeck(ctx context.Context, path, deckRef string) (string, error) {
	if deckRef == "" {
		deckRef = strings.TrimSuffix(filepath.Base(path), ".git")
	}
	d, err := s.catalog.ResolveDeck(ctx, deckRef)
	if err == nil {
		return d.ID, nil
	}
	if !errors.Is(err, catalog.ErrDeckNotFound) {
		return "", err
	}
	deck, err := s.catalog.CreateDeck(ctx, deckRef, "Synced from "+path)
	if err != nil {
		return "", err
	}
	return deck.ID, nil
}

// Sources lists all registered sources.
func (s *Syncer) Sources(ctx context.Context) ([]storage.Source, error) {
	return s.db.GetAllSources(ctx)
}

// RemoveSource unregisters a source. Its deck and cards are kept.
func (s *Syncer) RemoveSource(ctx context.Context, id int64) error {
	return s.db.DeleteSource(ctx, id)
}

// SyncAll reconciles every source. A failing source is reported and the
// remaining sources are still synced.
func (s *Syncer) SyncAll(ctx context.Context) ([]Report, error) {
	sources, err := s.db.GetAllSources(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil, nil
	}

	reports := make([]Report, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep, err := s.SyncSource(ctx, src)
		if err != nil {
			slog.Error("source sync failed", "id", src.ID, "path", src.Path, "error", err)
			rep = Report{SourceID: src.ID, Path: src.Path, DeckID: src.DeckID, Errors: []string{err.Error()}}
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// SyncSource fetches a git source if needed and reconciles its notes.
func (s *Syncer) SyncSource(ctx context.Context, src storage.Source) (Report, error) {
	slog.Info("syncing source", "id", src.ID, "type", src.Type, "path", src.Path)
	dir := src.Path
	if src.Type == storage.SourceGit {
		local, err := gitsource.LocalPath(s.reposDir, src.Path)
		if err != nil {
			return Report{}, err
		}
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return Report{}, fmt.Errorf("failed to create repos directory: %w", err)
		}
		if err := gitsource.Sync(ctx, src.Path, local); err != nil {
			return Report{}, err
		}
		dir = local
	}
	return s.reconcile(ctx, src, dir)
}

func (s *Syncer) reconcile(ctx context.Context, src storage.Source, dir string) (Report, error) {
	rep := Report{SourceID: src.ID, Path: src.Path, DeckID: src.DeckID}

	notes, parseErrs, err := collectNotes(dir)
	if err != nil {
		return rep, err
	}
	for _, e := range parseErrs {
		rep.Errors = append(rep.Errors, e.Error())
	}
	rep.Parsed = len(notes)

	writes := s.db.WriteLock()
	writes.Lock()
	defer writes.Unlock()
	cards, err := s.db.LoadAllCards(ctx)
	if err != nil {
		return rep, err
	}
	now := s.clock.Now()

	found := make(map[string]bool, len(notes))
	known := make(map[string]bool)
	for _, c := range cards {
		if c.DeckID == src.DeckID && c.SourceHash != "" {
			known[c.SourceHash] = true
		}
	}

	for _, n := range notes {
		found[n.Hash] = true
		if known[n.Hash] {
			continue
		}
		front, back := cardText(n)
		if err := catalog.ValidateCard(front, back); err != nil {
			slog.Warn("skipping note", "question", n.Question, "error", err)
			rep.Skipped++
			continue
		}
		card := catalog.NewCard(src.DeckID, front, back, now)
		card.SourceHash = n.Hash
		cards = append(cards, card)
		known[n.Hash] = true
		rep.Added++
	}

	kept := cards[:0]
	for _, c := range cards {
		if c.DeckID == src.DeckID && c.SourceHash != "" && !found[c.SourceHash] {
			slog.Debug("orphaned card, deleting", "card", c.ID, "hash", c.SourceHash)
			rep.Removed++
			continue
		}
		kept = append(kept, c)
	}

	if rep.Added > 0 || rep.Removed > 0 {
		if err := s.db.SaveAllCards(ctx, kept); err != nil {
			return rep, err
		}
	}
	if err := s.db.UpdateSourceLastScanned(ctx, src.ID, now); err != nil {
		slog.Warn("failed to update last scanned", "source", src.ID, "error", err)
	}
	rep.Scanned = now

	slog.Info("reconciliation complete",
		"path", src.Path,
		"parsed", rep.Parsed,
		"added", rep.Added,
		"removed", rep.Removed,
		"errors", len(rep.Errors),
	)
	return rep, nil
}

// collectNotes parses every .md file under dir and hashes the notes.
// Files that fail to parse are reported without stopping the walk.
func collectNotes(dir string) ([]domain.Note, []error, error) {
	var (
		notes []domain.Note
		errs  []error
	)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}
		fileNotes, err := parser.ParseFile(path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		for _, n := range fileNotes {
			n.Hash = contenthash.Hash(n)
			notes = append(notes, n)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("failed to walk %s: %w", dir, walkErr)
	}
	return notes, errs, nil
}

// cardText maps a note to card sides. Context is appended to the back.
func cardText(n domain.Note) (front, back string) {
	back = strings.TrimSpace(n.Answer)
	if c := strings.TrimSpace(n.Context); c != "" && back != "" {
		back += "\n\n" + c
	}
	return strings.TrimSpace(n.Question), back
}
