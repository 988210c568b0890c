package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/leitner/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
	path string

	// writes serializes load-modify-save cycles of every service sharing
	// this connection. The store methods themselves never take it.
	writes sync.Mutex
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path is the database file the connection was opened on.
func (db *DB) Path() string {
	return db.path
}

// WriteLock is held by callers for the span of a load-modify-save cycle so
// that concurrent full-collection saves cannot drop each other's changes.
func (db *DB) WriteLock() sync.Locker {
	return &db.writes
}

// LoadAllCards returns every card in insertion order.
func (db *DB) LoadAllCards(ctx context.Context) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, deck_id, front, back, level, correct_count, last_reviewed, next_review, created, source_hash
		FROM cards ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var (
			c                      domain.Card
			lastReviewed, next, sh sql.NullString
			created                string
		)
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Level, &c.CorrectCount,
			&lastReviewed, &next, &created, &sh); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		if c.Created, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("card %s: %w", c.ID, err)
		}
		if lastReviewed.Valid {
			t, err := parseTime(lastReviewed.String)
			if err != nil {
				return nil, fmt.Errorf("card %s: %w", c.ID, err)
			}
			c.LastReviewed = &t
		}
		if next.Valid {
			if c.NextReview, err = parseTime(next.String); err != nil {
				return nil, fmt.Errorf("card %s: %w", c.ID, err)
			}
		}
		c.SourceHash = sh.String
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// SaveAllCards replaces the stored collection with cards in one transaction.
// Existing rows are updated in place so their review history survives;
// rows missing from cards are deleted.
func (db *DB) SaveAllCards(ctx context.Context, cards []domain.Card) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS keep_ids (id TEXT PRIMARY KEY)`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM keep_ids`); err != nil {
			return err
		}

		for _, c := range cards {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cards (id, deck_id, front, back, level, correct_count, last_reviewed, next_review, created, source_hash)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					deck_id = excluded.deck_id,
					front = excluded.front,
					back = excluded.back,
					level = excluded.level,
					correct_count = excluded.correct_count,
					last_reviewed = excluded.last_reviewed,
					next_review = excluded.next_review,
					source_hash = excluded.source_hash
			`,
				c.ID, c.DeckID, c.Front, c.Back, c.Level, c.CorrectCount,
				nullTimePtr(c.LastReviewed), nullTime(c.NextReview), formatTime(c.Created), nullString(c.SourceHash),
			)
			if err != nil {
				return fmt.Errorf("failed to save card %s: %w", c.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO keep_ids (id) VALUES (?)`, c.ID); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id NOT IN (SELECT id FROM keep_ids)`)
		return err
	})
}

// LoadDecks returns every deck with its current card count.
func (db *DB) LoadDecks(ctx context.Context) ([]domain.Deck, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT d.id, d.name, d.description, d.created, COUNT(c.id)
		FROM decks d LEFT JOIN cards c ON c.deck_id = d.id
		GROUP BY d.id
		ORDER BY d.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load decks: %w", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// FindDeck retrieves a deck by ID. It returns nil when there is no such deck.
func (db *DB) FindDeck(ctx context.Context, id string) (*domain.Deck, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT d.id, d.name, d.description, d.created, COUNT(c.id)
		FROM decks d LEFT JOIN cards c ON c.deck_id = d.id
		WHERE d.id = ?
		GROUP BY d.id
	`, id)
	d, err := scanDeck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Deck not found
		}
		return nil, err
	}
	return &d, nil
}

// SaveDecks replaces the stored decks. Decks that are left out are deleted
// along with their cards and sources.
func (db *DB) SaveDecks(ctx context.Context, decks []domain.Deck) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		ids := make([]any, 0, len(decks))
		for _, d := range decks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO decks (id, name, description, created)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description
			`, d.ID, d.Name, d.Description, formatTime(d.Created))
			if err != nil {
				return fmt.Errorf("failed to save deck %s: %w", d.ID, err)
			}
			ids = append(ids, d.ID)
		}

		query := `DELETE FROM decks`
		if len(ids) > 0 {
			query += ` WHERE id NOT IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
		}
		if _, err := tx.ExecContext(ctx, query, ids...); err != nil {
			return fmt.Errorf("failed to delete removed decks: %w", err)
		}
		return nil
	})
}

// AppendReview records one answer in the review history.
func (db *DB) AppendReview(ctx context.Context, rl domain.ReviewLog) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO reviews (card_id, reviewed_at, correct, level)
		VALUES (?, ?, ?, ?)
	`, rl.CardID, formatTime(rl.Timestamp), rl.Correct, rl.Level)
	if err != nil {
		return fmt.Errorf("failed to insert review for card %s: %w", rl.CardID, err)
	}
	return nil
}

// ReviewsForCard returns the review history of a card, oldest first.
func (db *DB) ReviewsForCard(ctx context.Context, cardID string) ([]domain.ReviewLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_id, reviewed_at, correct, level
		FROM reviews WHERE card_id = ? ORDER BY id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var (
			rl domain.ReviewLog
			ts string
		)
		if err := rows.Scan(&rl.CardID, &ts, &rl.Correct, &rl.Level); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		if rl.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		logs = append(logs, rl)
	}
	return logs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeck(s scanner) (domain.Deck, error) {
	var (
		d       domain.Deck
		created string
	)
	if err := s.Scan(&d.ID, &d.Name, &d.Description, &created, &d.CardCount); err != nil {
		return d, fmt.Errorf("failed to scan deck row: %w", err)
	}
	t, err := parseTime(created)
	if err != nil {
		return d, fmt.Errorf("deck %s: %w", d.ID, err)
	}
	d.Created = t
	return d, nil
}

func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return nullTime(*t)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
