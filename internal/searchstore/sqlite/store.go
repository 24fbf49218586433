package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"docqa/internal/domain"
	"docqa/internal/lexical"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id     TEXT PRIMARY KEY,
	data   TEXT NOT NULL,
	source TEXT NOT NULL
);
CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(id UNINDEXED, data, source UNINDEXED);
`

// Store is a search store backed by an SQLite FTS5 table ranked with bm25.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Upload(ctx context.Context, rec domain.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO records (id, data, source) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, source = excluded.source`,
		rec.ID, rec.Data, rec.Source); err != nil {
		return fmt.Errorf("upserting record %s: %w", rec.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records_fts WHERE id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clearing fts row %s: %w", rec.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO records_fts (id, data, source) VALUES (?, ?, ?)`,
		rec.ID, rec.Data, rec.Source); err != nil {
		return fmt.Errorf("indexing record %s: %w", rec.ID, err)
	}
	return tx.Commit()
}

func (s *Store) Query(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	match := matchExpression(text)
	if match == "" {
		return []domain.SearchResult{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data, source, bm25(records_fts)
		FROM records_fts
		WHERE records_fts MATCH ?
		ORDER BY bm25(records_fts)
		LIMIT ?`, match, topK)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	defer rows.Close()

	results := []domain.SearchResult{}
	for rows.Next() {
		var r domain.SearchResult
		var rank float64
		if err := rows.Scan(&r.ID, &r.Data, &r.Source, &rank); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		// bm25 is lower-is-better
		r.Score = -rank
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

// matchExpression turns free text into an FTS5 OR query of quoted terms so
// punctuation in the question can never break the MATCH syntax.
func matchExpression(text string) string {
	seen := make(map[string]struct{})
	var terms []string
	for _, tok := range lexical.Tokens(text) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, `"`+strings.ReplaceAll(tok, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " OR ")
}
