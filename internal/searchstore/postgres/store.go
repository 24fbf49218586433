package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docqa/internal/domain"
	"docqa/internal/lexical"
)

const DefaultTable = "docqa_records"

type Config struct {
	URL   string
	Table string
}

// Store is a search store on a PostgreSQL table with a generated tsvector
// column, ranked with ts_rank.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("postgres url is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool:  pool,
		table: pgx.Identifier{cfg.Table}.Sanitize(),
	}, nil
}

// Migrate creates the records table and its GIN index if missing.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id     TEXT PRIMARY KEY,
			data   TEXT NOT NULL,
			source TEXT NOT NULL,
			tsv    tsvector GENERATED ALWAYS AS (to_tsvector('english', data)) STORED
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (tsv)`,
			pgx.Identifier{strings.Trim(s.table, `"`) + "_tsv_idx"}.Sanitize(), s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Upload(ctx context.Context, rec domain.Record) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, data, source) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, source = EXCLUDED.source`, s.table),
		rec.ID, rec.Data, rec.Source)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	q := tsQuery(text)
	if q == "" {
		return []domain.SearchResult{}, nil
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, data, source, ts_rank(tsv, q) AS score
		FROM %s, to_tsquery('english', $1) q
		WHERE tsv @@ q
		ORDER BY score DESC, id
		LIMIT $2`, s.table), q, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	defer rows.Close()

	results := []domain.SearchResult{}
	for rows.Next() {
		var r domain.SearchResult
		var score float32
		if err := rows.Scan(&r.ID, &r.Data, &r.Source, &score); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		r.Score = float64(score)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n)
	return n, err
}

// tsQuery builds an OR tsquery from the question's terms. Apostrophes are
// dropped because they quote lexemes in tsquery syntax.
func tsQuery(text string) string {
	seen := make(map[string]struct{})
	var terms []string
	for _, tok := range lexical.Tokens(text) {
		tok = strings.NewReplacer("'", "", "’", "").Replace(tok)
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return strings.Join(terms, " | ")
}
