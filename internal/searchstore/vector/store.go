// Package vector adapts an embedder and a vector storage into a search store.
// Records are embedded lazily: uploads mark the index dirty and the next
// query re-prepares the embedder over the whole corpus.
package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/lexical"
	"docqa/internal/vectorstore"
)

const minScore = 1e-9

type Store struct {
	embedder embedding.Embedder
	storage  vectorstore.Storage
	logger   zerolog.Logger

	mu      sync.Mutex
	order   []string
	records map[string]domain.Record
	dirty   bool
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func NewStore(emb embedding.Embedder, storage vectorstore.Storage, opts ...Option) *Store {
	s := &Store{
		embedder: emb,
		storage:  storage,
		logger:   zerolog.Nop(),
		records:  make(map[string]domain.Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Upload(_ context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
	s.dirty = true
	return nil
}

func (s *Store) Query(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return []domain.SearchResult{}, nil
	}
	if s.dirty {
		if err := s.rebuild(ctx); err != nil {
			return nil, err
		}
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if isZero(vec) {
		return s.lexicalSearch(text, topK), nil
	}
	res, err := s.storage.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SearchResult, 0, len(res))
	for _, r := range res {
		if r.Score > minScore {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return s.lexicalSearch(text, topK), nil
	}
	return out, nil
}

func (s *Store) rebuild(ctx context.Context) error {
	corpus := make([]string, len(s.order))
	recs := make([]domain.Record, len(s.order))
	for i, id := range s.order {
		recs[i] = s.records[id]
		corpus[i] = recs[i].Data
	}
	if err := s.embedder.Prepare(corpus); err != nil {
		return fmt.Errorf("prepare %s embedder: %w", s.embedder.Name(), err)
	}
	vectors := make([][]float64, len(recs))
	for i := range recs {
		vec, err := s.embedder.Embed(ctx, recs[i].Data)
		if err != nil {
			return fmt.Errorf("embed record %s: %w", recs[i].ID, err)
		}
		vectors[i] = vec
	}
	if err := s.storage.Clear(ctx); err != nil {
		return err
	}
	if err := s.storage.Init(ctx, len(vectors[0])); err != nil {
		return err
	}
	if err := s.storage.Upsert(ctx, recs, vectors); err != nil {
		return err
	}
	s.dirty = false
	s.logger.Debug().
		Str("embedder", s.embedder.Name()).
		Int("records", len(recs)).
		Int("dimension", len(vectors[0])).
		Msg("vector index rebuilt")
	return nil
}

// lexicalSearch ranks records by token overlap when the embedding carries no
// signal for the query.
func (s *Store) lexicalSearch(query string, topK int) []domain.SearchResult {
	texts := make([]string, len(s.order))
	for i, id := range s.order {
		texts[i] = s.records[id].Data
	}
	ranked := lexical.Rank(query, texts, topK)
	out := make([]domain.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, domain.SearchResult{Record: s.records[s.order[r.Index]], Score: r.Score})
	}
	return out
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
