package memory

import (
	"context"
	"sync"

	"docqa/internal/domain"
	"docqa/internal/lexical"
)

// Store is an in-process search store keyed by record id. Queries are ranked
// by token overlap; records sharing no token with the query never match.
type Store struct {
	mu      sync.RWMutex
	order   []string
	records map[string]domain.Record
}

func NewStore() *Store { return &Store{records: make(map[string]domain.Record)} }

// Upload inserts rec, replacing any record with the same id in place.
func (s *Store) Upload(ctx context.Context, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *Store) Query(ctx context.Context, text string, topK int) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	texts := make([]string, len(s.order))
	for i, id := range s.order {
		texts[i] = s.records[id].Data
	}
	ranked := lexical.Rank(text, texts, topK)
	results := make([]domain.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, domain.SearchResult{
			Record: s.records[s.order[r.Index]],
			Score:  r.Score,
		})
	}
	return results, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear drops every record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.records = make(map[string]domain.Record)
}
