package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"docqa/internal/domain"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	index     map[string]int
	vectors   [][]float64
	records   []domain.Record
}

func NewStorage() *Storage { return &Storage{index: make(map[string]int)} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.reset()
	return nil
}

func (s *Storage) Upsert(_ context.Context, records []domain.Record, vectors [][]float64) error {
	if len(records) != len(vectors) {
		return errors.New("records and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i, rec := range records {
		if j, ok := s.index[rec.ID]; ok {
			s.records[j] = rec
			s.vectors[j] = vectors[i]
			continue
		}
		s.index[rec.ID] = len(s.records)
		s.records = append(s.records, rec)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

// Search ranks by dot product (vectors are assumed L2-normalized); ties keep
// insertion order.
func (s *Storage) Search(_ context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	idxs := make([]int, len(s.vectors))
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		idxs[i] = i
		scores[i] = dot(s.vectors[i], vector)
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{Record: s.records[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *Storage) reset() {
	s.index = make(map[string]int)
	s.vectors = nil
	s.records = nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
