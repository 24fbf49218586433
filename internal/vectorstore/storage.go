package vectorstore

import (
	"context"

	"docqa/internal/domain"
)

// Storage persists record vectors and supports similarity search.
// Upsert replaces vectors for ids that already exist.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, records []domain.Record, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Clear(ctx context.Context) error
}
