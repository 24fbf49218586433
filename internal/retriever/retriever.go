package retriever

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"docqa/internal/domain"
)

// Retriever asks the search store for the records most relevant to a query.
// Ranking belongs to the store; results are never re-sorted here.
type Retriever struct {
	store  domain.SearchStore
	logger zerolog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the retriever logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// New creates a retriever reading from store.
func New(store domain.SearchStore, opts ...Option) *Retriever {
	r := &Retriever{store: store, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search returns at most k results in store order. No match is an empty,
// non-nil slice.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidConfiguration, k)
	}

	results, err := r.store.Query(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}
	if len(results) > k {
		results = results[:k]
	}

	out := make([]domain.SearchResult, len(results))
	for i, res := range results {
		res.Rank = i + 1
		out[i] = res
	}

	r.logger.Debug().Str("query", query).Int("k", k).Int("results", len(out)).Msg("search complete")
	return out, nil
}
