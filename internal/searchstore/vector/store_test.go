package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/vectorstore/memory"
)

func newTestStore(t *testing.T, recs ...domain.Record) *Store {
	t.Helper()
	s := NewStore(tfidf.NewEmbedder(), memory.NewStorage())
	for _, r := range recs {
		require.NoError(t, s.Upload(context.Background(), r))
	}
	return s
}

func TestStore_EmptyQuery(t *testing.T) {
	s := newTestStore(t)
	res, err := s.Query(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
}

func TestStore_RanksByEmbedding(t *testing.T) {
	s := newTestStore(t,
		domain.Record{ID: "1", Data: "Paragraph A is about cats.", Source: "doc.txt"},
		domain.Record{ID: "2", Data: "Paragraph B is about dogs.", Source: "doc.txt"},
	)
	res, err := s.Query(context.Background(), "Tell me about cats", 2)
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "1", res[0].ID)
	assert.Equal(t, "doc.txt", res[0].Source)
}

func TestStore_UploadReplacesAndReindexes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t,
		domain.Record{ID: "1", Data: "cats purr loudly"},
		domain.Record{ID: "2", Data: "dogs bark often"},
	)
	res, err := s.Query(ctx, "dogs", 2)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "2", res[0].ID)

	require.NoError(t, s.Upload(ctx, domain.Record{ID: "2", Data: "horses gallop"}))
	res, err = s.Query(ctx, "dogs", 2)
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = s.Query(ctx, "horses", 2)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "horses gallop", res[0].Data)
}

func TestStore_UnknownTermsReturnNothing(t *testing.T) {
	s := newTestStore(t, domain.Record{ID: "1", Data: "cats purr loudly"})
	res, err := s.Query(context.Background(), "zebras", 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

type countingEmbedder struct {
	prepares int
	fail     bool
}

func (c *countingEmbedder) Name() string { return "counting" }

func (c *countingEmbedder) Prepare([]string) error {
	c.prepares++
	if c.fail {
		return errors.New("boom")
	}
	return nil
}

func (c *countingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func TestStore_RebuildsOnlyWhenDirty(t *testing.T) {
	ctx := context.Background()
	emb := &countingEmbedder{}
	s := NewStore(emb, memory.NewStorage())
	require.NoError(t, s.Upload(ctx, domain.Record{ID: "1", Data: "x"}))

	_, err := s.Query(ctx, "x", 1)
	require.NoError(t, err)
	_, err = s.Query(ctx, "x", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.prepares)

	require.NoError(t, s.Upload(ctx, domain.Record{ID: "2", Data: "y"}))
	res, err := s.Query(ctx, "x", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, emb.prepares)
	assert.Len(t, res, 2)
}

func TestStore_PrepareError(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&countingEmbedder{fail: true}, memory.NewStorage())
	require.NoError(t, s.Upload(ctx, domain.Record{ID: "1", Data: "x"}))
	_, err := s.Query(ctx, "x", 1)
	assert.ErrorContains(t, err, "prepare counting embedder")
}
