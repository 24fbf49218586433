package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func TestStore_UploadAndQuery(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Upload(ctx, domain.Record{ID: "1", Data: "Cats purr and sleep.", Source: "a"}))
	require.NoError(t, s.Upload(ctx, domain.Record{ID: "2", Data: "Dogs bark at cats.", Source: "a"}))
	require.NoError(t, s.Upload(ctx, domain.Record{ID: "3", Data: "Birds sing.", Source: "a"}))

	res, err := s.Query(ctx, "Why do dogs bark?", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "2", res[0].ID)
	assert.Greater(t, res[0].Score, 0.0)

	res, err = s.Query(ctx, "cats", 1)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestStore_UploadSameIDOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Upload(ctx, domain.Record{ID: "1", Data: "old text about cats"}))
	require.NoError(t, s.Upload(ctx, domain.Record{ID: "1", Data: "new text about dogs"}))

	assert.Equal(t, 1, s.Len())
	res, err := s.Query(ctx, "cats", 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = s.Query(ctx, "dogs", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "new text about dogs", res[0].Data)
}

func TestStore_NoMatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Upload(context.Background(), domain.Record{ID: "1", Data: "cats"}))
	res, err := s.Query(context.Background(), "the of and", 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Upload(context.Background(), domain.Record{ID: "1", Data: "cats"}))
	s.Clear()
	assert.Zero(t, s.Len())
}
