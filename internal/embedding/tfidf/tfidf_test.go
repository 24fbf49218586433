package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder_RequiresPrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "cats")
	assert.Error(t, err)
}

func TestEmbedder_PrepareErrors(t *testing.T) {
	e := NewEmbedder()
	assert.Error(t, e.Prepare(nil))
	assert.Error(t, e.Prepare([]string{"the of and", "123"}))
}

func TestEmbedder_NormalizedVectors(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"cats purr", "dogs bark", "cats and dogs"}))
	assert.Equal(t, 4, e.Dimension())

	v, err := e.Embed(context.Background(), "cats cats dogs")
	require.NoError(t, err)
	require.Len(t, v, 4)
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	zero, err := e.Embed(context.Background(), "giraffes")
	require.NoError(t, err)
	for _, x := range zero {
		assert.Zero(t, x)
	}
}
