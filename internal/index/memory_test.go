package index_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidchat/internal/index"
	"vidchat/internal/text"
)

func chunks(contents ...string) []text.Chunk {
	out := make([]text.Chunk, len(contents))
	for i, c := range contents {
		out[i] = text.Chunk{Index: i, Content: c}
	}
	return out
}

func TestMemoryIndex_Search(t *testing.T) {
	ctx := context.Background()
	b := index.NewMemoryBuilder()

	idx, err := b.Build(ctx, chunks("north", "east", "north-east"), [][]float32{
		{0, 1},
		{1, 0},
		{1, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Size())

	t.Run("Ordered By Similarity", func(t *testing.T) {
		hits, err := idx.Search(ctx, []float32{0, 2}, 6)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "north", hits[0].Chunk.Content)
		assert.Equal(t, "north-east", hits[1].Chunk.Content)
		assert.Equal(t, "east", hits[2].Chunk.Content)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
		assert.InDelta(t, 0.0, hits[2].Score, 1e-6)
	})

	t.Run("Limits To K", func(t *testing.T) {
		hits, err := idx.Search(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "east", hits[0].Chunk.Content)
	})

	t.Run("Ties Keep Chunk Order", func(t *testing.T) {
		hits, err := idx.Search(ctx, []float32{0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, []int{0, 1, 2}, []int{hits[0].Chunk.Index, hits[1].Chunk.Index, hits[2].Chunk.Index})
	})

	t.Run("Dimension Mismatch", func(t *testing.T) {
		_, err := idx.Search(ctx, []float32{1, 0, 0}, 3)
		assert.ErrorIs(t, err, index.ErrDimensionMismatch)
	})
}

func TestMemoryBuilder_Build(t *testing.T) {
	ctx := context.Background()
	b := index.NewMemoryBuilder()

	t.Run("Empty", func(t *testing.T) {
		idx, err := b.Build(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, idx.Size())
		hits, err := idx.Search(ctx, []float32{1}, 6)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("Count Mismatch", func(t *testing.T) {
		_, err := b.Build(ctx, chunks("a", "b"), [][]float32{{1}})
		assert.Error(t, err)
	})

	t.Run("Ragged Vectors", func(t *testing.T) {
		_, err := b.Build(ctx, chunks("a", "b"), [][]float32{{1, 0}, {1}})
		assert.ErrorIs(t, err, index.ErrDimensionMismatch)
	})
}

func TestRelease(t *testing.T) {
	idx, err := index.NewMemoryBuilder().Build(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.NoError(t, index.Release(context.Background(), idx))
}
