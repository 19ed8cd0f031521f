package index

import (
	"context"
	"errors"

	"vidchat/internal/text"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Hit is a chunk returned by a similarity search with its score.
type Hit struct {
	Chunk text.Chunk
	Score float32
}

// Index is a similarity-searchable set of transcript chunks built from a
// single video.
type Index interface {
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)
	Size() int
}

// Builder creates a fresh index from chunks and their vectors.
// vectors[i] is the embedding of chunks[i].
type Builder interface {
	Build(ctx context.Context, chunks []text.Chunk, vectors [][]float32) (Index, error)
}

// Dropper is implemented by indexes that hold external resources.
type Dropper interface {
	Drop(ctx context.Context) error
}

// Release frees the resources behind idx if it holds any.
func Release(ctx context.Context, idx Index) error {
	if d, ok := idx.(Dropper); ok {
		return d.Drop(ctx)
	}
	return nil
}
