package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"vidchat/internal/text"
)

type entry struct {
	chunk  text.Chunk
	vector []float32
	norm   float64
}

// MemoryIndex is an exact cosine-similarity index held in process memory.
type MemoryIndex struct {
	entries []entry
	dim     int
}

type MemoryBuilder struct{}

func NewMemoryBuilder() *MemoryBuilder {
	return &MemoryBuilder{}
}

func (b *MemoryBuilder) Build(ctx context.Context, chunks []text.Chunk, vectors [][]float32) (Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	idx := &MemoryIndex{entries: make([]entry, 0, len(chunks))}
	for i, c := range chunks {
		v := vectors[i]
		if idx.dim == 0 {
			idx.dim = len(v)
		}
		if len(v) == 0 || len(v) != idx.dim {
			return nil, fmt.Errorf("chunk %d: %w", c.Index, ErrDimensionMismatch)
		}
		idx.entries = append(idx.entries, entry{chunk: c, vector: v, norm: norm(v)})
	}
	return idx, nil
}

func (m *MemoryIndex) Size() int {
	return len(m.entries)
}

// Search returns the k entries most similar to vector, best first. Ties keep
// chunk order.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 || len(m.entries) == 0 {
		return []Hit{}, nil
	}
	if len(vector) != m.dim {
		return nil, ErrDimensionMismatch
	}

	qn := norm(vector)
	hits := make([]Hit, len(m.entries))
	for i, e := range m.entries {
		hits[i] = Hit{Chunk: e.chunk, Score: cosine(vector, qn, e.vector, e.norm)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float32 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (an * bn))
}
