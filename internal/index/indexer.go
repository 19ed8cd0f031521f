package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vidchat/internal/text"
)

// BatchEmbedder embeds many texts in one call; out[i] belongs to texts[i].
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer turns an ordered chunk sequence into a fresh index.
type Indexer struct {
	embedder BatchEmbedder
	builder  Builder
}

func NewIndexer(e BatchEmbedder, b Builder) *Indexer {
	return &Indexer{embedder: e, builder: b}
}

func (x *Indexer) Build(ctx context.Context, chunks []text.Chunk) (Index, error) {
	start := time.Now()

	var vectors [][]float32
	if len(chunks) > 0 {
		var err error
		vectors, err = x.embedder.EmbedBatch(ctx, text.Contents(chunks))
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
		}
	}

	idx, err := x.builder.Build(ctx, chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	slog.InfoContext(ctx, "index built", "chunks", len(chunks), "duration", time.Since(start))
	return idx, nil
}
