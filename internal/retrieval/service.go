package retrieval

import (
	"context"
	"time"

	"vidchat/internal/index"
)

// DefaultTopK is the number of chunks fetched per question.
const DefaultTopK = 6

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Service struct {
	embedder Embedder
	topK     int
	logger   *QueryLogger
}

func NewService(e Embedder, topK int, l *QueryLogger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{embedder: e, topK: topK, logger: l}
}

func (s *Service) TopK() int {
	return s.topK
}

// Retrieve returns the min(k, idx.Size()) chunks closest to the query.
// There is no similarity floor. Every attempt is written to the query log,
// failures included.
func (s *Service) Retrieve(ctx context.Context, idx index.Index, query string) ([]index.Hit, error) {
	start := time.Now()

	hits, err := s.search(ctx, idx, query)

	if s.logger != nil {
		entry := newQueryLogEntry(ctx, query, s.topK, time.Since(start))
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry = entry.withHits(idx.Size(), hits)
		}
		s.logger.Log(entry)
	}
	return hits, err
}

func (s *Service) search(ctx context.Context, idx index.Index, query string) ([]index.Hit, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := idx.Search(ctx, vec, s.topK)
	if err != nil {
		return nil, err
	}
	return hits, nil
}
