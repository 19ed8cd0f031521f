package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vidchat/internal/answer"
	"vidchat/internal/index"
	"vidchat/internal/text"
	"vidchat/internal/transcript"
	"vidchat/internal/video"
)

var (
	ErrInvalidURL    = video.ErrInvalidURL
	ErrUnavailable   = transcript.ErrUnavailable
	ErrService       = answer.ErrService
	ErrNoVideo       = answer.ErrNoVideo
	ErrEmptyQuestion = errors.New("question is empty")
)

type Fetcher interface {
	Fetch(ctx context.Context, videoID string, languages []string) (string, error)
}

type IndexBuilder interface {
	Build(ctx context.Context, chunks []text.Chunk) (index.Index, error)
}

type Answerer interface {
	Answer(ctx context.Context, idx index.Index, query string) (answer.Result, error)
}

type PipelineConfig struct {
	Languages    []string
	ChunkSize    int
	ChunkOverlap int
}

// Pipeline is the stateless part shared by all sessions: it turns a URL
// into an index and a question into an answer.
type Pipeline struct {
	fetcher  Fetcher
	builder  IndexBuilder
	answerer Answerer
	cfg      PipelineConfig
}

func NewPipeline(f Fetcher, b IndexBuilder, a Answerer, cfg PipelineConfig) *Pipeline {
	if len(cfg.Languages) == 0 {
		cfg.Languages = transcript.DefaultLanguages
	}
	// An unset chunk size takes both chunking defaults. Once a size is given,
	// zero overlap is honored.
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = text.ChunkSize
		if cfg.ChunkOverlap == 0 {
			cfg.ChunkOverlap = text.ChunkOverlap
		}
	}
	return &Pipeline{fetcher: f, builder: b, answerer: a, cfg: cfg}
}

// Processed is the outcome of indexing one video.
type Processed struct {
	VideoID string
	Index   index.Index
	Chunks  int
}

// Process extracts the video id, fetches the transcript, chunks it and
// builds a fresh index. Invalid URLs fail before any network call.
func (p *Pipeline) Process(ctx context.Context, rawURL string) (*Processed, error) {
	videoID, ok := video.ExtractID(rawURL)
	if !ok {
		return nil, ErrInvalidURL
	}

	body, err := p.fetcher.Fetch(ctx, videoID, p.cfg.Languages)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: fetch transcript: %v", ErrService, err)
	}

	chunks := text.Split(body, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	slog.InfoContext(ctx, "transcript chunked", "video_id", videoID, "chars", len(body), "chunks", len(chunks))

	idx, err := p.builder.Build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}

	return &Processed{VideoID: videoID, Index: idx, Chunks: len(chunks)}, nil
}

func (p *Pipeline) Answer(ctx context.Context, idx index.Index, query string) (answer.Result, error) {
	return p.answerer.Answer(ctx, idx, query)
}
