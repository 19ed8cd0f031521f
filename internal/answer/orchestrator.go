package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vidchat/internal/index"
)

const (
	GroundedTemperature float32 = 0.2
	FallbackTemperature float32 = 0.5

	// FallbackPrefix marks answers that do not come from the transcript.
	FallbackPrefix = "🤖 I couldn’t find this information in the video, but based on my general knowledge: "
)

var (
	ErrService = errors.New("service error")
	ErrNoVideo = errors.New("no video has been processed")
)

// Mode records which path produced an answer.
type Mode string

const (
	ModeStatic   Mode = "static"
	ModeGrounded Mode = "grounded"
	ModeFallback Mode = "fallback"
)

type Result struct {
	Text string
	Mode Mode
}

type StaticResponder interface {
	Respond(query string) (string, bool)
}

type Retriever interface {
	Retrieve(ctx context.Context, idx index.Index, query string) ([]index.Hit, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

type Orchestrator struct {
	static    StaticResponder
	retriever Retriever
	generator Generator
}

func NewOrchestrator(s StaticResponder, r Retriever, g Generator) *Orchestrator {
	return &Orchestrator{static: s, retriever: r, generator: g}
}

// Answer resolves one question. Canned replies short-circuit everything;
// otherwise the question is answered from retrieved transcript context, or
// from general knowledge when the context is blank.
func (o *Orchestrator) Answer(ctx context.Context, idx index.Index, query string) (Result, error) {
	if reply, ok := o.static.Respond(query); ok {
		slog.DebugContext(ctx, "static reply matched")
		return Result{Text: reply, Mode: ModeStatic}, nil
	}

	if idx == nil {
		return Result{}, ErrNoVideo
	}

	hits, err := o.retriever.Retrieve(ctx, idx, query)
	if err != nil {
		return Result{}, fmt.Errorf("%w: retrieve context: %v", ErrService, err)
	}

	transcript := JoinContext(hits)
	if strings.TrimSpace(transcript) != "" {
		out, err := o.generator.Generate(ctx, GroundedPrompt(transcript, query), GroundedTemperature)
		if err != nil {
			return Result{}, fmt.Errorf("%w: generate answer: %v", ErrService, err)
		}
		return Result{Text: out, Mode: ModeGrounded}, nil
	}

	slog.InfoContext(ctx, "no transcript context, answering from general knowledge", "hits", len(hits))
	out, err := o.generator.Generate(ctx, query, FallbackTemperature)
	if err != nil {
		return Result{}, fmt.Errorf("%w: generate fallback: %v", ErrService, err)
	}
	return Result{Text: FallbackPrefix + out, Mode: ModeFallback}, nil
}

// JoinContext concatenates hit contents in the order returned.
func JoinContext(hits []index.Hit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Chunk.Content
	}
	return strings.Join(parts, "\n\n")
}

func GroundedPrompt(transcript, question string) string {
	return "You are a helpful assistant.\n" +
		"Only use the following transcript context to answer:\n\n" +
		transcript + "\n\n" +
		"Question: " + question
}
