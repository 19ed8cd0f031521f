package retrieval

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vidchat/internal/index"
	"vidchat/internal/middleware"
)

// QueryLogEntry records one retrieval against a session's transcript index:
// which chunks were picked and how close they were.
type QueryLogEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"session_id,omitempty"`
	CorrelationID string    `json:"correlation_id"`
	Query         string    `json:"query"`
	TopK          int       `json:"top_k"`
	IndexSize     int       `json:"index_size"`
	NumResults    int       `json:"num_results"`
	ChunkIndexes  []int     `json:"chunk_indexes"`
	Scores        []float32 `json:"scores"`
	LatencyMs     int64     `json:"latency_ms"`
	Error         string    `json:"error,omitempty"`
}

func newQueryLogEntry(ctx context.Context, query string, topK int, elapsed time.Duration) QueryLogEntry {
	return QueryLogEntry{
		SessionID:     middleware.GetSessionID(ctx),
		CorrelationID: middleware.GetCorrelationID(ctx),
		Query:         query,
		TopK:          topK,
		LatencyMs:     elapsed.Milliseconds(),
		ChunkIndexes:  []int{},
		Scores:        []float32{},
	}
}

// withHits fills the chunk positions and scores in rank order.
func (e QueryLogEntry) withHits(size int, hits []index.Hit) QueryLogEntry {
	e.IndexSize = size
	e.NumResults = len(hits)
	for _, h := range hits {
		e.ChunkIndexes = append(e.ChunkIndexes, h.Chunk.Index)
		e.Scores = append(e.Scores, h.Score)
	}
	return e
}

// QueryLogger writes one JSON line per retrieval.
type QueryLogger struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

func NewQueryLogger(w io.Writer) *QueryLogger {
	return &QueryLogger{enc: json.NewEncoder(w)}
}

// NewFileQueryLogger appends entries to path and mirrors them to stdout.
func NewFileQueryLogger(path string) (*QueryLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path is from application config, not user input
	if err != nil {
		return nil, err
	}
	l := NewQueryLogger(io.MultiWriter(os.Stdout, f))
	l.closer = f
	return l, nil
}

// Log writes entry, stamping it when the caller left the time unset.
func (l *QueryLogger) Log(entry QueryLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(entry); err != nil {
		slog.Error("failed to write query log entry", "error", err)
	}
}

// Close releases the log file, if any.
func (l *QueryLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
