package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidchat/internal/index"
	"vidchat/internal/middleware"
	"vidchat/internal/text"
)

func TestQueryLogger_ThreadSafety(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQueryLogger(&buf)

	concurrency := 50
	iterations := 100
	var wg sync.WaitGroup

	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				logger.Log(newQueryLogEntry(context.Background(), "what does the speaker say about goroutines?", 6, time.Millisecond))
			}
		}()
	}
	wg.Wait()

	decoder := json.NewDecoder(&buf)
	count := 0
	for decoder.More() {
		var entry QueryLogEntry
		require.NoError(t, decoder.Decode(&entry), "entry %d", count)
		assert.Equal(t, int64(1), entry.LatencyMs)
		assert.Equal(t, 6, entry.TopK)
		assert.False(t, entry.Timestamp.IsZero())
		count++
	}
	assert.Equal(t, concurrency*iterations, count)
}

func TestQueryLogEntry_WithHits(t *testing.T) {
	ctx := middleware.WithSessionID(middleware.WithCorrelationID(context.Background(), "c1"), "s1")
	hits := []index.Hit{
		{Chunk: text.Chunk{Index: 4, Content: "e"}, Score: 0.9},
		{Chunk: text.Chunk{Index: 1, Content: "b"}, Score: 0.4},
	}

	entry := newQueryLogEntry(ctx, "q", 6, 2*time.Millisecond).withHits(10, hits)

	assert.Equal(t, "s1", entry.SessionID)
	assert.Equal(t, "c1", entry.CorrelationID)
	assert.Equal(t, 10, entry.IndexSize)
	assert.Equal(t, 2, entry.NumResults)
	assert.Equal(t, []int{4, 1}, entry.ChunkIndexes)
	assert.Equal(t, []float32{0.9, 0.4}, entry.Scores)
	assert.Equal(t, int64(2), entry.LatencyMs)
}

func TestQueryLogger_KeepsCallerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	NewQueryLogger(&buf).Log(QueryLogEntry{Timestamp: at, Query: "q"})

	var entry QueryLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.True(t, at.Equal(entry.Timestamp))
}

func TestNewFileQueryLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "query.log")
	logger, err := NewFileQueryLogger(path)
	require.NoError(t, err)

	logger.Log(QueryLogEntry{Query: "file entry"})
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"query":"file entry"`)

	assert.NoError(t, NewQueryLogger(&bytes.Buffer{}).Close())
}
