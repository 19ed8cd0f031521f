package text

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString("word")
		b.WriteString(strings.Repeat("x", i%7))
	}
	return b.String()
}

func TestSplit(t *testing.T) {
	t.Run("Short Text Single Chunk", func(t *testing.T) {
		chunks := Split("  a short transcript  ", ChunkSize, ChunkOverlap)
		require.Len(t, chunks, 1)
		assert.Equal(t, "a short transcript", chunks[0].Content)
		assert.Equal(t, 0, chunks[0].Index)
	})

	t.Run("Empty Text", func(t *testing.T) {
		assert.Empty(t, Split("", ChunkSize, ChunkOverlap))
		assert.Empty(t, Split(" \n\n ", ChunkSize, ChunkOverlap))
	})

	t.Run("Long Transcript Respects Size", func(t *testing.T) {
		text := words(2000)
		chunks := Split(text, ChunkSize, ChunkOverlap)
		require.Greater(t, len(chunks), 1)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), ChunkSize)
			assert.NotEmpty(t, c.Content)
		}
	})

	t.Run("Consecutive Chunks Overlap", func(t *testing.T) {
		chunks := Split(words(2000), ChunkSize, ChunkOverlap)
		require.Greater(t, len(chunks), 1)
		for i := 1; i < len(chunks); i++ {
			prev := strings.Fields(chunks[i-1].Content)
			first := strings.Fields(chunks[i].Content)[0]
			assert.Contains(t, prev[len(prev)/2:], first, "chunk %d should start inside the tail of chunk %d", i, i-1)
		}
	})

	t.Run("Prefers Paragraph Boundaries", func(t *testing.T) {
		para := strings.Repeat("a", 600)
		text := para + "\n\n" + strings.Repeat("b", 600) + "\n\n" + strings.Repeat("c", 600)
		chunks := Split(text, 1500, 0)
		require.Len(t, chunks, 2)
		assert.Equal(t, para+"\n\n"+strings.Repeat("b", 600), chunks[0].Content)
		assert.Equal(t, strings.Repeat("c", 600), chunks[1].Content)
	})

	t.Run("Hard Cut Without Separators", func(t *testing.T) {
		text := strings.Repeat("z", 3200)
		chunks := Split(text, 1500, 300)
		require.Len(t, chunks, 3)
		assert.Equal(t, 1500, len(chunks[0].Content))
		assert.Equal(t, 1500, len(chunks[1].Content))
		assert.Equal(t, 800, len(chunks[2].Content))
	})

	t.Run("Deterministic", func(t *testing.T) {
		text := words(3000) + "\n\n" + words(500)
		first := Split(text, ChunkSize, ChunkOverlap)
		second := Split(text, ChunkSize, ChunkOverlap)
		assert.Equal(t, first, second)
	})
}

func TestContents(t *testing.T) {
	chunks := []Chunk{{Index: 0, Content: "a"}, {Index: 1, Content: "b"}}
	assert.Equal(t, []string{"a", "b"}, Contents(chunks))
}
