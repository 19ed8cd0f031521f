package text

import (
	"strings"
	"unicode/utf8"
)

const (
	ChunkSize    = 1500
	ChunkOverlap = 300
)

// Separators are tried in order: paragraph, line, word, then a hard cut.
var Separators = []string{"\n\n", "\n", " ", ""}

type Chunk struct {
	Index   int
	Content string
}

// Split cuts text into ordered chunks of at most size characters, with up
// to overlap characters repeated between neighbours. Natural boundaries are
// preferred; the empty separator falls back to a per-rune cut.
func Split(text string, size, overlap int) []Chunk {
	if size <= 0 {
		size = ChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	s := splitter{size: size, overlap: overlap}
	pieces := s.split(text, Separators)

	chunks := make([]Chunk, 0, len(pieces))
	for _, p := range pieces {
		chunks = append(chunks, Chunk{Index: len(chunks), Content: p})
	}
	return chunks
}

// Contents returns the chunk texts in order.
func Contents(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

type splitter struct {
	size    int
	overlap int
}

func (s splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var final []string
	var good []string
	for _, piece := range splitOn(text, separator) {
		if length(piece) < s.size {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

// merge packs pieces into windows no longer than size, keeping a tail of
// at most overlap characters from the previous window.
func (s splitter) merge(pieces []string, separator string) []string {
	sepLen := length(separator)

	var docs []string
	var current []string
	total := 0

	joinedLen := func(n int) int {
		if len(current) > 0 {
			return total + n + sepLen
		}
		return total + n
	}

	for _, p := range pieces {
		n := length(p)
		if joinedLen(n) > s.size && len(current) > 0 {
			if doc := join(current, separator); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.overlap || (joinedLen(n) > s.size && total > 0) {
				drop := length(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}

	if doc := join(current, separator); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func splitOn(text, separator string) []string {
	var parts []string
	if separator == "" {
		parts = make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(text, separator)
	}

	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func join(parts []string, separator string) string {
	return strings.TrimSpace(strings.Join(parts, separator))
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
