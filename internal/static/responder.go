package static

import (
	"regexp"
	"strings"
)

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Entry maps a small-talk key phrase to its canned reply.
type Entry struct {
	Key   string
	Reply string
}

// Table is an ordered, read-only list of entries. Earlier entries win when
// a query contains several keys.
type Table struct {
	entries []Entry
}

// NewTable copies entries with their keys lowercased and trimmed. Keys are
// not stripped of punctuation, so a key such as "what's up" never matches a
// normalized query. Entries with a blank key are skipped.
func NewTable(entries []Entry) Table {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Key))
		if key == "" {
			continue
		}
		out = append(out, Entry{Key: key, Reply: e.Reply})
	}
	return Table{entries: out}
}

func (t Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the table in precedence order.
func (t Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

type Responder struct {
	table Table
}

func NewResponder(t Table) *Responder {
	return &Responder{table: t}
}

// Respond returns the reply of the first key contained in the normalized
// query. Matching is plain substring containment.
func (r *Responder) Respond(query string) (string, bool) {
	normalized := Normalize(query)
	if normalized == "" {
		return "", false
	}
	for _, e := range r.table.entries {
		if strings.Contains(normalized, e.Key) {
			return e.Reply, true
		}
	}
	return "", false
}

// Normalize lowercases s, trims it, and strips every rune that is neither a
// word character nor whitespace.
func Normalize(s string) string {
	return nonWordRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}
