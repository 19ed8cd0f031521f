package static_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vidchat/internal/static"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello there", static.Normalize("  Hello!! there "))
	assert.Equal(t, "how are you", static.Normalize("HOW ARE YOU?"))
	assert.Equal(t, "whats up", static.Normalize("What's up"))
	assert.Equal(t, "snake_case ok", static.Normalize("snake_case, ok."))
}

func TestResponder_Respond(t *testing.T) {
	r := static.NewResponder(static.DefaultTable())

	t.Run("Greeting With Punctuation", func(t *testing.T) {
		reply, ok := r.Respond("Hello!! there")
		assert.True(t, ok)
		assert.Equal(t, "Hello! Ready to dive into the video?", reply)
	})

	t.Run("Upper Case Question", func(t *testing.T) {
		reply, ok := r.Respond("HOW ARE YOU?")
		assert.True(t, ok)
		assert.Equal(t, "Running at 100% efficiency. And you?", reply)
	})

	t.Run("Apostrophe Keys Never Match", func(t *testing.T) {
		for _, q := range []string{
			"so what's up?",
			"What's up with the second half of the video?",
			"I’m bored of the intro, what comes next?",
		} {
			reply, ok := r.Respond(q)
			assert.False(t, ok, q)
			assert.Empty(t, reply, q)
		}
	})

	t.Run("No Match", func(t *testing.T) {
		reply, ok := r.Respond("Explain quantum entanglement")
		assert.False(t, ok)
		assert.Empty(t, reply)
	})

	t.Run("Empty", func(t *testing.T) {
		_, ok := r.Respond("?!")
		assert.False(t, ok)
	})

	t.Run("Substring Matches Inside Words", func(t *testing.T) {
		// "which" contains "hi", the first key in the table.
		reply, ok := r.Respond("Which algorithm was used?")
		assert.True(t, ok)
		assert.Equal(t, "Hey there! 👋", reply)
	})
}

func TestResponder_FirstMatchWins(t *testing.T) {
	table := static.NewTable([]static.Entry{
		{Key: "thank you", Reply: "first"},
		{Key: "thanks", Reply: "second"},
		{Key: "you", Reply: "third"},
	})
	r := static.NewResponder(table)

	reply, ok := r.Respond("thank you, thanks!")
	assert.True(t, ok)
	assert.Equal(t, "first", reply)

	reply, ok = r.Respond("thanks")
	assert.True(t, ok)
	assert.Equal(t, "second", reply)
}

func TestTable(t *testing.T) {
	table := static.DefaultTable()
	assert.Equal(t, 31, table.Len())

	entries := table.Entries()
	assert.Equal(t, "hi", entries[0].Key)
	assert.Equal(t, "what's up", entries[7].Key)

	entries[0].Reply = "mutated"
	assert.NotEqual(t, "mutated", table.Entries()[0].Reply)

	skipped := static.NewTable([]static.Entry{{Key: "  ", Reply: "x"}, {Key: " OK ", Reply: "y"}})
	assert.Equal(t, 1, skipped.Len())
	assert.Equal(t, "ok", skipped.Entries()[0].Key)
}
