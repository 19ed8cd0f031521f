package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidchat/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, 1500, cfg.ChunkSize)
	assert.Equal(t, 300, cfg.ChunkOverlap)
	assert.Equal(t, 6, cfg.RetrievalTopK)
	assert.Equal(t, config.BackendMemory, cfg.IndexBackend)
	assert.Equal(t, []string{"en-US", "en"}, cfg.TranscriptLanguages)
	assert.False(t, cfg.EnableTurnLog)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay())
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout())
}

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingRequired)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")
	content := []byte("GEMINI_API_KEY=loaded-from-file\nCHUNK_SIZE=800\n")
	err := os.WriteFile(".env", content, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")
	defer os.Unsetenv("CHUNK_SIZE")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "loaded-from-file", cfg.GeminiAPIKey)
	assert.Equal(t, 800, cfg.ChunkSize)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("INDEX_BACKEND", "weaviate")
	t.Setenv("ENABLE_TURN_LOG", "true")
	t.Setenv("TRANSCRIPT_LANGUAGES", "de,en")
	t.Setenv("RETRIEVAL_TOP_K", "3")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.BackendWeaviate, cfg.IndexBackend)
	assert.True(t, cfg.EnableTurnLog)
	assert.Equal(t, []string{"de", "en"}, cfg.TranscriptLanguages)
	assert.Equal(t, 3, cfg.RetrievalTopK)
}

func TestConfig_DSN(t *testing.T) {
	cfg := config.Config{DBHost: "db", DBPort: 5432, DBUser: "u", DBPass: "p", DBName: "n"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.DSN())
}
