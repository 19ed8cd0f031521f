package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidchat/internal/app"
	"vidchat/internal/config"
)

type statefulMockStore struct {
	callCount int
	failUntil int
	err       error
}

func (m *statefulMockStore) EnsureSchema(ctx context.Context) error {
	m.callCount++
	if m.callCount <= m.failUntil {
		return m.err
	}
	return nil
}

func TestEnsureSchemaWithRetry_Success(t *testing.T) {
	store := &statefulMockStore{}
	err := app.EnsureSchemaWithRetry(context.Background(), store, 1, time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.callCount)
}

func TestEnsureSchemaWithRetry_Retries(t *testing.T) {
	store := &statefulMockStore{failUntil: 2, err: errors.New("schema error")}
	err := app.EnsureSchemaWithRetry(context.Background(), store, 5, time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 3, store.callCount)
}

func TestEnsureSchemaWithRetry_Fail(t *testing.T) {
	store := &statefulMockStore{failUntil: 100, err: errors.New("permanent error")}
	err := app.EnsureSchemaWithRetry(context.Background(), store, 3, time.Millisecond)
	assert.EqualError(t, err, "permanent error")
	assert.Equal(t, 3, store.callCount)
}

func TestBootstrap_MemoryOnly(t *testing.T) {
	cfg := &config.Config{IndexBackend: config.BackendMemory}

	deps, err := app.Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, deps.DB)
	assert.Nil(t, deps.Weaviate)
	assert.Nil(t, deps.NSQProducer)
	deps.Close()
}

func TestBootstrap_Resilience_DBDown(t *testing.T) {
	cfg := &config.Config{
		IndexBackend:               config.BackendMemory,
		EnableTurnLog:              true,
		DBHost:                     "localhost",
		DBPort:                     54322, // Random port likely closed
		DBUser:                     "test",
		DBPass:                     "test",
		DBName:                     "test",
		BootstrapRetryAttempts:     1,
		BootstrapRetryDelaySeconds: 0,
	}

	start := time.Now()
	deps, err := app.Bootstrap(context.Background(), cfg)
	duration := time.Since(start)

	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "failed to ping db")
	assert.Less(t, duration, 2*time.Second)
}

func TestBootstrap_Resilience_WeaviateDown(t *testing.T) {
	cfg := &config.Config{
		IndexBackend:               config.BackendWeaviate,
		WeaviateHost:               "localhost:54323",
		WeaviateScheme:             "http",
		BootstrapRetryAttempts:     2,
		BootstrapRetryDelaySeconds: 0,
	}

	deps, err := app.Bootstrap(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "weaviate schema error")
}
