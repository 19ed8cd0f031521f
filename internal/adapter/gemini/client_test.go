package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"vidchat/internal/adapter/gemini"
)

func TestEmbedder(t *testing.T) {
	// The client appends /v1beta/models/... to the endpoint; route on the method suffix.
	var batchSizes []int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":batchEmbedContents") {
			var req struct {
				Requests []json.RawMessage `json:"requests"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			batchSizes = append(batchSizes, len(req.Requests))

			embeddings := make([]map[string]interface{}, len(req.Requests))
			for i := range embeddings {
				embeddings[i] = map[string]interface{}{"values": []float32{float32(i), 1}}
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": embeddings})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": map[string]interface{}{
				"values": []float32{0.1, 0.2, 0.3},
			},
		})
	}))
	defer ts.Close()

	ctx := context.Background()
	e, err := gemini.NewEmbedder(ctx, "test-key", "", option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer e.Close()

	t.Run("Embed", func(t *testing.T) {
		vec, err := e.Embed(ctx, "hello world")
		assert.NoError(t, err)
		if assert.Len(t, vec, 3) {
			assert.Equal(t, float32(0.1), vec[0])
		}
	})

	t.Run("EmbedBatch Splits Requests", func(t *testing.T) {
		batchSizes = nil
		texts := make([]string, 150)
		for i := range texts {
			texts[i] = "chunk"
		}

		vecs, err := e.EmbedBatch(ctx, texts)
		require.NoError(t, err)
		assert.Len(t, vecs, 150)
		assert.Equal(t, []int{100, 50}, batchSizes)
		assert.Equal(t, float32(99), vecs[99][0])
		assert.Equal(t, float32(0), vecs[100][0])
	})

	t.Run("EmbedBatch Empty", func(t *testing.T) {
		vecs, err := e.EmbedBatch(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, vecs)
	})
}

func TestEmbedder_MissingAPIKey(t *testing.T) {
	e, err := gemini.NewEmbedder(context.Background(), "", "")
	assert.Nil(t, e)
	assert.ErrorContains(t, err, "gemini api key not configured")
}

func TestGenerator(t *testing.T) {
	var gotTemp float64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GenerationConfig struct {
				Temperature float64 `json:"temperature"`
			} `json:"generationConfig"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotTemp = req.GenerationConfig.Temperature

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"role":  "model",
						"parts": []map[string]interface{}{{"text": "The video "}, {"text": "is about Go."}},
					},
				},
			},
		})
	}))
	defer ts.Close()

	ctx := context.Background()
	g, err := gemini.NewGenerator(ctx, "test-key", "", option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer g.Close()

	out, err := g.Generate(ctx, "What is the video about?", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "The video is about Go.", out)
	assert.InDelta(t, 0.2, gotTemp, 1e-6)
}

func TestGenerator_EmptyResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer ts.Close()

	ctx := context.Background()
	g, err := gemini.NewGenerator(ctx, "test-key", "", option.WithEndpoint(ts.URL))
	require.NoError(t, err)

	_, err = g.Generate(ctx, "hi", 0.5)
	assert.ErrorIs(t, err, gemini.ErrEmptyResponse)
}
