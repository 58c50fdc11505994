package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentipulse/internal/config"
	apierrors "sentipulse/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-3-flash-preview",
		BaseURL: srv.URL,
	}, slog.Default())
	return client, srv
}

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func TestGenerateJSON(t *testing.T) {
	t.Run("returns candidate text", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1beta/models/gemini-3-flash-preview:generateContent", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			gc, ok := body["generationConfig"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "application/json", gc["responseMimeType"])
			assert.NotNil(t, gc["responseJsonSchema"])

			json.NewEncoder(w).Encode(candidateResponse(`{"ok":true}`))
		})

		text, err := client.GenerateJSON(context.Background(), "prompt", map[string]any{"type": "object"})
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, text)
	})

	t.Run("concatenates parts of first candidate", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{
					map[string]any{
						"content": map[string]any{
							"parts": []any{
								map[string]any{"text": `{"a":`},
								map[string]any{"text": `1}`},
							},
						},
					},
				},
			})
		})

		text, err := client.GenerateJSON(context.Background(), "prompt", nil)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, text)
	})

	t.Run("missing key is a configuration error", func(t *testing.T) {
		client := NewClient(config.GeminiConfig{Model: "m", BaseURL: "http://unused"}, slog.Default())
		_, err := client.GenerateJSON(context.Background(), "prompt", nil)
		require.Error(t, err)
		assert.Equal(t, apierrors.KindConfiguration, apierrors.KindOf(err))
		assert.Contains(t, err.Error(), "GEMINI_API_KEY")
		assert.False(t, client.IsConfigured())
	})

	t.Run("non-OK status is an upstream error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		})

		_, err := client.GenerateJSON(context.Background(), "prompt", nil)
		require.Error(t, err)
		assert.Equal(t, apierrors.KindUpstream, apierrors.KindOf(err))
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("empty candidate text is an upstream error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
		})

		_, err := client.GenerateJSON(context.Background(), "prompt", nil)
		require.Error(t, err)
		assert.Equal(t, "Empty response from Gemini", err.Error())
		assert.Equal(t, apierrors.KindUpstream, apierrors.KindOf(err))
	})

	t.Run("cancelled context aborts the call", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(candidateResponse("{}"))
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.GenerateJSON(ctx, "prompt", nil)
		require.Error(t, err)
		assert.Equal(t, apierrors.KindUpstream, apierrors.KindOf(err))
	})
}
