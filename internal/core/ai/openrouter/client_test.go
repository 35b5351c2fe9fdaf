package openrouter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-linker/internal/core/ai/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(provider.Config{
		APIKey:      "sk-test",
		Model:       "test/model",
		BaseURL:     srv.URL + "/",
		Timeout:     5 * time.Second,
		MaxTokens:   512,
		Temperature: 0.2,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGenerate(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-1","choices":[{"message":{"role":"assistant","content":"{\"associations\":[]}"}}],"usage":{"total_tokens":42}}`))
	})

	resp, err := c.Generate(t.Context(), &provider.Request{
		Messages: []provider.Message{{Role: "user", Content: "hi"}},
		JSONMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"associations":[]}`, resp.Content)
	assert.Equal(t, 42, resp.Usage.TotalTokens)

	assert.Equal(t, "test/model", got.Model)
	assert.Equal(t, 512, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Equal(t, "test/model", c.GetModel())
}

func TestGenerateErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	})

	_, err := c.Generate(t.Context(), &provider.Request{
		Messages: []provider.Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGenerateEmptyContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-2","choices":[]}`))
	})

	_, err := c.Generate(t.Context(), &provider.Request{
		Messages: []provider.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorIs(t, err, provider.ErrEmptyContent)
}
