package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradient/internal/config"
)

func newChatServer(t *testing.T, capture *chatRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
}

func TestCompleteUsesConfiguredDefaultTemperature(t *testing.T) {
	var got chatRequest
	srv := newChatServer(t, &got)
	defer srv.Close()

	c := NewClient(config.AIConfig{
		BaseURL:     srv.URL,
		Model:       "test-model",
		Timeout:     time.Second,
		Temperature: 0.35,
	})

	text, err := c.Complete(context.Background(), Request{Operation: "reply", System: "sys", User: "hello"})

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, "test-model", got.Model)
	assert.InDelta(t, 0.35, got.Temperature, 0.0001)
}

func TestCompleteRequestTemperatureOverridesDefault(t *testing.T) {
	var got chatRequest
	srv := newChatServer(t, &got)
	defer srv.Close()

	c := NewClient(config.AIConfig{
		BaseURL:     srv.URL,
		Model:       "test-model",
		Timeout:     time.Second,
		Temperature: 0.35,
	})

	_, err := c.Complete(context.Background(), Request{
		Operation:   "classify",
		System:      "sys",
		User:        "hello",
		JSONMode:    true,
		Temperature: 0.1,
	})

	require.NoError(t, err)
	assert.InDelta(t, 0.1, got.Temperature, 0.0001)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}
