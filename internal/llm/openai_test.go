package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, status int, reply string, got *chatRequest, auth *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
}

func TestOpenAI_Generate(t *testing.T) {
	var req chatRequest
	var auth string
	srv := newChatServer(t, http.StatusOK, "  Paris \n", &req, &auth)
	defer srv.Close()

	g := NewOpenAI(Config{URL: srv.URL, Model: "test-model", Token: "tok"})
	out, err := g.Generate(context.Background(), "Capital of France?", "Answer in one word.")
	require.NoError(t, err)

	assert.Equal(t, "Paris", out)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "test-model", req.Model)
	assert.InDelta(t, Temperature, req.Temperature, 0.001)
	assert.InDelta(t, TopP, req.TopP, 0.001)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "Answer in one word.", req.Messages[0].Content)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "Capital of France?", req.Messages[1].Content)
}

func TestOpenAI_NoSystemMessageWhenEmpty(t *testing.T) {
	var req chatRequest
	srv := newChatServer(t, http.StatusOK, "ok", &req, nil)
	defer srv.Close()

	_, err := NewOpenAI(Config{URL: srv.URL, Model: "m"}).Generate(context.Background(), "hi", "")
	require.NoError(t, err)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
}

func TestOpenAI_Non2xxIsTransportError(t *testing.T) {
	srv := newChatServer(t, http.StatusServiceUnavailable, "", nil, nil)
	defer srv.Close()

	_, err := NewOpenAI(Config{URL: srv.URL, Model: "m"}).Generate(context.Background(), "hi", "")
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ProviderOpenAI, te.Provider)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
}
