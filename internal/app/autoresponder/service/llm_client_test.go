package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewpilot/internal/app/autoresponder/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLLMClient(serverURL string) *LLMClient {
	return NewLLMClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "deepseek-chat",
	})
}

func TestLLMComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deepseek-chat", req.Model)
		assert.Equal(t, 0.1, req.Temperature)
		assert.Equal(t, 4, req.MaxTokens)
		require.Len(t, req.Messages, 1)

		fmt.Fprint(w, `{"choices":[{"message":{"content":"positive"}}]}`)
	}))
	defer server.Close()

	client := newTestLLMClient(server.URL)
	out, err := client.Complete(context.Background(),
		[]ChatMessage{{Role: "system", Content: "classify this"}},
		CompletionOptions{Temperature: 0.1, MaxTokens: 4})

	require.NoError(t, err)
	assert.Equal(t, "positive", out)
}

func TestLLMComplete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key"}}`)
	}))
	defer server.Close()

	client := newTestLLMClient(server.URL)
	_, err := client.Complete(context.Background(),
		[]ChatMessage{{Role: "user", Content: "hello"}}, CompletionOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestLLMComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	client := newTestLLMClient(server.URL)
	_, err := client.Complete(context.Background(),
		[]ChatMessage{{Role: "user", Content: "hello"}}, CompletionOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
