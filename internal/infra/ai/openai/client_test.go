package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/aegis-console/internal/domain/ai"
	"github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

func chatServer(t *testing.T, status int, body any) (*httptest.Server, *map[string]any) {
	t.Helper()
	got := map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestBrief(t *testing.T) {
	srv, got := chatServer(t, http.StatusOK, map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": `{"headline":"Two critical risks","priorities":["rotate keys"],"advice":"act now"}`,
			},
		}},
	})
	c := NewClientWithBaseURL("sk-test", "", srv.URL+"/v1")

	b, err := c.Brief(context.Background(), "a1", &analysis.Result{})
	require.NoError(t, err)
	assert.Equal(t, "Two critical risks", b.Headline)
	assert.Equal(t, []string{"rotate keys"}, b.Priorities)

	assert.Equal(t, "gpt-4o-mini", (*got)["model"])
	assert.Contains(t, *got, "max_tokens")
	format, _ := (*got)["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
}

func TestBrief_ReasoningModelUsesCompletionTokens(t *testing.T) {
	srv, got := chatServer(t, http.StatusOK, map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": `{"headline":"h"}`}}},
	})
	c := NewClientWithBaseURL("sk-test", "o3-mini", srv.URL+"/v1")

	_, err := c.Brief(context.Background(), "a1", &analysis.Result{})
	require.NoError(t, err)
	assert.Contains(t, *got, "max_completion_tokens")
	assert.NotContains(t, *got, "max_tokens")
}

func TestBrief_QuotaExceeded(t *testing.T) {
	srv, _ := chatServer(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"message": "You exceeded your current quota", "type": "insufficient_quota"},
	})
	c := NewClientWithBaseURL("sk-test", "gpt-4o-mini", srv.URL+"/v1")

	_, err := c.Brief(context.Background(), "a1", &analysis.Result{})
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)
}

func TestBrief_EmptyChoices(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, map[string]any{"choices": []any{}})
	c := NewClientWithBaseURL("sk-test", "gpt-4o-mini", srv.URL+"/v1")

	_, err := c.Brief(context.Background(), "a1", &analysis.Result{})
	assert.ErrorIs(t, err, domai.ErrEmptyCompletion)
}
