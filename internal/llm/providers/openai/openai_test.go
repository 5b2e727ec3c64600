// internal/llm/providers/openai/openai_test.go
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/ContinuityGuard/internal/llm"
)

func chatServer(t *testing.T, status int, body string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompleteText(t *testing.T) {
	var seen map[string]interface{}
	srv := chatServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o-2024-08-06",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"ok\":true}"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 11, "completion_tokens": 4, "total_tokens": 15}
	}`, &seen)

	provider, err := llm.GetProvider("openai", map[string]string{"api_key": "sk-test", "base_url": srv.URL})
	require.NoError(t, err)

	resp, err := provider.CompleteText(context.Background(), llm.CompletionRequest{
		SystemPrompt: "be a line producer",
		Prompt:       "INT. ROOM - DAY",
		Temperature:  0.2,
		JSONMode:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 15, resp.TokensUsed)
	assert.Equal(t, "OpenAI", resp.ProviderName)

	assert.Equal(t, "gpt-4o-2024-08-06", seen["model"])
	format, ok := seen["response_format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
	messages, ok := seen["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestCompleteTextAPIError(t *testing.T) {
	srv := chatServer(t, http.StatusUnauthorized,
		`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`, nil)

	provider, err := llm.GetProvider("openai", map[string]string{"api_key": "sk-test", "base_url": srv.URL})
	require.NoError(t, err)

	_, err = provider.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCompleteTextNoChoices(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"id": "x", "object": "chat.completion", "choices": []}`, nil)

	provider, err := llm.GetProvider("openai", map[string]string{"api_key": "sk-test", "base_url": srv.URL})
	require.NoError(t, err)

	_, err = provider.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestInitializeRequiresKey(t *testing.T) {
	_, err := llm.GetProvider("openai", map[string]string{})
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestRegisteredProviders(t *testing.T) {
	assert.Subset(t, llm.ListProviders(), []string{"openai", "openrouter"})
	assert.NotEmpty(t, llm.GetSupportedModelsForProvider("openrouter"))

	_, err := llm.GetProvider("nope", nil)
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)
}
