package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionBody = `{"id":"c1","object":"chat.completion","created":1,"model":"o4-mini",
	"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Cats."}}],
	"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`

func TestNewClient_Validation(t *testing.T) {
	t.Setenv("DOCQA_TEST_LLM_KEY", "")
	_, err := NewClient(Config{Provider: ProviderOpenAI, APIKeyEnv: "DOCQA_TEST_LLM_KEY"})
	assert.Error(t, err)

	t.Setenv("DOCQA_TEST_LLM_KEY", "k")
	_, err = NewClient(Config{Provider: ProviderAzure, APIKeyEnv: "DOCQA_TEST_LLM_KEY"})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewClient(Config{Provider: "bedrock", APIKeyEnv: "DOCQA_TEST_LLM_KEY"})
	assert.ErrorContains(t, err, "unknown llm provider")
}

func TestComplete_OpenAI(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	t.Setenv("DOCQA_TEST_LLM_KEY", "sk-test")
	c, err := NewClient(Config{
		Provider:    ProviderOpenAI,
		Endpoint:    srv.URL + "/",
		APIKeyEnv:   "DOCQA_TEST_LLM_KEY",
		Model:       "gpt-4o-mini",
		Temperature: DefaultTemperature,
	})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "What is paragraph A about?")
	require.NoError(t, err)
	assert.Equal(t, "Cats.", out)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.InDelta(t, 1.0, body["temperature"], 1e-9)

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "What is paragraph A about?", msg["content"])
}

func TestComplete_Azure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/o4-mini/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-12-01-preview", r.URL.Query().Get("api-version"))
		assert.Equal(t, "az-key", r.Header.Get("Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	t.Setenv("DOCQA_TEST_LLM_KEY", "az-key")
	c, err := NewClient(Config{
		Provider:  ProviderAzure,
		Endpoint:  srv.URL,
		APIKeyEnv: "DOCQA_TEST_LLM_KEY",
	})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Cats.", out)
}

func TestComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	t.Setenv("DOCQA_TEST_LLM_KEY", "sk-test")
	c, err := NewClient(Config{Provider: ProviderOpenAI, Endpoint: srv.URL + "/", APIKeyEnv: "DOCQA_TEST_LLM_KEY"})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "hi")
	assert.ErrorContains(t, err, "chat completion failed")
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	t.Setenv("DOCQA_TEST_LLM_KEY", "sk-test")
	c, err := NewClient(Config{Provider: ProviderOpenAI, Endpoint: srv.URL + "/", APIKeyEnv: "DOCQA_TEST_LLM_KEY"})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "hi")
	assert.ErrorContains(t, err, "no completion choices")
}
