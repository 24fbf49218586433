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

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv("DOCQA_TEST_EMBED_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "DOCQA_TEST_EMBED_KEY"})
	assert.Error(t, err)
}

func TestEmbed(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.25,-0.5,1]}],
			"usage":{"prompt_tokens":2,"total_tokens":2}}`))
	}))
	defer srv.Close()

	t.Setenv("DOCQA_TEST_EMBED_KEY", "sk-test")
	c, err := NewClient(Config{BaseURL: srv.URL + "/", APIKeyEnv: "DOCQA_TEST_EMBED_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())
	require.NoError(t, c.Prepare(nil))

	v, err := c.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, -0.5, 1}, v)
	assert.Equal(t, "hello world", body["input"])
	assert.Equal(t, DefaultModel, body["model"])
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	t.Setenv("DOCQA_TEST_EMBED_KEY", "sk-test")
	c, err := NewClient(Config{BaseURL: srv.URL + "/", APIKeyEnv: "DOCQA_TEST_EMBED_KEY"})
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), "x")
	assert.Error(t, err)
}
