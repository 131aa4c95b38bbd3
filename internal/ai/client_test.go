package ai

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := exponentialBackoff(2)

	assert.Equal(t, time.Second, backoff(time.Second, 30*time.Second, 0, nil))
	assert.Equal(t, 2*time.Second, backoff(time.Second, 30*time.Second, 1, nil))
	assert.Equal(t, 8*time.Second, backoff(time.Second, 30*time.Second, 3, nil))
	assert.Equal(t, 30*time.Second, backoff(time.Second, 30*time.Second, 10, nil))

	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	resp.Header.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, backoff(time.Second, 30*time.Second, 0, resp))

	// Retry-After only counts for throttling responses.
	resp.StatusCode = http.StatusBadGateway
	assert.Equal(t, time.Second, backoff(time.Second, 30*time.Second, 0, resp))
}

func TestNewLLM(t *testing.T) {
	client := NewHTTPClient(Config{MaxRetries: 1, Timeout: time.Second})
	assert.Equal(t, time.Second, client.Timeout)

	for _, p := range []Provider{ProviderOpenAI, ProviderOpenRouter} {
		_, err := NewLLM(Config{Provider: p, APIKey: "key"}, "gpt-4o-mini", client)
		assert.NoError(t, err, p)
	}

	_, err := NewLLM(Config{Provider: ProviderAzure, APIKey: "key"}, "gpt-4o-mini", client)
	assert.Error(t, err)

	_, err = NewLLM(Config{Provider: ProviderAzure, APIKey: "key", BaseURL: "https://x.openai.azure.com", EmbeddingModel: "text-embedding-3-small"}, "gpt-4o-mini", client)
	assert.NoError(t, err)

	_, err = NewLLM(Config{Provider: "anthropic", APIKey: "key"}, "x", client)
	assert.Error(t, err)
}

func TestNewModels(t *testing.T) {
	models, err := NewModels(Config{
		Provider:  ProviderOpenRouter,
		APIKey:    "key",
		Model:     "openai/gpt-4o-mini",
		FastModel: "google/gemma-3-12b-it",
	})
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o-mini", models.Default.Name)
	assert.Equal(t, "openai/gpt-4o-mini", models.Vision.Name)
	assert.Equal(t, "google/gemma-3-12b-it", models.Fast.Name)
	assert.NotNil(t, models.Embeddings)
}
