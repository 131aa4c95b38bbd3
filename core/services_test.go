package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"itemsclassification/internal/ai"
	"itemsclassification/internal/blob"
	"itemsclassification/internal/vectordb"
)

func memoryConfig() *Config {
	return &Config{
		LLM: ai.Config{
			Provider: ai.ProviderOpenAI,
			APIKey:   "test",
			Model:    "gpt-4o-mini",
		},
		VectorDB: vectordb.Config{
			Provider:            vectordb.ProviderMemory,
			ReferenceCollection: "reference_data",
			ResultsCollection:   "results_data",
		},
		Storage: blob.Config{
			Provider:        blob.ProviderMemory,
			ImagesContainer: "images",
		},
		Tasks: TasksConfig{MaxConcurrent: 1},
	}
}

func TestNewServices(t *testing.T) {
	ctx := context.Background()

	s, err := NewServices(ctx, memoryConfig(), nil, nil, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	assert.IsType(t, &vectordb.Memory{}, s.Store)
	assert.IsType(t, &blob.Memory{}, s.Storage)
	assert.Equal(t, "reference_data", s.SimSearch.ReferenceCollection)
	assert.Equal(t, "results_data", s.SimSearch.ResultsCollection)
	assert.Equal(t, "images", s.Batch.ImagesContainer)
	assert.Same(t, s.Colors, s.Batch.Colors)
	assert.NotNil(t, s.SimSearch.Describer)
	assert.NotEmpty(t, s.Taxonomy.Main)

	assert.NoError(t, s.Close(ctx))
}

func TestNewServicesInvalid(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t).Sugar()

	cfg := memoryConfig()
	cfg.Storage.Provider = "ftp"
	_, err := NewServices(ctx, cfg, nil, nil, logger)
	assert.EqualError(t, err, "unknown storage provider: ftp")

	cfg = memoryConfig()
	cfg.Resources = t.TempDir()
	_, err = NewServices(ctx, cfg, nil, nil, logger)
	assert.ErrorContains(t, err, "cannot load taxonomy")
}
