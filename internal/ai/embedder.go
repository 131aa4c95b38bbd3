package ai

import (
	"github.com/tmc/langchaingo/embeddings"
)

// NewEmbedder creates the embedder used for reference data and searches.
// The embedding model and dimensions come from the client's options.
func NewEmbedder(client embeddings.EmbedderClient) (embeddings.Embedder, error) {
	return embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(512),
		embeddings.WithStripNewLines(false),
	)
}
