// Package vectordb stores item embeddings and searches them by similarity.
package vectordb

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
)

const (
	ProviderQdrant      = "qdrant"
	ProviderAzureSearch = "azuresearch"
	ProviderPinecone    = "pinecone"
	ProviderMemory      = "memory"
)

// ItemIDKey is the metadata key holding the item id of a record.
const ItemIDKey = "item_id"

const (
	DefaultEmbeddingSize = 768
	DefaultBatchSize     = 50
)

type Config struct {
	Provider string `mapstructure:"provider"`
	URL      string `mapstructure:"url"`
	APIKey   string `mapstructure:"api_key"`

	ReferenceCollection string `mapstructure:"reference_collection"`
	ResultsCollection   string `mapstructure:"results_collection"`

	EmbeddingSize int `mapstructure:"embedding_size"`
	BatchSize     int `mapstructure:"batch_size"`
}

// Record is a piece of text to embed together with its metadata.
type Record struct {
	Text     string
	Metadata map[string]any
}

// Match is a search hit. Higher scores are closer.
type Match struct {
	Text     string
	Metadata map[string]any
	Score    float32
}

// ItemID returns the item id stored in the match metadata.
func (m Match) ItemID() (int64, bool) {
	return toInt64(m.Metadata[ItemIDKey])
}

// String returns the metadata value under key as a string.
func (m Match) String(key string) string {
	s, _ := m.Metadata[key].(string)
	return s
}

// ItemFilter restricts a search to records of the given items. An empty
// filter matches everything.
type ItemFilter struct {
	ItemIDs []int64
}

func (f ItemFilter) Empty() bool {
	return len(f.ItemIDs) == 0
}

func (f ItemFilter) matches(metadata map[string]any) bool {
	if f.Empty() {
		return true
	}

	id, ok := toInt64(metadata[ItemIDKey])
	if !ok {
		return false
	}
	for _, want := range f.ItemIDs {
		if id == want {
			return true
		}
	}
	return false
}

// Store is a vector database holding named collections.
type Store interface {
	// EnsureCollection creates the collection unless it already exists.
	EnsureCollection(ctx context.Context, name string) error
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, name string, records []Record) error
	// Search returns up to limit records closest to query.
	Search(ctx context.Context, name, query string, limit int, filter ItemFilter) ([]Match, error)
	Ping(ctx context.Context) error
}

// New creates the store selected by cfg.Provider. client is used for the
// provider's REST administration calls.
func New(cfg Config, embedder embeddings.Embedder, client *http.Client) (Store, error) {
	if cfg.EmbeddingSize <= 0 {
		cfg.EmbeddingSize = DefaultEmbeddingSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	switch cfg.Provider {
	case ProviderQdrant, "":
		return NewQdrant(cfg, embedder, client)
	case ProviderAzureSearch:
		return NewAzureSearch(cfg, embedder, client)
	case ProviderPinecone:
		return NewPinecone(cfg, embedder, client)
	case ProviderMemory:
		return NewMemory(embedder, cfg.BatchSize), nil
	default:
		return nil, fmt.Errorf("unknown vector db provider: %v", cfg.Provider)
	}
}

func toDocuments(records []Record) []schema.Document {
	docs := make([]schema.Document, len(records))
	for i, r := range records {
		docs[i] = schema.Document{PageContent: r.Text, Metadata: r.Metadata}
	}
	return docs
}

func toMatches(docs []schema.Document) []Match {
	matches := make([]Match, len(docs))
	for i, d := range docs {
		matches[i] = Match{Text: d.PageContent, Metadata: d.Metadata, Score: d.Score}
	}
	return matches
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case float32:
		return int64(n), float32(math.Trunc(float64(n))) == n
	case float64:
		return int64(n), math.Trunc(n) == n
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
