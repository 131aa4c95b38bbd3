package vectordb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/azureaisearch"
)

const azureSearchAPIVersion = "2023-11-01"

// filteredSearchFactor widens a filtered Azure AI Search query. Metadata is
// stored as one JSON string there, so item filters are applied to the hits.
const filteredSearchFactor = 10

// AzureSearch stores each collection as an Azure AI Search index.
type AzureSearch struct {
	cfg   Config
	store *azureaisearch.Store
	rest  *restClient
}

func NewAzureSearch(cfg Config, embedder embeddings.Embedder, client *http.Client) (*AzureSearch, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("azure ai search requires a url")
	}

	opts := []azureaisearch.Option{
		azureaisearch.WithEndpoint(cfg.URL),
		azureaisearch.WithAPIKey(cfg.APIKey),
		azureaisearch.WithEmbedder(embedder),
	}
	if client != nil {
		opts = append(opts, azureaisearch.WithHTTPClient(client))
	}

	store, err := azureaisearch.New(opts...)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["api-key"] = cfg.APIKey
	}

	return &AzureSearch{
		cfg:   cfg,
		store: &store,
		rest:  newRESTClient(cfg.URL, headers, client),
	}, nil
}

func (a *AzureSearch) EnsureCollection(ctx context.Context, name string) error {
	path := fmt.Sprintf("/indexes/%v?api-version=%v", url.PathEscape(name), azureSearchAPIVersion)
	status, err := a.rest.do(ctx, http.MethodGet, path, nil, nil)
	if err == nil {
		return nil
	}
	if status != http.StatusNotFound {
		return err
	}

	return a.store.CreateIndex(ctx, name, withVectorDimensions(a.cfg.EmbeddingSize))
}

func (a *AzureSearch) DeleteCollection(ctx context.Context, name string) error {
	return a.store.DeleteIndex(ctx, name)
}

func (a *AzureSearch) Upsert(ctx context.Context, name string, records []Record) error {
	return upsertInBatches(ctx, records, a.cfg.BatchSize, func(ctx context.Context, batch []Record) error {
		_, err := a.store.AddDocuments(ctx, toDocuments(batch), vectorstores.WithNameSpace(name))
		return err
	})
}

func (a *AzureSearch) Search(ctx context.Context, name, query string, limit int, filter ItemFilter) ([]Match, error) {
	k := limit
	if !filter.Empty() {
		k = limit * filteredSearchFactor
	}

	docs, err := a.store.SimilaritySearch(ctx, query, k, vectorstores.WithNameSpace(name))
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, limit)
	for _, m := range toMatches(docs) {
		if !filter.matches(m.Metadata) {
			continue
		}
		matches = append(matches, m)
		if len(matches) == limit {
			break
		}
	}

	return matches, nil
}

func (a *AzureSearch) Ping(ctx context.Context) error {
	var out map[string]interface{}
	return a.store.ListIndexes(ctx, &out)
}

func withVectorDimensions(size int) azureaisearch.IndexOption {
	return func(index *map[string]interface{}) {
		fields, _ := (*index)["fields"].([]map[string]interface{})
		for _, f := range fields {
			if f["name"] == "contentVector" {
				f["dimensions"] = size
			}
		}
	}
}
