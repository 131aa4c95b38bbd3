package vectordb

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/pinecone"
)

// Pinecone maps collections onto namespaces of a single index. A namespace
// exists as soon as it holds a vector, so EnsureCollection is a no-op.
type Pinecone struct {
	cfg   Config
	store pinecone.Store
	rest  *restClient
}

func NewPinecone(cfg Config, embedder embeddings.Embedder, client *http.Client) (*Pinecone, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("pinecone requires the index host as url")
	}

	store, err := pinecone.New(
		pinecone.WithHost(cfg.URL),
		pinecone.WithEmbedder(embedder),
		pinecone.WithAPIKey(cfg.APIKey),
	)
	if err != nil {
		return nil, err
	}

	return &Pinecone{
		cfg:   cfg,
		store: store,
		rest:  newPineconeREST(cfg, client),
	}, nil
}

func newPineconeREST(cfg Config, client *http.Client) *restClient {
	host := cfg.URL
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return newRESTClient(host, map[string]string{"Api-Key": cfg.APIKey}, client)
}

func (p *Pinecone) EnsureCollection(context.Context, string) error {
	return nil
}

func (p *Pinecone) DeleteCollection(ctx context.Context, name string) error {
	body := map[string]any{
		"deleteAll": true,
		"namespace": name,
	}
	_, err := p.rest.do(ctx, http.MethodPost, "/vectors/delete", body, nil)
	return err
}

func (p *Pinecone) Upsert(ctx context.Context, name string, records []Record) error {
	return upsertInBatches(ctx, records, p.cfg.BatchSize, func(ctx context.Context, batch []Record) error {
		_, err := p.store.AddDocuments(ctx, toDocuments(batch), vectorstores.WithNameSpace(name))
		return err
	})
}

func (p *Pinecone) Search(ctx context.Context, name, query string, limit int, filter ItemFilter) ([]Match, error) {
	opts := []vectorstores.Option{vectorstores.WithNameSpace(name)}
	if !filter.Empty() {
		opts = append(opts, vectorstores.WithFilters(pineconeFilter(filter)))
	}

	docs, err := p.store.SimilaritySearch(ctx, query, limit, opts...)
	if err != nil {
		return nil, err
	}

	return toMatches(docs), nil
}

func (p *Pinecone) Ping(ctx context.Context) error {
	_, err := p.rest.do(ctx, http.MethodPost, "/describe_index_stats", map[string]any{}, nil)
	return err
}

func pineconeFilter(filter ItemFilter) map[string]any {
	ids := make([]any, len(filter.ItemIDs))
	for i, id := range filter.ItemIDs {
		ids[i] = float64(id)
	}
	return map[string]any{
		ItemIDKey: map[string]any{"$in": ids},
	}
}
