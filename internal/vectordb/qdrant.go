package vectordb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/qdrant"
)

// Qdrant keeps one langchaingo store per collection for points and uses the
// REST API directly for collection management.
type Qdrant struct {
	cfg      Config
	url      url.URL
	embedder embeddings.Embedder
	rest     *restClient

	mu     sync.Mutex
	stores map[string]qdrant.Store
}

func NewQdrant(cfg Config, embedder embeddings.Embedder, client *http.Client) (*Qdrant, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant requires a url")
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["api-key"] = cfg.APIKey
	}

	return &Qdrant{
		cfg:      cfg,
		url:      *u,
		embedder: embedder,
		rest:     newRESTClient(cfg.URL, headers, client),
		stores:   map[string]qdrant.Store{},
	}, nil
}

func (q *Qdrant) store(name string) (qdrant.Store, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if s, ok := q.stores[name]; ok {
		return s, nil
	}

	s, err := qdrant.New(
		qdrant.WithURL(q.url),
		qdrant.WithAPIKey(q.cfg.APIKey),
		qdrant.WithCollectionName(name),
		qdrant.WithEmbedder(q.embedder),
	)
	if err != nil {
		return qdrant.Store{}, err
	}

	q.stores[name] = s
	return s, nil
}

func (q *Qdrant) EnsureCollection(ctx context.Context, name string) error {
	status, err := q.rest.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(name), nil, nil)
	if err == nil {
		return nil
	}
	if status != http.StatusNotFound {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     q.cfg.EmbeddingSize,
			"distance": "Cosine",
		},
	}
	_, err = q.rest.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(name), body, nil)
	return err
}

func (q *Qdrant) DeleteCollection(ctx context.Context, name string) error {
	_, err := q.rest.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(name), nil, nil)
	return err
}

func (q *Qdrant) Upsert(ctx context.Context, name string, records []Record) error {
	s, err := q.store(name)
	if err != nil {
		return err
	}

	return upsertInBatches(ctx, records, q.cfg.BatchSize, func(ctx context.Context, batch []Record) error {
		_, err := s.AddDocuments(ctx, toDocuments(batch))
		return err
	})
}

func (q *Qdrant) Search(ctx context.Context, name, query string, limit int, filter ItemFilter) ([]Match, error) {
	s, err := q.store(name)
	if err != nil {
		return nil, err
	}

	var opts []vectorstores.Option
	if !filter.Empty() {
		opts = append(opts, vectorstores.WithFilters(qdrantFilter(filter)))
	}

	docs, err := s.SimilaritySearch(ctx, query, limit, opts...)
	if err != nil {
		return nil, err
	}

	return toMatches(docs), nil
}

func (q *Qdrant) Ping(ctx context.Context) error {
	_, err := q.rest.do(ctx, http.MethodGet, "/collections", nil, nil)
	return err
}

func qdrantFilter(filter ItemFilter) map[string]any {
	return map[string]any{
		"must": []map[string]any{{
			"key":   ItemIDKey,
			"match": map[string]any{"any": filter.ItemIDs},
		}},
	}
}
