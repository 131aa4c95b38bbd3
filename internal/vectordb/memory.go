package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
)

type memoryEntry struct {
	record Record
	vector []float32
}

// Memory is an in-process Store ranking by cosine similarity. It backs
// tests and local runs without a vector database.
type Memory struct {
	embedder  embeddings.Embedder
	batchSize int

	mu          sync.RWMutex
	collections map[string][]memoryEntry
}

func NewMemory(embedder embeddings.Embedder, batchSize int) *Memory {
	return &Memory{
		embedder:    embedder,
		batchSize:   batchSize,
		collections: map[string][]memoryEntry{},
	}
}

func (m *Memory) EnsureCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[name]; !ok {
		m.collections[name] = []memoryEntry{}
	}
	return nil
}

func (m *Memory) DeleteCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections, name)
	return nil
}

func (m *Memory) Upsert(ctx context.Context, name string, records []Record) error {
	if !m.exists(name) {
		return fmt.Errorf("collection %v not found", name)
	}

	return upsertInBatches(ctx, records, m.batchSize, func(ctx context.Context, batch []Record) error {
		texts := make([]string, len(batch))
		for i, r := range batch {
			texts[i] = r.Text
		}

		vectors, err := m.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedder returned %v vectors for %v records", len(vectors), len(batch))
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		if _, ok := m.collections[name]; !ok {
			return fmt.Errorf("collection %v not found", name)
		}
		for i, r := range batch {
			m.collections[name] = append(m.collections[name], memoryEntry{record: r, vector: vectors[i]})
		}
		return nil
	})
}

func (m *Memory) Search(ctx context.Context, name, query string, limit int, filter ItemFilter) ([]Match, error) {
	if !m.exists(name) {
		return nil, fmt.Errorf("collection %v not found", name)
	}

	vector, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	var matches []Match
	for _, e := range m.collections[name] {
		if !filter.matches(e.record.Metadata) {
			continue
		}
		matches = append(matches, Match{
			Text:     e.record.Text,
			Metadata: e.record.Metadata,
			Score:    cosine(vector, e.vector),
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.collections[name]
	return ok
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
