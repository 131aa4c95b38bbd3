package vectordb

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keywords = []string{"vase", "table", "lamp", "chair"}

// keywordEmbedder embeds text as keyword counts.
type keywordEmbedder struct{}

func (keywordEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i], _ = keywordEmbedder{}.EmbedQuery(ctx, t)
	}
	return vectors, nil
}

func (keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	text = strings.ToLower(text)
	v := make([]float32, len(keywords))
	for i, k := range keywords {
		v[i] = float32(strings.Count(text, k))
	}
	return v, nil
}

func TestNew(t *testing.T) {
	s, err := New(Config{Provider: ProviderMemory}, keywordEmbedder{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = New(Config{Provider: ProviderQdrant, URL: "http://localhost:6333"}, keywordEmbedder{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultEmbeddingSize, s.(*Qdrant).cfg.EmbeddingSize)
	assert.Equal(t, DefaultBatchSize, s.(*Qdrant).cfg.BatchSize)

	_, err = New(Config{Provider: ProviderQdrant}, keywordEmbedder{}, nil)
	assert.Error(t, err)

	_, err = New(Config{Provider: "chroma"}, keywordEmbedder{}, nil)
	assert.EqualError(t, err, "unknown vector db provider: chroma")
}

func TestMatchItemID(t *testing.T) {
	tests := []struct {
		value any
		want  int64
		ok    bool
	}{
		{int64(7), 7, true},
		{float64(7), 7, true},
		{7.5, 7, false},
		{"42", 42, true},
		{"x", 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		id, ok := Match{Metadata: map[string]any{ItemIDKey: tt.value}}.ItemID()
		assert.Equal(t, tt.ok, ok, "%v", tt.value)
		if tt.ok {
			assert.Equal(t, tt.want, id)
		}
	}
}

func TestUpsertInBatches(t *testing.T) {
	records := make([]Record, 120)

	var sizes []int
	sizesCh := make(chan int, 10)
	err := upsertInBatches(context.Background(), records, 50, func(_ context.Context, batch []Record) error {
		sizesCh <- len(batch)
		return nil
	})
	require.NoError(t, err)
	close(sizesCh)
	for n := range sizesCh {
		sizes = append(sizes, n)
	}

	assert.ElementsMatch(t, []int{50, 50, 20}, sizes)
}

func TestUpsertInBatchesEmpty(t *testing.T) {
	called := false
	err := upsertInBatches(context.Background(), nil, 50, func(context.Context, []Record) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}
