package hscode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"itemsclassification/internal/ai"
	"itemsclassification/internal/ai/aitest"
)

func newClassifier(t *testing.T, model *aitest.Model) *Classifier {
	t.Helper()
	return New(ai.Model{Model: model, Name: "gpt-4o-mini"}, nil, zaptest.NewLogger(t).Sugar())
}

func TestClassify(t *testing.T) {
	model := aitest.New(aitest.Response{
		ToolArgs: `{"hs_code": "9403.60", "description": "Other wooden furniture", "confidence": 0.8}`,
	})
	c := newClassifier(t, model)

	res, err := c.Classify(context.Background(), Input{
		SupplierReferenceDescription: "Side table",
		Materials:                    "MANGO WOOD (100%)",
		Main:                         "Furniture",
		Sub:                          "Tables",
	})
	require.NoError(t, err)
	assert.Equal(t, &Result{HSCode: "940360", Description: "Other wooden furniture", Confidence: 0.8}, res)

	calls := model.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].User, "Description: Side table\n")
	assert.Contains(t, calls[0].User, "Category: Furniture > Tables\n")
	assert.NotContains(t, calls[0].User, "Supplier:")
	assert.NotContains(t, calls[0].User, "photo")
	require.Len(t, calls[0].Tools, 1)
	assert.Equal(t, "classify_hs_code", calls[0].Tools[0].Function.Name)
}

func TestClassifyInvalid(t *testing.T) {
	tests := []struct {
		name string
		resp aitest.Response
	}{
		{"short code", aitest.Response{ToolArgs: `{"hs_code": "9403", "description": "x", "confidence": 0.5}`}},
		{"confidence out of range", aitest.Response{ToolArgs: `{"hs_code": "940360", "description": "x", "confidence": 3}`}},
		{"missing field", aitest.Response{ToolArgs: `{"hs_code": "940360"}`}},
		{"model error", aitest.Fail(errors.New("boom"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClassifier(t, aitest.New(tt.resp))
			_, err := c.Classify(context.Background(), Input{SupplierReferenceDescription: "Vase", Image: "AAAA"})
			assert.Error(t, err)
		})
	}
}

func TestClassifyRateLimited(t *testing.T) {
	c := newClassifier(t, aitest.New(aitest.Fail(errors.New("API returned unexpected status code: 429"))))

	_, err := c.Classify(context.Background(), Input{SupplierReferenceDescription: "Vase"})

	var pe *ai.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ai.ErrorRateLimit, pe.Kind)
	assert.Equal(t, "Rate limit error: API returned unexpected status code: 429", pe.Message)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "94036010", NormalizeCode("9403.60.10"))
	assert.Equal(t, "691200", NormalizeCode(" 6912 00 "))
	assert.Equal(t, "", NormalizeCode("n/a"))
}
