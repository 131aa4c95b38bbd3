package classification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"itemsclassification/internal/ai"
	"itemsclassification/internal/ai/aitest"
	"itemsclassification/internal/taxonomy"
)

func newPipeline(t *testing.T, model *aitest.Model) *Pipeline {
	t.Helper()

	tx, err := taxonomy.Default()
	require.NoError(t, err)

	return New(tx, ai.Model{Model: model, Name: "openai/gpt-4o-mini"}, 0, nil, zaptest.NewLogger(t).Sugar())
}

func TestClassify(t *testing.T) {
	model := aitest.New(
		aitest.Text(`{"main": "Furniture"}`),
		aitest.Text("```json\n{\"sub\": \"Tables\"}\n```"),
		aitest.Text(`Here you go: {"detail": "Side tables"}`),
		aitest.Text(`{"level4": "Round"}`),
	)
	p := newPipeline(t, model)

	res, err := p.Classify(context.Background(), Input{
		Image:                        "https://img/1.jpg",
		SupplierName:                 "Acme",
		SupplierReferenceDescription: "Side table mango wood",
	})
	require.NoError(t, err)

	assert.Equal(t, "Furniture", res.Main)
	assert.Equal(t, "Tables", res.Sub)
	assert.Equal(t, "Side tables", res.Detail)
	assert.Equal(t, "Round", res.Level4)
	assert.True(t, res.IsComplete)
	assert.Empty(t, res.Errors)
	require.Len(t, res.History, 4)
	assert.Equal(t, ai.Step{Step: "detail", Result: "Side tables", Metadata: map[string]any{"main": "Furniture", "sub": "Tables"}}, res.History[2])

	calls := model.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, `Classify this image. Item details: Supplier: Acme, Description: Side table mango wood. Return only JSON: {"main": "category"}`, calls[0].User)
	assert.Contains(t, calls[1].System, `Valid sub categories for "Furniture": Tables, Seating, Cabinets, Shelving`)
	assert.Contains(t, calls[1].System, "'Unspecified' is NOT available for this main category")
	assert.Equal(t, `Main: Furniture. Classify sub category. Item details: Supplier: Acme, Description: Side table mango wood. Return only JSON: {"sub": "category"}`, calls[1].User)
	assert.Equal(t, "https://img/1.jpg", calls[3].Image)
}

func TestClassifyInvalidMain(t *testing.T) {
	model := aitest.New(
		aitest.Text(`{"main": "Spaceships"}`),
		aitest.Text(`{"sub": "Vases"}`),
		aitest.Text(`{"detail": "Bud vases"}`),
		aitest.Text(`{"level4": ""}`),
	)
	p := newPipeline(t, model)

	res, err := p.Classify(context.Background(), Input{SupplierReferenceDescription: "Thing"})
	require.NoError(t, err)

	assert.Equal(t, taxonomy.Unspecified, res.Main)
	// Any sub is allowed under Unspecified.
	assert.Equal(t, "Vases", res.Sub)
	assert.Equal(t, "Bud vases", res.Detail)
	assert.Equal(t, taxonomy.Unspecified, res.Level4)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Invalid main value: Spaceships. Must be one of [Furniture")

	calls := model.Calls()
	assert.Equal(t, `Classify based on item details: Description: Thing. Return only JSON: {"main": "category"}`, calls[0].User)
	assert.Contains(t, calls[1].System, "Note: Only use 'Unspecified'")
}

func TestClassifyRetriesUnspecified(t *testing.T) {
	model := aitest.New(
		aitest.Text(`{"main": "Decoration"}`),
		aitest.Text(`{"sub": "Unspecified"}`),
		aitest.Text(`{"sub": "Vases"}`),
		aitest.Text(`{"detail": "Table vases"}`),
		aitest.Text(`{"level4": "Small"}`),
	)
	p := newPipeline(t, model)

	res, err := p.Classify(context.Background(), Input{Image: "AAAA"})
	require.NoError(t, err)
	assert.Equal(t, "Vases", res.Sub)

	calls := model.Calls()
	require.Len(t, calls, 5)
	assert.NotContains(t, calls[1].System, "DO NOT use 'Unspecified'")
	assert.Contains(t, calls[2].System, "Choose the most specific category that matches. DO NOT use 'Unspecified' - you must select one of the specific categories listed.")
}

func TestClassifyFallbackOnInvalidSub(t *testing.T) {
	model := aitest.New(
		aitest.Text(`{"main": "Furniture"}`),
		aitest.Text(`{"sub": "Vases"}`),
		aitest.Text(`{"detail": "Coffee tables"}`),
		aitest.Text(`{"level4": "Oval"}`),
	)
	p := newPipeline(t, model)

	res, err := p.Classify(context.Background(), Input{})
	require.NoError(t, err)

	assert.Equal(t, "Tables", res.Sub)
	assert.Equal(t, "Coffee tables", res.Detail)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Invalid sub value: Vases for main: Furniture. Must be one of [Tables Seating Cabinets Shelving]. Using fallback.", res.Errors[0])
	assert.Equal(t, `Classify. Return only JSON: {"main": "category"}`, model.Calls()[0].User)
}

func TestClassifyNodeFailureContinues(t *testing.T) {
	model := aitest.New(
		aitest.Text(`{"main": "Garden"}`),
		aitest.Fail(errors.New("connection reset")),
		aitest.Text(`{"level4": "Large"}`),
	)
	p := newPipeline(t, model)

	res, err := p.Classify(context.Background(), Input{Image: "https://img/1.jpg"})
	require.NoError(t, err)

	assert.Equal(t, "Garden", res.Main)
	assert.Empty(t, res.Sub)
	assert.False(t, res.IsComplete)
	assert.Equal(t, []string{
		"SubClassifier error: connection reset",
		"Cannot classify detail category without main and sub classifications",
		"Cannot classify level4 category without main, sub, and detail classifications",
	}, res.Errors)
}

func TestClassifyMainFailed(t *testing.T) {
	model := aitest.New(aitest.Fail(errors.New("boom")))
	p := newPipeline(t, model)

	_, err := p.Classify(context.Background(), Input{Image: "https://img/1.jpg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Main classification failed: MainClassifier error: boom")
	assert.Len(t, model.Calls(), 1)
}

func TestClassifyRateLimited(t *testing.T) {
	model := aitest.New(
		aitest.Text(`{"main": "Garden"}`),
		aitest.Fail(errors.New("API returned unexpected status code: 429: rate limit")),
		aitest.Text(`{"level4": "Large"}`),
	)
	p := newPipeline(t, model)

	_, err := p.Classify(context.Background(), Input{Image: "https://img/1.jpg"})

	var pe *ai.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ai.ErrorRateLimit, pe.Kind)
	assert.Contains(t, pe.Error(), "Rate limit error: SubClassifier error:")
}

func TestInputDetails(t *testing.T) {
	assert.Equal(t, "", Input{}.Details())
	assert.Equal(t, "Supplier: A, Materials: IRON (100%)", Input{SupplierName: "A", Materials: "IRON (100%)"}.Details())
}
