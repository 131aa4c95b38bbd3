package colors

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"itemsclassification/internal/ai"
	"itemsclassification/internal/ai/aitest"
	"itemsclassification/internal/taxonomy"
)

func newPipeline(t *testing.T, vision, fast *aitest.Model) *Pipeline {
	t.Helper()

	tx, err := taxonomy.Default()
	require.NoError(t, err)

	return New(tx,
		ai.Model{Model: vision, Name: "openai/gpt-4o"},
		ai.Model{Model: fast, Name: "openai/gpt-4o-mini"},
		0, nil, zaptest.NewLogger(t).Sugar())
}

const noSecondary = `{"detail_color_2": null, "confidence_2": null, "reasoning_2": null, "detail_color_3": null, "confidence_3": null, "reasoning_3": null}`

func TestDetect(t *testing.T) {
	vision := aitest.New(
		aitest.Text(`{"description": "White ceramic vase with a gold rim", "estimated_color_count": 2}`),
		aitest.Text(`{"detail_color": "white", "confidence": 0.9, "reasoning": "white ceramic"}`),
	)
	fast := aitest.New(
		aitest.Text(`{"is_multi": false, "reasoning": "two colors"}`),
		aitest.Text(`{"detail_color_2": "golden", "confidence_2": 0.8, "reasoning_2": "rim", "detail_color_3": null}`),
	)
	p := newPipeline(t, vision, fast)

	res, err := p.Detect(context.Background(), Input{Image: "https://img/1.jpg", SupplierReferenceDescription: "Vase white"})
	require.NoError(t, err)

	assert.Equal(t, "White ceramic vase with a gold rim", res.ImageDescription)
	assert.Equal(t, 2, res.EstimatedColorCount)
	assert.Equal(t, []string{"White", "Gold"}, res.Colors())
	assert.Equal(t, "White", res.MainColor1)
	assert.Equal(t, "Gold", res.MainColor2)
	assert.Empty(t, res.MainColor3)
	assert.False(t, res.IsMulti)
	assert.Empty(t, res.Errors)

	require.NotNil(t, res.Confidence1)
	assert.InDelta(t, 0.9, *res.Confidence1.DetailColorConfidence, 1e-9)
	assert.InDelta(t, 0.9, *res.Confidence1.MainColorConfidence, 1e-9)
	require.NotNil(t, res.Confidence2)
	assert.Equal(t, "rim", res.Confidence2.Reasoning)
	assert.Nil(t, res.Confidence3)

	// The primary prompt carries the description and the text hints.
	calls := vision.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1].System, "White ceramic vase with a gold rim")
	assert.Contains(t, calls[1].System, "- Colors mentioned in text: White")
	assert.Equal(t, "https://img/1.jpg", calls[1].Image)
	assert.Len(t, fast.Calls(), 2)
}

func TestDetectMulti(t *testing.T) {
	vision := aitest.New(
		aitest.Text(`{"description": "Patchwork rug", "estimated_color_count": 6}`),
		aitest.Text(`{"detail_color": "Red", "confidence": 0.5}`),
	)
	fast := aitest.New(aitest.Text(`{"is_multi": true, "reasoning": "patchwork"}`))
	p := newPipeline(t, vision, fast)

	res, err := p.Detect(context.Background(), Input{Image: "AAAA"})
	require.NoError(t, err)

	assert.True(t, res.IsMulti)
	assert.Equal(t, []string{taxonomy.Multi}, res.Colors())
	assert.Equal(t, taxonomy.Multi, res.MainColor1)
	assert.Equal(t, 1.0, *res.Confidence1.DetailColorConfidence)
	assert.Equal(t, "patchwork", res.Confidence1.Reasoning)
	// Secondary colors are skipped.
	assert.Len(t, fast.Calls(), 1)
}

func TestDetectMultiGuards(t *testing.T) {
	tests := []struct {
		name      string
		estimated string
		primary   string
		reasoning string
	}{
		{"few colors", "3", "Red", "Overridden: est_count=3 <= 3"},
		{"single tone primary", "5", "Natural", "Overridden: primary 'Natural' is single-tone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vision := aitest.New(
				aitest.Text(`{"description": "Basket", "estimated_color_count": `+tt.estimated+`}`),
				aitest.Text(`{"detail_color": "`+tt.primary+`", "confidence": 0.7}`),
			)
			fast := aitest.New(
				aitest.Text(`{"is_multi": true}`),
				// Natural is neutral and gets verified.
				aitest.Text(`{"detail_color": "Natural", "confidence": 0.9}`),
				aitest.Text(noSecondary),
			)
			p := newPipeline(t, vision, fast)

			res, err := p.Detect(context.Background(), Input{Image: "AAAA"})
			require.NoError(t, err)

			assert.False(t, res.IsMulti)
			assert.Equal(t, tt.primary, res.DetailColor1)

			var gate ai.Step
			for _, s := range res.History {
				if s.Step == "multi_gate" {
					gate = s
				}
			}
			assert.Equal(t, "not_multi", gate.Result)
			assert.Equal(t, tt.reasoning, gate.Metadata["reasoning"])
		})
	}
}

func TestDetectNeutralVerify(t *testing.T) {
	vision := aitest.New(
		aitest.Text(`{"description": "Light wooden side table", "estimated_color_count": 1}`),
		aitest.Text(`{"detail_color": "Beige", "confidence": 0.6}`),
	)
	fast := aitest.New(
		aitest.Text(`{"is_multi": false}`),
		aitest.Text(`{"detail_color": "natural", "confidence": 0.93, "reasoning": "raw mango wood"}`),
		aitest.Text(noSecondary),
	)
	p := newPipeline(t, vision, fast)

	res, err := p.Detect(context.Background(), Input{Image: "AAAA", Materials: "MANGO WOOD (80.00%), IRON (20.00%)"})
	require.NoError(t, err)

	assert.Equal(t, "Natural", res.DetailColor1)
	assert.Equal(t, "Natural", res.MainColor1)
	assert.InDelta(t, 0.93, *res.Confidence1.DetailColorConfidence, 1e-9)
	assert.Equal(t, "raw mango wood", res.Confidence1.Reasoning)

	calls := fast.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[1].System, `The primary color classifier picked: "Beige"`)
	assert.Contains(t, calls[1].System, "- Material suggests dominant color: Natural")
	assert.Equal(t, `Look at the product image carefully. The initial pick was "Beige". Is that correct, or should it be a different neutral shade? Return ONLY JSON.`, calls[1].User)
}

func TestDetectNeutralVerifyKeepsOriginal(t *testing.T) {
	for _, answer := range []string{"not json at all", `{"detail_color": "Blue", "confidence": 0.9}`} {
		vision := aitest.New(
			aitest.Text(`{"description": "Linen cushion", "estimated_color_count": 1}`),
			aitest.Text(`{"detail_color": "Beige", "confidence": 0.8}`),
		)
		fast := aitest.New(aitest.Text(`{"is_multi": false}`), aitest.Text(answer), aitest.Text(noSecondary))
		p := newPipeline(t, vision, fast)

		res, err := p.Detect(context.Background(), Input{Image: "AAAA"})
		require.NoError(t, err)
		assert.Equal(t, "Beige", res.DetailColor1, answer)
		assert.InDelta(t, 0.8, *res.Confidence1.DetailColorConfidence, 1e-9)
	}
}

func TestDetectTransparentCorrection(t *testing.T) {
	vision := aitest.New(
		aitest.Text(`{"description": "Glass vase", "estimated_color_count": 1}`),
		aitest.Text(`{"detail_color": "clear", "confidence": 0.8}`),
	)
	fast := aitest.New(aitest.Text(`{"is_multi": false}`), aitest.Text(noSecondary))
	p := newPipeline(t, vision, fast)

	res, err := p.Detect(context.Background(), Input{Image: "AAAA", SupplierReferenceDescription: "Vase green glass"})
	require.NoError(t, err)

	assert.Equal(t, "Green", res.DetailColor1)
	assert.Equal(t, "Green", res.MainColor1)
	assert.InDelta(t, 0.68, *res.Confidence1.DetailColorConfidence, 1e-9)
	assert.Equal(t, "Corrected Transparent -> Green based on text hint 'Vase green glass'", res.Confidence1.Reasoning)
}

func TestDetectInvalidColors(t *testing.T) {
	vision := aitest.New(
		aitest.Text(`{"description": "Something", "estimated_color_count": 2}`),
		aitest.Text(`{"detail_color": "sparkly", "confidence": 0.9}`),
	)
	fast := aitest.New(
		aitest.Text(`{"is_multi": false}`),
		aitest.Text(`{"detail_color_2": "unicorn", "confidence_2": 0.5, "detail_color_3": "Blue", "confidence_3": 1.7, "reasoning_3": "stripes"}`),
	)
	p := newPipeline(t, vision, fast)

	res, err := p.Detect(context.Background(), Input{Image: "AAAA"})
	require.NoError(t, err)

	assert.Empty(t, res.DetailColor1)
	assert.Equal(t, "Blue", res.DetailColor2)
	assert.Empty(t, res.DetailColor3)
	assert.Equal(t, "Blue", res.MainColor2)
	assert.Equal(t, 1.0, *res.Confidence2.DetailColorConfidence)
	assert.Equal(t, "stripes", res.Confidence2.Reasoning)
	assert.Equal(t, []string{
		"PrimaryColorClassifier: Invalid color 'sparkly'.",
		"SecondaryColorsClassifier: Invalid color_2 'unicorn'.",
	}, res.Errors)
}

func TestDetectSecondaryDuplicates(t *testing.T) {
	vision := aitest.New(
		aitest.Text(`{"description": "Black lamp", "estimated_color_count": 1}`),
		aitest.Text(`{"detail_color": "Black", "confidence": 0.9}`),
	)
	fast := aitest.New(
		aitest.Text(`{"is_multi": false}`),
		aitest.Text(`{"detail_color_2": "Black", "confidence_2": 0.5, "detail_color_3": "black", "confidence_3": 0.4}`),
	)
	p := newPipeline(t, vision, fast)

	res, err := p.Detect(context.Background(), Input{Image: "AAAA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Black"}, res.Colors())
	assert.Nil(t, res.Confidence2)
}

func TestDetectMissingMainMapping(t *testing.T) {
	vision := aitest.New(
		aitest.Text(`{"description": "Gold bowl", "estimated_color_count": 1}`),
		aitest.Text(`{"detail_color": "Gold", "confidence": 0.9}`),
	)
	fast := aitest.New(aitest.Text(`{"is_multi": false}`), aitest.Text(noSecondary))
	p := newPipeline(t, vision, fast)
	delete(p.Taxonomy.ColorMainMapping, "Gold")

	res, err := p.Detect(context.Background(), Input{Image: "AAAA"})
	require.NoError(t, err)

	assert.Equal(t, "Gold", res.DetailColor1)
	assert.Empty(t, res.MainColor1)
	assert.Equal(t, 0.0, *res.Confidence1.MainColorConfidence)
	assert.Equal(t, []string{"MainColorMapper: No main color mapping for 'Gold'"}, res.Errors)
}

func TestDetectRateLimited(t *testing.T) {
	vision := aitest.New(
		aitest.Text(`{"description": "Vase", "estimated_color_count": 1}`),
		aitest.Fail(errors.New("API returned unexpected status code: 429")),
	)
	fast := aitest.New(aitest.Text(`{"is_multi": false}`), aitest.Text(noSecondary))
	p := newPipeline(t, vision, fast)

	_, err := p.Detect(context.Background(), Input{Image: "AAAA"})

	var pe *ai.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ai.ErrorRateLimit, pe.Kind)
	assert.Contains(t, pe.Error(), "PrimaryColorClassifier error: API returned unexpected status code: 429")
}

func TestDetectListsTaxonomyColors(t *testing.T) {
	tx, err := taxonomy.Load(fstest.MapFS{
		"main_values.json":         {Data: []byte(`["Decoration","Unspecified"]`)},
		"sub_values.json":          {Data: []byte(`["Vases"]`)},
		"detail_values.json":       {Data: []byte(`["Table vases"]`)},
		"level4_values.json":       {Data: []byte(`["Unspecified"]`)},
		"hierarchy_mappings.json":  {Data: []byte(`{"main_to_sub":{"Decoration":["Vases"]}}`)},
		"color_detail_values.json": {Data: []byte(`["Red","Sand","Multi"]`)},
		"color_main_mapping.json":  {Data: []byte(`{"Red":{"main_color":"Red"},"Sand":{"main_color":"Beige"}}`)},
	})
	require.NoError(t, err)

	vision := aitest.New(
		aitest.Text(`{"description": "Sand colored stoneware vase", "estimated_color_count": 1}`),
		aitest.Text(`{"detail_color": "sand", "confidence": 0.9, "reasoning": "stoneware"}`),
	)
	fast := aitest.New(
		aitest.Text(`{"is_multi": false, "reasoning": "one color"}`),
		aitest.Text(noSecondary),
	)
	p := New(tx,
		ai.Model{Model: vision, Name: "openai/gpt-4o"},
		ai.Model{Model: fast, Name: "openai/gpt-4o-mini"},
		0, nil, zaptest.NewLogger(t).Sugar())

	res, err := p.Detect(context.Background(), Input{Image: "https://img/1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sand"}, res.Colors())
	assert.Equal(t, "Beige", res.MainColor1)

	primary := vision.Calls()[1].System
	assert.Contains(t, primary, "  Red: Red\n  Other: Sand\n")
	assert.NotContains(t, primary, "Neutrals:")
}
