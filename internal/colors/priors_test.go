package colors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itemsclassification/internal/taxonomy"
)

func newPriors(t *testing.T) *Priors {
	t.Helper()
	tx, err := taxonomy.Default()
	require.NoError(t, err)
	return NewPriors(tx)
}

func TestNormalize(t *testing.T) {
	p := newPriors(t)

	tests := []struct {
		raw  string
		want string
	}{
		{"Off-white", "Off-white"},
		{"  off-white ", "Off-white"},
		{"DARK BROWN", "Dark brown"},
		{"cream", "Off-white"},
		{"Navy", "Dark blue"},
		{"dark brown color", "Dark brown"},
		{"multicolor", taxonomy.Multi},
		{"null", ""},
		{"None", ""},
		{"", ""},
		{"sparkly", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Normalize(tt.raw), tt.raw)
	}
}

func TestTextHints(t *testing.T) {
	p := newPriors(t)

	assert.Empty(t, p.TextHints(""))
	assert.Equal(t, []string{"Green", "Gold"}, p.TextHints("Green glass vase with gold rim"))
	assert.Equal(t, []string{"Dark blue"}, p.TextHints("Cushion navy velvet"))
	// Word boundaries: "reddish" is not red.
	assert.Empty(t, p.TextHints("reddish tint"))
	// Longer names come first; the shorter name inside them still matches.
	assert.Equal(t, []string{"Dark brown", "Brown"}, p.TextHints("Dark brown walnut shelf"))
}

func TestMaterialPrior(t *testing.T) {
	tests := []struct {
		materials string
		want      string
	}{
		{"", ""},
		{"MANGO WOOD (70.00%), IRON (30.00%)", "Natural"},
		{"Iron (60%), mango wood (40%)", "Black"},
		{"GLASS (90%), IRON (10%)", ""},
		{"GLASS (50%), BRASS (50%)", "Brass"},
		{"COTTON, LINEN", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MaterialPrior(tt.materials), tt.materials)
	}
}

func TestHintsBlock(t *testing.T) {
	p := newPriors(t)

	assert.Equal(t, "", p.HintsBlock("", ""))
	assert.Equal(t,
		"\nPRIOR HINTS (use to disambiguate when image is ambiguous; image takes precedence):\n"+
			"- Product description: Green glass vase\n"+
			"- Materials: MANGO WOOD (100%)\n"+
			"- Colors mentioned in text: Green\n"+
			"- Material suggests dominant color: Natural\n",
		p.HintsBlock("Green glass vase", "MANGO WOOD (100%)"))
}

func TestChoosable(t *testing.T) {
	p := newPriors(t)

	assert.True(t, p.Choosable("Dark brown"))
	assert.False(t, p.Choosable(taxonomy.Multi))
	assert.False(t, p.Choosable(""))
	assert.False(t, p.Choosable("Unicorn"))
}

func TestGroupedColors(t *testing.T) {
	assert.Equal(t,
		"  Neutrals: White, Black\n  Red: Red\n  Other: Sand, Moss",
		groupedColors([]string{"Sand", "Black", "Red", "White", "Moss"}))
	assert.Empty(t, groupedColors(nil))
}
