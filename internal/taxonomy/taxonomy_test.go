package taxonomy

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	tx, err := Default()
	require.NoError(t, err)

	assert.Contains(t, tx.Main, Unspecified)
	assert.Contains(t, tx.Sub, Unspecified)
	assert.Contains(t, tx.Detail, Unspecified)
	assert.Contains(t, tx.Level4, Unspecified)
	assert.Contains(t, tx.DetailColors, Multi)

	// Every hierarchy value must exist in its level's vocabulary.
	for main, subs := range tx.Hierarchy.MainToSub {
		assert.Contains(t, tx.Main, main)
		for _, s := range subs {
			assert.Contains(t, tx.Sub, s, "sub of %v", main)
		}
	}
	for sub, details := range tx.Hierarchy.SubToDetail {
		assert.Contains(t, tx.Sub, sub)
		for _, d := range details {
			assert.Contains(t, tx.Detail, d, "detail of %v", sub)
		}
	}
	for detail, l4s := range tx.Hierarchy.DetailToLevel4 {
		assert.Contains(t, tx.Detail, detail)
		for _, l := range l4s {
			assert.Contains(t, tx.Level4, l, "level4 of %v", detail)
		}
	}

	// Every detail color maps to a main color and aliases point at real colors.
	for _, c := range tx.DetailColors {
		_, ok := tx.MainColorOf(c)
		assert.True(t, ok, "no main color for %v", c)
	}
	for alias, c := range tx.ColorAliases {
		assert.Contains(t, tx.DetailColors, c, "alias %v", alias)
	}
}

func TestValidChildren(t *testing.T) {
	tx, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"Tables", "Seating", "Cabinets", "Shelving"}, tx.ValidSub("Furniture"))
	assert.Empty(t, tx.ValidSub(Unspecified))
	assert.Empty(t, tx.ValidSub("Spaceships"))
	assert.Equal(t, []string{"Floor vases", "Table vases", "Bud vases"}, tx.ValidDetail("Vases"))
	assert.Empty(t, tx.ValidDetail(Unspecified))
	assert.Equal(t, []string{"Christmas", "Easter"}, tx.ValidLevel4("Seasonal figurines"))
	assert.Empty(t, tx.ValidLevel4(Unspecified))
}

func TestFilterByHierarchy(t *testing.T) {
	all := []string{"a", "b", "c", "d"}

	tests := []struct {
		name  string
		valid []string
		want  []string
	}{
		{"no filter", nil, all},
		{"keeps order of all", []string{"d", "b"}, []string{"b", "d"}},
		{"unknown values dropped", []string{"x", "c"}, []string{"c"}},
		{"no overlap", []string{"x"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterByHierarchy(all, tt.valid))
		})
	}
}

func TestAllowed(t *testing.T) {
	all := []string{"a", "b", Unspecified}

	assert.Equal(t, all, Allowed(all, []string{"a"}, Unspecified))
	assert.Equal(t, all, Allowed(all, nil, "parent"))
	assert.Equal(t, all, Allowed(all, []string{"zzz"}, "parent"))
	assert.Equal(t, []string{"a"}, Allowed(all, []string{"a"}, "parent"))
}

func TestLoadWithoutAliases(t *testing.T) {
	fsys := fstest.MapFS{
		"main_values.json":         {Data: []byte(`["A","Unspecified"]`)},
		"sub_values.json":          {Data: []byte(`["B"]`)},
		"detail_values.json":       {Data: []byte(`["C"]`)},
		"level4_values.json":       {Data: []byte(`["D"]`)},
		"hierarchy_mappings.json":  {Data: []byte(`{"main_to_sub":{"A":["B"]}}`)},
		"color_detail_values.json": {Data: []byte(`["Red","Multi"]`)},
		"color_main_mapping.json":  {Data: []byte(`{"Red":{"main_color":"Red"}}`)},
	}

	tx, err := Load(fsys)
	require.NoError(t, err)
	assert.Empty(t, tx.ColorAliases)
	assert.Equal(t, []string{"Red"}, tx.ChoosableColors())

	_, ok := tx.MainColorOf("Multi")
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(fstest.MapFS{})
	assert.Error(t, err)
}

func TestSortedByLengthDesc(t *testing.T) {
	in := []string{"Red", "Dark red", "Blue", "Dark blue"}
	assert.Equal(t, []string{"Dark blue", "Dark red", "Blue", "Red"}, SortedByLengthDesc(in))
	assert.Equal(t, []string{"Red", "Dark red", "Blue", "Dark blue"}, in)
}
