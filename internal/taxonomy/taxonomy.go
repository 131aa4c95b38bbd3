package taxonomy

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// Unspecified is the catch-all value present in every level of the taxonomy.
const Unspecified = "Unspecified"

// Multi marks a product with four or more prominent colors.
const Multi = "Multi"

//go:embed resources/*.json
var resources embed.FS

// Hierarchy restricts which child values are valid for a parent value.
type Hierarchy struct {
	MainToSub      map[string][]string `json:"main_to_sub"`
	SubToDetail    map[string][]string `json:"sub_to_detail"`
	DetailToLevel4 map[string][]string `json:"detail_to_level4"`
}

type MainColor struct {
	MainColor string `json:"main_color"`
}

// Taxonomy holds the product category vocabularies and the color vocabulary
// used by the classification pipelines.
type Taxonomy struct {
	Main   []string
	Sub    []string
	Detail []string
	Level4 []string

	Hierarchy Hierarchy

	DetailColors     []string
	ColorAliases     map[string]string
	ColorMainMapping map[string]MainColor
}

// Default returns the taxonomy compiled into the binary.
func Default() (*Taxonomy, error) {
	sub, err := fs.Sub(resources, "resources")
	if err != nil {
		return nil, err
	}

	return Load(sub)
}

// LoadDir loads the taxonomy from a directory on disk. An empty dir falls
// back to the embedded resources.
func LoadDir(dir string) (*Taxonomy, error) {
	if dir == "" {
		return Default()
	}

	return Load(os.DirFS(dir))
}

// Load reads every resource file from fsys.
func Load(fsys fs.FS) (*Taxonomy, error) {
	t := &Taxonomy{}

	files := []struct {
		name string
		dst  any
	}{
		{"main_values.json", &t.Main},
		{"sub_values.json", &t.Sub},
		{"detail_values.json", &t.Detail},
		{"level4_values.json", &t.Level4},
		{"hierarchy_mappings.json", &t.Hierarchy},
		{"color_detail_values.json", &t.DetailColors},
		{"color_aliases.json", &t.ColorAliases},
		{"color_main_mapping.json", &t.ColorMainMapping},
	}

	for _, f := range files {
		b, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			// Aliases are optional.
			if f.name == "color_aliases.json" && errors.Is(err, fs.ErrNotExist) {
				t.ColorAliases = map[string]string{}
				continue
			}
			return nil, fmt.Errorf("read %v: %w", f.name, err)
		}

		if err := json.Unmarshal(b, f.dst); err != nil {
			return nil, fmt.Errorf("parse %v: %w", f.name, err)
		}
	}

	if len(t.Main) == 0 {
		return nil, fmt.Errorf("main_values.json is empty")
	}

	return t, nil
}

// ValidSub returns the sub values mapped to main. It is empty for
// Unspecified and unknown values.
func (t *Taxonomy) ValidSub(main string) []string {
	if main == Unspecified {
		return nil
	}
	return t.Hierarchy.MainToSub[main]
}

func (t *Taxonomy) ValidDetail(sub string) []string {
	if sub == Unspecified {
		return nil
	}
	return t.Hierarchy.SubToDetail[sub]
}

func (t *Taxonomy) ValidLevel4(detail string) []string {
	if detail == Unspecified {
		return nil
	}
	return t.Hierarchy.DetailToLevel4[detail]
}

// FilterByHierarchy keeps the values of all that appear in valid, in the
// order of all. An empty valid list means no filtering.
func FilterByHierarchy(all, valid []string) []string {
	if len(valid) == 0 {
		return all
	}

	set := make(map[string]struct{}, len(valid))
	for _, v := range valid {
		set[v] = struct{}{}
	}

	filtered := make([]string, 0, len(valid))
	for _, v := range all {
		if _, ok := set[v]; ok {
			filtered = append(filtered, v)
		}
	}

	return filtered
}

// Allowed returns the values a child level may take given its parent's
// value. When the parent is Unspecified, or has no mapping, every value of
// the level is allowed.
func Allowed(all, valid []string, parent string) []string {
	if parent == Unspecified {
		return all
	}

	allowed := FilterByHierarchy(all, valid)
	if len(allowed) == 0 {
		return all
	}

	return allowed
}

// Contains reports whether v is one of values.
func Contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// ChoosableColors is the detail color list without Multi, which is only
// ever assigned by the multi-color gate.
func (t *Taxonomy) ChoosableColors() []string {
	colors := make([]string, 0, len(t.DetailColors))
	for _, c := range t.DetailColors {
		if c != Multi {
			colors = append(colors, c)
		}
	}
	return colors
}

// MainColorOf maps a detail color to its main color. The second return value
// is false when no mapping exists.
func (t *Taxonomy) MainColorOf(detail string) (string, bool) {
	if detail == "" {
		return "", false
	}

	m, ok := t.ColorMainMapping[detail]
	if !ok || m.MainColor == "" {
		return "", false
	}

	return m.MainColor, true
}

// SortedByLengthDesc returns a copy of values sorted longest first. Ties keep
// their original order.
func SortedByLengthDesc(values []string) []string {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	return sorted
}
