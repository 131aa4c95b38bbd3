package colors

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"itemsclassification/internal/taxonomy"
)

// materialColorPriors maps a dominant material to the color it usually
// has. Glass is left out on purpose: it may be clear or colored.
var materialColorPriors = map[string]string{
	"MANGO WOOD":      "Natural",
	"RECYCLED WOOD":   "Natural",
	"ELM WOOD":        "Natural",
	"ACACIA WOOD":     "Natural",
	"TEAK WOOD":       "Natural",
	"TEAK":            "Natural",
	"PINE WOOD":       "Natural",
	"BAMBOO":          "Natural",
	"RATTAN":          "Natural",
	"SEAGRASS":        "Natural",
	"JUTE":            "Natural",
	"WATER HYACINTH":  "Natural",
	"DRIFTWOOD":       "Natural",
	"IRON":            "Black",
	"ALUMINIUM":       "Silver",
	"ALUMINUM":        "Silver",
	"STAINLESS STEEL": "Silver",
	"BRASS":           "Brass",
	"COPPER":          "Copper",
	"MARBLE":          "White",
}

// Materials below this share do not decide the color.
const minMaterialShare = 20.0

var materialShare = regexp.MustCompile(`([A-Z][A-Z\s]+?)\s*\((\d+(?:\.\d+)?)%\)`)

type pattern struct {
	color string
	re    *regexp.Regexp
}

// Priors derives color hints from an item's text and normalizes the color
// names models answer with.
type Priors struct {
	taxonomy *taxonomy.Taxonomy

	// Longest first, so "Dark brown" is hinted before "Brown".
	byLength  []string
	choosable map[string]bool
	names     []pattern
	aliases   []pattern
}

func NewPriors(tx *taxonomy.Taxonomy) *Priors {
	p := &Priors{
		taxonomy: tx,
		byLength: taxonomy.SortedByLengthDesc(tx.DetailColors),
	}

	p.choosable = make(map[string]bool)
	for _, c := range tx.ChoosableColors() {
		p.choosable[c] = true
	}

	for _, c := range p.byLength {
		if p.choosable[c] {
			p.names = append(p.names, pattern{color: c, re: wordPattern(c)})
		}
	}

	aliases := make([]string, 0, len(tx.ColorAliases))
	for a := range tx.ColorAliases {
		aliases = append(aliases, a)
	}
	// Map order is random; sort by length, then alphabetically for ties.
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})
	for _, a := range aliases {
		p.aliases = append(p.aliases, pattern{color: tx.ColorAliases[a], re: wordPattern(a)})
	}

	return p
}

func wordPattern(s string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(s)) + `\b`)
}

// Choosable reports whether a model may answer with color. Multi is set by
// the multi-color gate only.
func (p *Priors) Choosable(color string) bool {
	return p.choosable[color]
}

// Normalize maps a color name from a model answer to a detail color. It
// tries an exact match, a case-insensitive match, the aliases and finally
// the longest detail color contained in raw. It returns "" when nothing
// matches.
func (p *Priors) Normalize(raw string) string {
	cleaned := strings.TrimSpace(raw)
	lower := strings.ToLower(cleaned)
	if lower == "" || lower == "null" || lower == "none" {
		return ""
	}

	if taxonomy.Contains(p.taxonomy.DetailColors, cleaned) {
		return cleaned
	}

	for _, c := range p.taxonomy.DetailColors {
		if strings.ToLower(c) == lower {
			return c
		}
	}

	if c, ok := p.taxonomy.ColorAliases[lower]; ok && taxonomy.Contains(p.taxonomy.DetailColors, c) {
		return c
	}

	for _, c := range p.byLength {
		if strings.Contains(lower, strings.ToLower(c)) {
			return c
		}
	}

	return ""
}

// TextHints returns the detail colors mentioned in description, canonical
// names first, then colors found through aliases.
func (p *Priors) TextHints(description string) []string {
	if description == "" {
		return nil
	}

	text := strings.ToLower(description)
	seen := map[string]bool{}
	var found []string

	for _, list := range [][]pattern{p.names, p.aliases} {
		for _, pt := range list {
			if !seen[pt.color] && pt.re.MatchString(text) {
				found = append(found, pt.color)
				seen[pt.color] = true
			}
		}
	}

	return found
}

// MaterialPrior returns the usual color of the item's dominant material.
// materials looks like "MANGO WOOD (70.00%), IRON (30.00%)".
func MaterialPrior(materials string) string {
	if materials == "" {
		return ""
	}

	type share struct {
		name    string
		percent float64
	}

	var shares []share
	for _, m := range materialShare.FindAllStringSubmatch(strings.ToUpper(materials), -1) {
		percent, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		shares = append(shares, share{name: strings.TrimSpace(m[1]), percent: percent})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].percent > shares[j].percent
	})

	for _, s := range shares {
		if s.percent < minMaterialShare {
			break
		}
		if prior, ok := materialColorPriors[s.name]; ok {
			return prior
		}
	}

	return ""
}

// HintsBlock renders the item's text and the priors derived from it for the
// prompts. It is empty when there is nothing to say.
func (p *Priors) HintsBlock(description, materials string) string {
	var parts []string

	if description != "" {
		parts = append(parts, "Product description: "+description)
	}
	if materials != "" {
		parts = append(parts, "Materials: "+materials)
	}
	if hints := p.TextHints(description); len(hints) > 0 {
		parts = append(parts, "Colors mentioned in text: "+strings.Join(hints, ", "))
	}
	if prior := MaterialPrior(materials); prior != "" {
		parts = append(parts, "Material suggests dominant color: "+prior)
	}

	if len(parts) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nPRIOR HINTS (use to disambiguate when image is ambiguous; image takes precedence):\n")
	for i, part := range parts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %v", part)
	}
	b.WriteString("\n")

	return b.String()
}
