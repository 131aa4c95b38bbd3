package colors

import (
	"fmt"

	"itemsclassification/internal/ai"
)

// Input is what the color pipeline knows about an item.
type Input struct {
	Image                        string
	SupplierReferenceDescription string
	Materials                    string
}

// Confidence describes how sure the pipeline is about one color slot.
type Confidence struct {
	DetailColorConfidence *float64 `json:"detail_color_confidence"`
	MainColorConfidence   *float64 `json:"main_color_confidence"`
	Reasoning             string   `json:"reasoning,omitempty"`
}

// Result holds up to three detail colors, most prominent first, and the main
// color of each.
type Result struct {
	ImageDescription    string `json:"image_description"`
	EstimatedColorCount int    `json:"estimated_color_count"`

	DetailColor1 string `json:"detail_color_1"`
	DetailColor2 string `json:"detail_color_2"`
	DetailColor3 string `json:"detail_color_3"`
	MainColor1   string `json:"main_color_1"`
	MainColor2   string `json:"main_color_2"`
	MainColor3   string `json:"main_color_3"`

	IsMulti bool `json:"is_multi"`

	Confidence1 *Confidence `json:"confidence_1"`
	Confidence2 *Confidence `json:"confidence_2"`
	Confidence3 *Confidence `json:"confidence_3"`

	Errors  []string  `json:"errors"`
	History []ai.Step `json:"history"`
}

// Colors returns the non-empty detail colors in order.
func (r *Result) Colors() []string {
	var colors []string
	for _, c := range []string{r.DetailColor1, r.DetailColor2, r.DetailColor3} {
		if c != "" {
			colors = append(colors, c)
		}
	}
	return colors
}

type state struct {
	Input

	description string
	estimated   int
	detail      [3]string
	main        [3]string
	confidence  [3]*Confidence
	isMulti     bool

	errors  []string
	history []ai.Step
}

func (s *state) addStep(step, result string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	s.history = append(s.history, ai.Step{Step: step, Result: result, Metadata: metadata})
}

func (s *state) addError(format string, args ...any) {
	s.errors = append(s.errors, fmt.Sprintf(format, args...))
}

func (s *state) result() *Result {
	errs := s.errors
	if errs == nil {
		errs = []string{}
	}

	return &Result{
		ImageDescription:    s.description,
		EstimatedColorCount: s.estimated,
		DetailColor1:        s.detail[0],
		DetailColor2:        s.detail[1],
		DetailColor3:        s.detail[2],
		MainColor1:          s.main[0],
		MainColor2:          s.main[1],
		MainColor3:          s.main[2],
		IsMulti:             s.isMulti,
		Confidence1:         s.confidence[0],
		Confidence2:         s.confidence[1],
		Confidence3:         s.confidence[2],
		Errors:              errs,
		History:             s.history,
	}
}

// clamp limits a model confidence to [0, 1]. Zero and missing values are
// reported as unknown.
func clamp(v float64) *float64 {
	if v == 0 {
		return nil
	}
	v = min(max(v, 0), 1)
	return &v
}

func noneIfEmpty(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
