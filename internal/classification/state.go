package classification

import (
	"strings"

	"itemsclassification/internal/ai"
)

// Input is what the classifier knows about an item. Every field is optional.
type Input struct {
	// Image is an http(s) URL, a data URI or raw base64 image data.
	Image string

	SupplierName                 string
	SupplierReferenceDescription string
	Materials                    string
}

// Details renders the item's text fields for the prompts, or "" when none
// is set.
func (in Input) Details() string {
	var parts []string
	if in.SupplierName != "" {
		parts = append(parts, "Supplier: "+in.SupplierName)
	}
	if in.SupplierReferenceDescription != "" {
		parts = append(parts, "Description: "+in.SupplierReferenceDescription)
	}
	if in.Materials != "" {
		parts = append(parts, "Materials: "+in.Materials)
	}
	return strings.Join(parts, ", ")
}

// Result is the outcome of one classification run.
type Result struct {
	Main   string `json:"main"`
	Sub    string `json:"sub"`
	Detail string `json:"detail"`
	Level4 string `json:"level4"`

	IsComplete bool      `json:"is_complete"`
	Errors     []string  `json:"errors"`
	History    []ai.Step `json:"history"`
}

type state struct {
	Input
	Result
}

func (s *state) addStep(step, result string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	s.History = append(s.History, ai.Step{Step: step, Result: result, Metadata: metadata})
}

func (s *state) addError(msg string) {
	s.Errors = append(s.Errors, msg)
}

func (s *state) complete() bool {
	return s.Main != "" && s.Sub != "" && s.Detail != "" && s.Level4 != ""
}
