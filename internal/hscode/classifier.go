// Package hscode suggests Harmonized System codes for items.
package hscode

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"itemsclassification/internal/ai"
	"itemsclassification/internal/metrics"
)

const node = "HSCodeClassifier"

var validCode = regexp.MustCompile(`^\d{6}(\d{2,4})?$`)

// Input describes the item. Category fields are optional and narrow down
// the heading when an item was classified before.
type Input struct {
	Image                        string
	SupplierName                 string
	SupplierReferenceDescription string
	Materials                    string

	Main   string
	Sub    string
	Detail string
}

type Result struct {
	HSCode      string  `json:"hs_code"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

var answerSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"hs_code": map[string]any{
			"type":        "string",
			"description": "Harmonized System code of the item, at least 6 digits",
		},
		"description": map[string]any{
			"type":        "string",
			"description": "Official description of the HS heading",
		},
		"confidence": map[string]any{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
	},
	"required": []string{"hs_code", "description", "confidence"},
}

var classifyTool = llms.FunctionDefinition{
	Name:        "classify_hs_code",
	Description: "Report the Harmonized System code of the product",
	Parameters:  answerSchema,
}

type Classifier struct {
	Model  ai.Model
	Meter  *metrics.PipelineMeter
	Logger *zap.SugaredLogger
}

func New(model ai.Model, meter *metrics.PipelineMeter, logger *zap.SugaredLogger) *Classifier {
	return &Classifier{
		Model:  model,
		Meter:  meter,
		Logger: logger.With("service", "hscode"),
	}
}

// Classify asks the model for the item's HS code. The answer must carry at
// least the six digit subheading.
func (c *Classifier) Classify(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()

	res, err := c.classify(ctx, in)

	status := "success"
	if err != nil {
		status = "error"
	}
	c.Meter.RecordRun(ctx, "hs_code", status, time.Since(start))

	return res, err
}

func (c *Classifier) classify(ctx context.Context, in Input) (*Result, error) {
	args, err := ai.NewAgent(node, c.Model).InvokeTool(ctx, prompt(in), in.Image, classifyTool)
	if err != nil {
		return nil, ai.WrapError(err)
	}

	if err := ai.ValidateJSON(answerSchema, args); err != nil {
		return nil, err
	}

	var res Result
	if err := json.Unmarshal([]byte(args), &res); err != nil {
		return nil, err
	}

	code := NormalizeCode(res.HSCode)
	if !validCode.MatchString(code) {
		return nil, fmt.Errorf("invalid hs code %q", res.HSCode)
	}
	res.HSCode = code

	c.Logger.Debugw("Classified HS code", "hs_code", code, "confidence", res.Confidence)

	return &res, nil
}

// NormalizeCode drops everything but digits, so "9403.60.10" becomes
// "94036010".
func NormalizeCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func prompt(in Input) string {
	var b strings.Builder

	b.WriteString("You are a customs classification expert for a home & garden retailer.\n")
	b.WriteString("Determine the Harmonized System (HS) code of the product below. ")
	b.WriteString("Give at least the 6 digit subheading; add national digits only when you are sure.\n")
	b.WriteString("Base the code on what the product is and its dominant material by weight.\n\n")

	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%v: %v\n", label, value)
		}
	}
	line("Supplier", in.SupplierName)
	line("Description", in.SupplierReferenceDescription)
	line("Materials", in.Materials)

	var category []string
	for _, v := range []string{in.Main, in.Sub, in.Detail} {
		if v != "" {
			category = append(category, v)
		}
	}
	line("Category", strings.Join(category, " > "))

	if in.Image != "" {
		b.WriteString("A photo of the product is attached.\n")
	}

	b.WriteString("\nAnswer by calling the classify_hs_code function.")

	return b.String()
}
