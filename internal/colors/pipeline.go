// Package colors detects up to three product colors from an image and maps
// them onto the main color palette.
package colors

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"itemsclassification/internal/ai"
	"itemsclassification/internal/metrics"
	"itemsclassification/internal/taxonomy"
)

const (
	describeNode  = "ColorDescriptionClassifier"
	primaryNode   = "PrimaryColorClassifier"
	multiGateNode = "MultiGateClassifier"
	neutralNode   = "NeutralVerifier"
	secondaryNode = "SecondaryColorsClassifier"
	mapperNode    = "MainColorMapper"
)

// Pipeline runs describe, primary, multi gate, neutral verification,
// secondary and mapping steps. Vision serves the steps where the image
// matters most, Fast the verification steps.
type Pipeline struct {
	Taxonomy *taxonomy.Taxonomy
	Priors   *Priors
	Vision   ai.Model
	Fast     ai.Model
	Delay    time.Duration
	Meter    *metrics.PipelineMeter
	Logger   *zap.SugaredLogger

	// allowed is the prompt listing of the choosable colors.
	allowed string
}

func New(tx *taxonomy.Taxonomy, vision, fast ai.Model, delay time.Duration, meter *metrics.PipelineMeter, logger *zap.SugaredLogger) *Pipeline {
	if fast.Model == nil {
		fast = vision
	}

	return &Pipeline{
		Taxonomy: tx,
		Priors:   NewPriors(tx),
		Vision:   vision,
		Fast:     fast,
		Delay:    delay,
		Meter:    meter,
		Logger:   logger.With("service", "colors"),
		allowed:  groupedColors(tx.ChoosableColors()),
	}
}

// Detect runs the pipeline. Step failures are recorded in the result's
// errors. An error is returned only when the provider throttled or rejected
// a request.
func (p *Pipeline) Detect(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	s := &state{Input: in}

	run := func(node string, fn func(context.Context, *state) error) {
		if err := fn(ctx, s); err != nil && ctx.Err() == nil {
			p.Logger.Warnw("Color step failed", "node", node, "error", err)
			s.addError("%v error: %v", node, err)
		}
	}

	run(describeNode, p.describe)
	if err := ai.Pause(ctx, p.Delay); err != nil {
		return nil, err
	}

	run(primaryNode, p.primary)
	if err := ai.Pause(ctx, p.Delay); err != nil {
		return nil, err
	}

	run(multiGateNode, p.multiGate)

	if !s.isMulti {
		if neutralFamily[s.detail[0]] {
			run(neutralNode, p.verifyNeutral)
		}
		if err := ai.Pause(ctx, p.Delay); err != nil {
			return nil, err
		}

		run(secondaryNode, p.secondary)
	}

	p.mapMainColors(s)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	err := ai.CheckErrors(s.errors)

	status := "success"
	if err != nil {
		status = "error"
	}
	p.Meter.RecordRun(ctx, "colors", status, time.Since(start))

	if err != nil {
		return nil, err
	}

	return s.result(), nil
}

func (p *Pipeline) hints(s *state) string {
	return p.Priors.HintsBlock(s.SupplierReferenceDescription, s.Materials)
}

func (p *Pipeline) invoke(ctx context.Context, node string, model ai.Model, system, user string, s *state) (map[string]any, string, error) {
	out, err := ai.NewAgent(node, model).Invoke(ctx, system, user, s.Image)
	if err != nil {
		return nil, "", err
	}

	var parsed map[string]any
	if err := ai.DecodeJSON(out, &parsed); err != nil {
		return nil, out, nil
	}

	return parsed, out, nil
}

func (p *Pipeline) describe(ctx context.Context, s *state) error {
	parsed, raw, err := p.invoke(ctx, describeNode, p.Vision,
		describeSystemPrompt(p.hints(s)), describeUserPrompt(s.Image != ""), s)
	if err != nil {
		return err
	}

	if parsed == nil {
		s.description = raw
	} else {
		s.description = stringOf(parsed["description"])
		s.estimated = int(floatOf(parsed["estimated_color_count"]))
	}

	s.addStep("color_description", s.description, map[string]any{"estimated_color_count": s.estimated})

	return nil
}

func (p *Pipeline) primary(ctx context.Context, s *state) error {
	parsed, _, err := p.invoke(ctx, primaryNode, p.Vision,
		primarySystemPrompt(s.description, p.hints(s), p.allowed), primaryUserPrompt(s.Image != ""), s)
	if err != nil {
		return err
	}

	color := stringOf(parsed["detail_color"])
	confidence := floatOf(parsed["confidence"])
	reasoning := stringOf(parsed["reasoning"])

	if color != "" {
		// Multi is decided by the multi gate only.
		normalized := p.Priors.Normalize(color)
		if !p.Priors.Choosable(normalized) {
			s.addError("%v: Invalid color '%v'.", primaryNode, color)
			color = ""
			confidence = 0
		} else {
			color = normalized
		}
	}

	s.detail[0] = color
	s.confidence[0] = &Confidence{DetailColorConfidence: clamp(confidence), Reasoning: reasoning}

	s.addStep("primary_color", noneIfEmpty(color), map[string]any{"confidence": confidence, "reasoning": reasoning})

	return nil
}

// singleTone colors are never part of a multicolored product's primary.
var singleTone = setOf(
	"Natural", "Gold", "Silver", "Bronze", "Copper",
	"Brass", "Champagne", "Rose gold", "Black", "White",
)

func (p *Pipeline) multiGate(ctx context.Context, s *state) error {
	parsed, _, err := p.invoke(ctx, multiGateNode, p.Fast,
		multiGateSystemPrompt(s.description, s.estimated, s.detail[0], p.hints(s)), multiGateUserPrompt(s.Image != ""), s)
	if err != nil {
		return err
	}

	isMulti, _ := parsed["is_multi"].(bool)
	reasoning := stringOf(parsed["reasoning"])

	if isMulti && s.estimated <= 3 {
		isMulti = false
		reasoning = fmt.Sprintf("Overridden: est_count=%v <= 3", s.estimated)
	}

	if isMulti && singleTone[s.detail[0]] {
		isMulti = false
		reasoning = fmt.Sprintf("Overridden: primary '%v' is single-tone", s.detail[0])
	}

	s.isMulti = isMulti
	result := "not_multi"
	if isMulti {
		result = "multi"
		if reasoning == "" {
			reasoning = "Multi-gate: 4+ distinct prominent colors"
		}
		one := 1.0
		s.detail = [3]string{taxonomy.Multi, "", ""}
		s.confidence = [3]*Confidence{{DetailColorConfidence: &one, Reasoning: reasoning}, nil, nil}
	}

	s.addStep("multi_gate", result, map[string]any{
		"is_multi":              isMulti,
		"estimated_color_count": s.estimated,
		"reasoning":             reasoning,
	})

	return nil
}

// neutralFamily are the primary colors models confuse most, so they get a
// second look.
var neutralFamily = setOf(
	"Natural", "Beige", "Off-white", "Ecru", "Light beige",
	"Greige", "Taupe", "Camel", "Caramel", "Brown", "Dark brown",
)

func (p *Pipeline) verifyNeutral(ctx context.Context, s *state) error {
	current := s.detail[0]

	parsed, _, err := p.invoke(ctx, neutralNode, p.Fast,
		neutralSystemPrompt(current, s.description, p.hints(s)), neutralUserPrompt(current, s.Image != ""), s)
	if err != nil {
		return err
	}

	if parsed == nil {
		s.addStep("neutral_verify", fmt.Sprintf("kept %v (parse error)", current), map[string]any{"error": "parse_failed"})
		return nil
	}

	color := stringOf(parsed["detail_color"])
	confidence := floatOf(parsed["confidence"])
	reasoning := stringOf(parsed["reasoning"])

	if color != "" {
		normalized := p.Priors.Normalize(color)
		if !neutralFamily[normalized] {
			s.addStep("neutral_verify", fmt.Sprintf("kept %v (invalid: %v)", current, color), map[string]any{"attempted": color})
			return nil
		}
		color = normalized
	}

	if color != "" && color != current {
		s.detail[0] = color
		s.confidence[0] = &Confidence{DetailColorConfidence: clamp(confidence), Reasoning: reasoning}
	}

	s.addStep("neutral_verify", fmt.Sprintf("%v -> %v", current, s.detail[0]), map[string]any{
		"original":   current,
		"verified":   s.detail[0],
		"changed":    current != s.detail[0],
		"confidence": confidence,
		"reasoning":  reasoning,
	})

	return nil
}

type secondaryColor struct {
	color      string
	confidence float64
	reasoning  string
}

func (p *Pipeline) secondary(ctx context.Context, s *state) error {
	parsed, _, err := p.invoke(ctx, secondaryNode, p.Fast,
		secondarySystemPrompt(s.description, s.detail[0], p.hints(s), p.allowed), secondaryUserPrompt(s.Image != ""), s)
	if err != nil {
		return err
	}

	read := func(slot int) secondaryColor {
		raw := strings.TrimSpace(stringOf(parsed[fmt.Sprintf("detail_color_%v", slot)]))
		color := p.Priors.Normalize(raw)

		if (color != "" && !p.Priors.Choosable(color)) || (color == "" && raw != "" && !isNull(raw)) {
			s.addError("%v: Invalid color_%v '%v'.", secondaryNode, slot, raw)
			return secondaryColor{}
		}

		return secondaryColor{
			color:      color,
			confidence: floatOf(parsed[fmt.Sprintf("confidence_%v", slot)]),
			reasoning:  stringOf(parsed[fmt.Sprintf("reasoning_%v", slot)]),
		}
	}

	second, third := read(2), read(3)

	if second.color != "" && second.color == s.detail[0] {
		second = secondaryColor{}
	}
	if third.color != "" && (third.color == s.detail[0] || third.color == second.color) {
		third = secondaryColor{}
	}
	if second.color == "" && third.color != "" {
		second, third = third, secondaryColor{}
	}

	s.detail[1], s.detail[2] = second.color, third.color
	s.confidence[1], s.confidence[2] = nil, nil
	if second.color != "" {
		s.confidence[1] = &Confidence{DetailColorConfidence: clamp(second.confidence), Reasoning: second.reasoning}
	}
	if third.color != "" {
		s.confidence[2] = &Confidence{DetailColorConfidence: clamp(third.confidence), Reasoning: third.reasoning}
	}

	s.addStep("secondary_colors", fmt.Sprintf("color_2=%v, color_3=%v", noneIfEmpty(second.color), noneIfEmpty(third.color)), map[string]any{
		"color_2":      second.color,
		"color_3":      third.color,
		"confidence_2": second.confidence,
		"confidence_3": third.confidence,
	})

	return nil
}

// chromaticColors are colors that, when the text mentions them, show that a
// "Transparent" product is really colored glass or plastic.
var chromaticColors = setOf(
	"Red", "Dark red", "Christmas red", "Coral red", "Carmine red", "Burgundy", "Marsala",
	"Light blue", "Blue", "Dark blue", "Grey blue", "Cobalt blue", "Azure blue", "Turquoise", "Petrol",
	"Light yellow", "Yellow", "Warm yellow", "Mustard yellow", "Ocher yellow",
	"Light green", "Green", "Dark green", "Grey-green", "Moss green", "Olive", "Khaki green",
	"Mint green", "Emerald green",
	"Light purple", "Purple", "Dark purple", "Lilac", "Lavender", "Mauve", "Violet", "Eggplant",
	"Light orange", "Orange", "Dark orange", "Peach", "Apricot",
	"Light pink", "Pink", "Dark pink", "Old pink", "Salmon pink", "Fuchsia",
	"Gold", "Bronze", "Copper", "Brass", "Rose gold",
	"Brown", "Dark brown", "Camel", "Caramel", "Terracotta", "Cognac", "Rust brown",
)

func (p *Pipeline) correctTransparent(s *state) {
	if s.detail[0] != "Transparent" {
		return
	}

	hints := p.Priors.TextHints(s.SupplierReferenceDescription)
	var chromatic []string
	for _, h := range hints {
		if chromaticColors[h] {
			chromatic = append(chromatic, h)
		}
	}
	if len(chromatic) == 0 {
		return
	}

	color := chromatic[0]
	confidence := 0.7
	if old := s.confidence[0]; old != nil && old.DetailColorConfidence != nil {
		confidence = *old.DetailColorConfidence * 0.85
	}

	s.detail[0] = color
	s.confidence[0] = &Confidence{
		DetailColorConfidence: clamp(confidence),
		Reasoning:             fmt.Sprintf("Corrected Transparent -> %v based on text hint '%v'", color, s.SupplierReferenceDescription),
	}
	s.addStep("transparent_correction", "Transparent -> "+color, map[string]any{
		"text_hints":      hints,
		"chromatic_hints": chromatic,
	})
}

func (p *Pipeline) mapMainColors(s *state) {
	p.correctTransparent(s)

	for i, detail := range s.detail {
		main, ok := p.Taxonomy.MainColorOf(detail)
		s.main[i] = main

		conf := s.confidence[i]
		if conf == nil || detail == "" {
			continue
		}
		if ok {
			conf.MainColorConfidence = conf.DetailColorConfidence
		} else {
			zero := 0.0
			conf.MainColorConfidence = &zero
			s.addError("%v: No main color mapping for '%v'", mapperNode, detail)
		}
	}

	s.addStep("main_color_mapping",
		fmt.Sprintf("main_1=%v, main_2=%v, main_3=%v", noneIfEmpty(s.main[0]), noneIfEmpty(s.main[1]), noneIfEmpty(s.main[2])),
		map[string]any{"main_color_1": s.main[0], "main_color_2": s.main[1], "main_color_3": s.main[2]})
}

func isNull(s string) bool {
	return strings.EqualFold(s, "null") || strings.EqualFold(s, "none")
}

func setOf(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func stringOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func floatOf(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	}
	return 0
}
