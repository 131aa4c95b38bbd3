// Package classification assigns items to the four level product taxonomy
// by asking a chat model one level at a time.
package classification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"itemsclassification/internal/ai"
	"itemsclassification/internal/metrics"
	"itemsclassification/internal/taxonomy"
)

const (
	mainNode   = "MainClassifier"
	subNode    = "SubClassifier"
	detailNode = "DetailClassifier"
	level4Node = "Level4Classifier"
)

// Pipeline classifies an item main, sub, detail, level4 in that order, each
// level restricted by the hierarchy under the level above it.
type Pipeline struct {
	Taxonomy *taxonomy.Taxonomy
	Model    ai.Model
	// Delay staggers the model requests of consecutive levels.
	Delay  time.Duration
	Meter  *metrics.PipelineMeter
	Logger *zap.SugaredLogger
}

func New(tx *taxonomy.Taxonomy, model ai.Model, delay time.Duration, meter *metrics.PipelineMeter, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		Taxonomy: tx,
		Model:    model,
		Delay:    delay,
		Meter:    meter,
		Logger:   logger.With("service", "classification"),
	}
}

// Classify runs the whole pipeline. Failures of single levels are recorded
// in the result's errors and the remaining levels still run. An error is
// returned when the provider throttled or rejected a request, or when the
// main level could not be classified at all.
func (p *Pipeline) Classify(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	s := &state{Input: in}

	steps := []struct {
		name string
		run  func(context.Context, *state) error
	}{
		{mainNode, p.classifyMain},
		{subNode, p.classifySub},
		{detailNode, p.classifyDetail},
		{level4Node, p.classifyLevel4},
	}

	for i, step := range steps {
		if i > 0 {
			if err := ai.Pause(ctx, p.Delay); err != nil {
				return nil, err
			}
		}

		if err := step.run(ctx, s); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.Logger.Warnw("Classification step failed", "node", step.name, "error", err)
			s.addError(fmt.Sprintf("%v error: %v", step.name, err))
		}
	}

	s.IsComplete = s.complete()
	if s.Errors == nil {
		s.Errors = []string{}
	}

	err := ai.CheckErrors(s.Errors)
	if err == nil && s.Main == "" && hasNodeError(s.Errors, mainNode) {
		err = errors.New("Main classification failed: " + strings.Join(s.Errors, "; "))
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	p.Meter.RecordRun(ctx, "classification", status, time.Since(start))

	if err != nil {
		return nil, err
	}

	return &s.Result, nil
}

func hasNodeError(errs []string, node string) bool {
	for _, e := range errs {
		if strings.Contains(e, node) {
			return true
		}
	}
	return false
}

func (p *Pipeline) agent(name string) *ai.Agent {
	return ai.NewAgent(name, p.Model)
}

// ask sends the prompts and reads key from the JSON answer. Answers that
// are not JSON or lack the key count as Unspecified.
func (p *Pipeline) ask(ctx context.Context, node, system, user, image, key string) (string, error) {
	out, err := p.agent(node).Invoke(ctx, system, user, image)
	if err != nil {
		return "", err
	}

	var answer map[string]any
	if err := ai.DecodeJSON(out, &answer); err != nil {
		p.Logger.Debugw("Unparsable classification answer", "node", node, "answer", out)
		return taxonomy.Unspecified, nil
	}

	value, ok := answer[key].(string)
	if !ok {
		return taxonomy.Unspecified, nil
	}

	return strings.TrimSpace(value), nil
}

// askSpecific is ask with one retry when the model falls back to
// Unspecified although specific values were offered.
func (p *Pipeline) askSpecific(ctx context.Context, node, system, user, image, key string, hasSpecific bool) (string, error) {
	value, err := p.ask(ctx, node, system, user, image, key)
	if err != nil || value != taxonomy.Unspecified || !hasSpecific {
		return value, err
	}

	return p.ask(ctx, node, insistOnSpecific(system), user, image, key)
}

func (p *Pipeline) classifyMain(ctx context.Context, s *state) error {
	values := p.Taxonomy.Main

	value, err := p.ask(ctx, mainNode, mainSystemPrompt(values), mainUserPrompt(s.Image != "", s.Details()), s.Image, "main")
	if err != nil {
		return err
	}

	if !taxonomy.Contains(values, value) {
		s.addError(fmt.Sprintf("Invalid main value: %v. Must be one of %v", value, values))
		value = taxonomy.Unspecified
	}

	s.Main = value
	s.addStep("main", value, nil)

	return nil
}

func (p *Pipeline) classifySub(ctx context.Context, s *state) error {
	if s.Main == "" {
		s.addError("Cannot classify sub category without main classification")
		return nil
	}

	allowed := taxonomy.Allowed(p.Taxonomy.Sub, p.Taxonomy.ValidSub(s.Main), s.Main)

	value, err := p.askSpecific(ctx, subNode,
		subSystemPrompt(s.Main, allowed),
		subUserPrompt(s.Main, s.Image != "", s.Details()),
		s.Image, "sub", hasSpecific(allowed, s.Main))
	if err != nil {
		return err
	}

	value = validate(s, value, allowed, "sub", "main", s.Main)

	s.Sub = value
	s.addStep("sub", value, map[string]any{"main": s.Main})

	return nil
}

func (p *Pipeline) classifyDetail(ctx context.Context, s *state) error {
	if s.Main == "" || s.Sub == "" {
		s.addError("Cannot classify detail category without main and sub classifications")
		return nil
	}

	allowed := taxonomy.Allowed(p.Taxonomy.Detail, p.Taxonomy.ValidDetail(s.Sub), s.Sub)

	value, err := p.askSpecific(ctx, detailNode,
		detailSystemPrompt(s.Main, s.Sub, allowed),
		detailUserPrompt(s.Main, s.Sub, s.Image != "", s.Details()),
		s.Image, "detail", hasSpecific(allowed, s.Sub))
	if err != nil {
		return err
	}

	value = validate(s, value, allowed, "detail", "sub", s.Sub)

	s.Detail = value
	s.addStep("detail", value, map[string]any{"main": s.Main, "sub": s.Sub})

	return nil
}

func (p *Pipeline) classifyLevel4(ctx context.Context, s *state) error {
	if s.Main == "" || s.Sub == "" || s.Detail == "" {
		s.addError("Cannot classify level4 category without main, sub, and detail classifications")
		return nil
	}

	value, err := p.ask(ctx, level4Node,
		level4SystemPrompt(s.Main, s.Sub, s.Detail, p.Taxonomy.Level4),
		level4UserPrompt(s.Image != "", s.Details()),
		s.Image, "level4")
	if err != nil {
		return err
	}

	// Level4 is free form.
	if value == "" {
		value = taxonomy.Unspecified
	}

	s.Level4 = value
	s.addStep("level4", value, map[string]any{"main": s.Main, "sub": s.Sub, "detail": s.Detail})

	return nil
}

// hasSpecific reports whether a retry on Unspecified makes sense.
func hasSpecific(allowed []string, parent string) bool {
	if parent == "" || parent == taxonomy.Unspecified {
		return false
	}
	for _, v := range allowed {
		if v != taxonomy.Unspecified {
			return true
		}
	}
	return false
}

// validate checks value against allowed. Unspecified is always accepted;
// anything else outside the list falls back to the first allowed value.
func validate(s *state, value string, allowed []string, level, parentLevel, parent string) string {
	if value == taxonomy.Unspecified || taxonomy.Contains(allowed, value) {
		return value
	}

	s.addError(fmt.Sprintf("Invalid %v value: %v for %v: %v. Must be one of %v. Using fallback.", level, value, parentLevel, parent, allowed))

	if len(allowed) > 0 {
		return allowed[0]
	}
	return taxonomy.Unspecified
}
