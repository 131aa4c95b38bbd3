package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"itemsclassification/internal/metrics"
)

// Agent is a single pipeline step talking to a chat model.
type Agent struct {
	// Name identifies the step in errors, history and metrics.
	Name  string
	Model Model
}

func NewAgent(name string, model Model) *Agent {
	return &Agent{Name: name, Model: model}
}

// Invoke sends one system/user exchange, optionally with an image, and
// returns the text of the first choice.
func (a *Agent) Invoke(ctx context.Context, system, user, image string) (string, error) {
	resp, err := a.generate(ctx, BuildMessages(system, user, image, a.Model.Name))
	if err != nil {
		return "", err
	}

	return resp.Content, nil
}

// InvokeTool forces the model to call tool and returns the call arguments.
func (a *Agent) InvokeTool(ctx context.Context, prompt, image string, tool llms.FunctionDefinition) (string, error) {
	resp, err := a.generate(ctx, BuildMessages("", prompt, image, a.Model.Name),
		llms.WithTools([]llms.Tool{{Type: "function", Function: &tool}}),
		llms.WithToolChoice(llms.ToolChoice{
			Type:     "function",
			Function: &llms.FunctionReference{Name: tool.Name},
		}),
	)
	if err != nil {
		return "", err
	}

	for _, call := range resp.ToolCalls {
		if call.FunctionCall != nil && call.FunctionCall.Name == tool.Name {
			return call.FunctionCall.Arguments, nil
		}
	}

	// Some providers answer forced tool calls with plain JSON content.
	if raw, err := ExtractJSON(resp.Content); err == nil {
		return raw, nil
	}

	return "", fmt.Errorf("model did not call %v", tool.Name)
}

func (a *Agent) generate(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentChoice, error) {
	if a.Model.Model == nil {
		return nil, errors.New("no model configured")
	}

	opts := append(append([]llms.CallOption{}, a.Model.Options...), options...)

	resp, err := a.Model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		metrics.LLMRequests.WithLabelValues(a.Name, Classify(err).String()).Inc()
		return nil, err
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequests.WithLabelValues(a.Name, "empty").Inc()
		return nil, errors.New("empty response from model")
	}

	metrics.LLMRequests.WithLabelValues(a.Name, "ok").Inc()

	return resp.Choices[0], nil
}
