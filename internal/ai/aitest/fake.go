// Package aitest provides a scripted chat model for tests.
package aitest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"itemsclassification/internal/ai"
)

// Response is one scripted model answer.
type Response struct {
	Content  string
	ToolArgs string
	Err      error
}

// Call is a request the fake received.
type Call struct {
	System string
	User   string
	Image  string
	Tools  []llms.Tool
}

// Model is an llms.Model answering from a script. When Respond is set it
// decides every answer, otherwise Responses are consumed in order.
type Model struct {
	Respond   func(Call) Response
	Responses []Response

	mu    sync.Mutex
	calls []Call
}

func New(responses ...Response) *Model {
	return &Model{Responses: responses}
}

// Agent wraps the fake into an agent with the given model name.
func (m *Model) Agent(name, modelName string) *ai.Agent {
	return ai.NewAgent(name, ai.Model{Model: m, Name: modelName})
}

func (m *Model) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]Call, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *Model) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}

	call := Call{Tools: opts.Tools}
	for _, msg := range messages {
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case llms.TextContent:
				if msg.Role == llms.ChatMessageTypeSystem {
					call.System = join(call.System, p.Text)
				} else {
					call.User = join(call.User, p.Text)
				}
			case llms.ImageURLContent:
				call.Image = p.URL
			}
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	var resp Response
	switch {
	case m.Respond != nil:
		m.mu.Unlock()
		resp = m.Respond(call)
	case len(m.Responses) > 0:
		resp = m.Responses[0]
		m.Responses = m.Responses[1:]
		m.mu.Unlock()
	default:
		m.mu.Unlock()
		return nil, errors.New("aitest: no scripted response left")
	}

	if resp.Err != nil {
		return nil, resp.Err
	}

	choice := &llms.ContentChoice{Content: resp.Content}
	if resp.ToolArgs != "" && len(opts.Tools) > 0 {
		choice.ToolCalls = []llms.ToolCall{{
			ID:   "call_1",
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      opts.Tools[0].Function.Name,
				Arguments: resp.ToolArgs,
			},
		}}
	}

	return &llms.ContentResponse{Choices: []*llms.ContentChoice{choice}}, nil
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Text answers with content.
func Text(content string) Response {
	return Response{Content: content}
}

// Fail answers with err.
func Fail(err error) Response {
	return Response{Err: err}
}

// Contains reports whether the system or user prompt of c contains s.
func (c Call) Contains(s string) bool {
	return strings.Contains(c.System, s) || strings.Contains(c.User, s)
}

func join(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n" + b
}
