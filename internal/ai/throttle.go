package ai

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// Throttle spaces out model requests to stay under the provider's per-second
// and per-minute limits.
type Throttle struct {
	perSecond *rate.Limiter
	perMinute *rate.Limiter
}

// NewThrottle creates a throttle. Non-positive limits disable the
// corresponding limiter.
func NewThrottle(requestsPerSecond float64, requestsPerMinute int) *Throttle {
	t := &Throttle{}

	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		t.perSecond = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}

	if requestsPerMinute > 0 {
		t.perMinute = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}

	return t
}

// Wait blocks until both limiters allow one more request or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}

	if t.perMinute != nil {
		if err := t.perMinute.Wait(ctx); err != nil {
			return err
		}
	}

	if t.perSecond != nil {
		if err := t.perSecond.Wait(ctx); err != nil {
			return err
		}
	}

	return nil
}

type throttledModel struct {
	model    llms.Model
	throttle *Throttle
}

// Throttled wraps model so every request waits on throttle first.
func Throttled(model llms.Model, throttle *Throttle) llms.Model {
	return &throttledModel{model: model, throttle: throttle}
}

func (m *throttledModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if err := m.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	return m.model.GenerateContent(ctx, messages, options...)
}

func (m *throttledModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}
