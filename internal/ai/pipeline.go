package ai

import (
	"context"
	"strings"
	"time"
)

// PipelineError is returned by a pipeline run whose recorded errors the
// caller has to act on, such as the provider throttling requests.
type PipelineError struct {
	Kind    ErrorKind
	Message string
}

func (e *PipelineError) Error() string {
	return e.Message
}

// CheckErrors turns the errors a pipeline collected into a PipelineError
// when any of them is a rate limit or a rejected request.
func CheckErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}

	joined := strings.Join(errs, "; ")
	switch ClassifyMessage(joined) {
	case ErrorRateLimit:
		return &PipelineError{Kind: ErrorRateLimit, Message: "Rate limit error: " + joined}
	case ErrorRejected:
		return &PipelineError{Kind: ErrorRejected, Message: "System message error: " + joined}
	}

	return nil
}

// WrapError turns a failed model request into a PipelineError when the
// provider throttled or rejected it. Other errors are returned unchanged.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if pe := CheckErrors([]string{err.Error()}); pe != nil {
		return pe
	}
	return err
}

// Pause waits d between two model requests. It returns early with the
// context's error when ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Step is one entry of a pipeline's history.
type Step struct {
	Step     string         `json:"step"`
	Result   string         `json:"result"`
	Metadata map[string]any `json:"metadata"`
}
