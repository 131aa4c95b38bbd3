package ai

import "strings"

// ErrorKind groups model errors by how the pipelines react to them.
type ErrorKind int

const (
	ErrorOther ErrorKind = iota
	// ErrorRateLimit means the provider throttled the request.
	ErrorRateLimit
	// ErrorRejected means the provider refused the request itself, usually
	// because the model does not accept system messages.
	ErrorRejected
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorRateLimit:
		return "rate_limit"
	case ErrorRejected:
		return "rejected"
	default:
		return "other"
	}
}

// Classify returns the kind of err. A nil error is ErrorOther.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorOther
	}
	return ClassifyMessage(err.Error())
}

// ClassifyMessage classifies an error message. Errors recorded by pipeline
// nodes are plain strings, so the check works on text.
func ClassifyMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)

	if strings.Contains(msg, "429") || strings.Contains(lower, "rate limit") || strings.Contains(lower, "rate-limited") {
		return ErrorRateLimit
	}

	if strings.Contains(msg, "400") || strings.Contains(msg, "Developer instruction") {
		return ErrorRejected
	}

	return ErrorOther
}
