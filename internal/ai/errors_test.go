package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ErrorOther},
		{errors.New("API returned unexpected status code: 429: too many requests"), ErrorRateLimit},
		{errors.New("Rate limit exceeded for model"), ErrorRateLimit},
		{errors.New("upstream is temporarily rate-limited"), ErrorRateLimit},
		{errors.New("API returned unexpected status code: 400: bad request"), ErrorRejected},
		{errors.New("Developer instruction is not enabled for models/gemma"), ErrorRejected},
		{errors.New("connection reset by peer"), ErrorOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "rate_limit", ErrorRateLimit.String())
	assert.Equal(t, "rejected", ErrorRejected.String())
	assert.Equal(t, "other", ErrorOther.String())
}
