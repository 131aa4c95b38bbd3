package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil))

	plain := errors.New("connection reset")
	assert.Same(t, plain, WrapError(plain))

	var pe *PipelineError
	require.ErrorAs(t, WrapError(errors.New("status code: 429")), &pe)
	assert.Equal(t, ErrorRateLimit, pe.Kind)

	require.ErrorAs(t, WrapError(errors.New("Developer instruction is not enabled")), &pe)
	assert.Equal(t, ErrorRejected, pe.Kind)
}

func TestCheckErrors(t *testing.T) {
	assert.NoError(t, CheckErrors(nil))
	assert.NoError(t, CheckErrors([]string{"SubClassifier error: timeout"}))

	err := CheckErrors([]string{"SubClassifier error: timeout", "DetailClassifier error: status code: 429"})
	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrorRateLimit, pe.Kind)
	assert.Equal(t, "Rate limit error: SubClassifier error: timeout; DetailClassifier error: status code: 429", pe.Error())

	err = CheckErrors([]string{"MainClassifier error: Developer instruction is not enabled"})
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrorRejected, pe.Kind)
	assert.Contains(t, pe.Error(), "System message error: ")
}

func TestPause(t *testing.T) {
	assert.NoError(t, Pause(context.Background(), 0))
	assert.NoError(t, Pause(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Pause(ctx, time.Hour), context.Canceled)
}
