package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"itemsclassification/internal/ai"
)

func TestAsStandardError(t *testing.T) {
	rate := ai.CheckErrors([]string{"PrimaryColorClassifier error: API returned 429"})
	se := AsStandardError(rate, ErrCodeClassificationFailed)
	assert.Equal(t, ErrCodeLLMRateLimited, se.Code)
	assert.True(t, se.Retryable)

	rejected := ai.CheckErrors([]string{"MainClassifier error: 400 Developer instruction is not enabled"})
	se = AsStandardError(fmt.Errorf("classify: %w", rejected), ErrCodeClassificationFailed)
	assert.Equal(t, ErrCodeLLMRequestRejected, se.Code)
	assert.False(t, se.Retryable)

	se = AsStandardError(errors.New("boom"), ErrCodeStorageFailed)
	assert.Equal(t, &StandardError{Code: ErrCodeStorageFailed, Message: "boom"}, se)

	orig := NewError(ErrCodeItemNotFound, "missing")
	assert.Same(t, orig, AsStandardError(fmt.Errorf("wrap: %w", orig), ErrCodeInternal))
}

func TestStandardError(t *testing.T) {
	e := NewError(ErrCodeInvalidRequest, "bad input")
	assert.Equal(t, "INVALID_REQUEST: bad input", e.Error())

	d := e.WithDetails("field x")
	assert.Equal(t, "field x", d.Details)
	assert.Empty(t, e.Details)
}
