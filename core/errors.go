package core

import (
	"errors"
	"fmt"

	"itemsclassification/internal/ai"
)

// ErrorCode identifies an error kind in API responses.
type ErrorCode string

const (
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrCodeItemNotFound         ErrorCode = "ITEM_NOT_FOUND"
	ErrCodeImageNotFound        ErrorCode = "IMAGE_NOT_FOUND"
	ErrCodeTaskNotFound         ErrorCode = "TASK_NOT_FOUND"
	ErrCodeLLMRateLimited       ErrorCode = "LLM_RATE_LIMITED"
	ErrCodeLLMRequestRejected   ErrorCode = "LLM_REQUEST_REJECTED"
	ErrCodeClassificationFailed ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeVectorDBFailed       ErrorCode = "VECTOR_DB_FAILED"
	ErrCodeStorageFailed        ErrorCode = "STORAGE_FAILED"
	ErrCodeDatabaseFailed       ErrorCode = "DATABASE_FAILED"
	ErrCodeRateLimited          ErrorCode = "RATE_LIMITED"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error object returned by the API.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *StandardError {
	return &StandardError{Code: code, Message: message}
}

func NewRetryableError(code ErrorCode, message string) *StandardError {
	return &StandardError{Code: code, Message: message, Retryable: true}
}

// WithDetails returns a copy of e carrying details.
func (e *StandardError) WithDetails(details string) *StandardError {
	c := *e
	c.Details = details
	return &c
}

// AsStandardError converts err into a StandardError. Pipeline errors keep
// their kind; everything else becomes fallback with err as the message.
func AsStandardError(err error, fallback ErrorCode) *StandardError {
	var se *StandardError
	if errors.As(err, &se) {
		return se
	}

	var pe *ai.PipelineError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case ai.ErrorRateLimit:
			return NewRetryableError(ErrCodeLLMRateLimited, err.Error())
		case ai.ErrorRejected:
			return NewError(ErrCodeLLMRequestRejected, err.Error())
		}
	}

	return NewError(fallback, err.Error())
}
