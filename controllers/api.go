package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"itemsclassification/core"
)

var (
	ErrInternalError = core.NewError(core.ErrCodeInternal, "Internal error")
	ErrMissingImage  = core.NewError(core.ErrCodeInvalidRequest, "Must provide either file, image_url, or image_base64")
	ErrTooManyReqs   = core.NewRetryableError(core.ErrCodeRateLimited, "Too many requests")
)

type apiResponse struct {
	Errors []*core.StandardError `json:"errors,omitempty"`
	Data   any                   `json:"data,omitempty"`
}

func standardErrors(errs []error, fallback core.ErrorCode) []*core.StandardError {
	out := make([]*core.StandardError, len(errs))
	for i, err := range errs {
		out[i] = core.AsStandardError(err, fallback)
	}
	return out
}

func RespondOK(c *gin.Context, obj any) {
	c.JSON(http.StatusOK, apiResponse{Data: obj})
}

func RespondBadRequestErr(c *gin.Context, errors []error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, apiResponse{Errors: standardErrors(errors, core.ErrCodeInvalidRequest)})
}

func RespondNotFoundErr(c *gin.Context, errors []error) {
	c.AbortWithStatusJSON(http.StatusNotFound, apiResponse{Errors: standardErrors(errors, core.ErrCodeItemNotFound)})
}

func RespondCustomStatusErr(c *gin.Context, status int, errors []error) {
	c.AbortWithStatusJSON(status, apiResponse{Errors: standardErrors(errors, core.ErrCodeInternal)})
}

func RespondInternalErr(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, apiResponse{Errors: []*core.StandardError{ErrInternalError}})
}

// RespondPipelineErr reports a failed pipeline run. Provider throttling is
// reported as 429 so clients know to retry.
func RespondPipelineErr(c *gin.Context, prefix string, err error) {
	se := *core.AsStandardError(err, core.ErrCodeClassificationFailed)
	se.Message = prefix + err.Error()

	status := http.StatusInternalServerError
	if se.Code == core.ErrCodeLLMRateLimited {
		status = http.StatusTooManyRequests
	}

	c.AbortWithStatusJSON(status, apiResponse{Errors: []*core.StandardError{&se}})
}
