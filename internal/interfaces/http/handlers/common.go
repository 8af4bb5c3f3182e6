package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps err to its HTTP status. Errors without a code are masked as
// internal errors.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := apperrors.GetCode(err)
	if code == apperrors.CodeUnknown {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Code:    string(apperrors.ErrCodeInternal),
			Message: apperrors.DefaultMessageForCode(apperrors.ErrCodeInternal),
		})
		return
	}
	c.AbortWithStatusJSON(apperrors.HTTPStatusForCode(code), ErrorResponse{
		Code:    string(code),
		Message: errorMessage(err),
	})
}

// errorMessage drops the "[CODE]" prefix of a top-level AppError, which the
// body already carries in "code".
func errorMessage(err error) string {
	ae, ok := err.(*apperrors.AppError)
	if !ok {
		return err.Error()
	}
	msg := ae.Message
	if ae.Detail != "" {
		msg += ": " + ae.Detail
	}
	if ae.Cause != nil {
		msg += ": " + ae.Cause.Error()
	}
	return msg
}

// bindJSON decodes the request body into v and writes a 400 on failure.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid request body"))
		return false
	}
	return true
}
