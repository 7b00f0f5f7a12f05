package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/heartguard-ai-go/internal/form"
	"github.com/irfndi/heartguard-ai-go/internal/middleware"
	"github.com/irfndi/heartguard-ai-go/internal/wizard"
)

// ErrorResponse is the body of every failed JSON call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusOf maps a wizard or form error to its HTTP status.
func StatusOf(err error) int {
	var vErr *form.ValidationError
	var bErr *badRequest
	switch {
	case errors.As(err, &bErr):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrSubmitInFlight):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrUnknownPreset):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrInvalidField),
		errors.Is(err, form.ErrUnknownField),
		errors.As(err, &vErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: http.StatusText(status), Message: message})
}

// respondError writes err with the status StatusOf assigns it. Server
// errors are recorded on the request span without leaking their text.
func respondError(c *gin.Context, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		middleware.RecordError(c, err, "wizard operation failed")
		_ = c.Error(err)
		abortWithError(c, status, "internal error")
		return
	}
	abortWithError(c, status, err.Error())
}
