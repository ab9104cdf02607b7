package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ersonp/legis/internal/application/handlers"
	"github.com/ersonp/legis/internal/domain/entities"
)

// APIError is the body of every error response.
type APIError struct {
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Field   string   `json:"field,omitempty"`
	Keys    []string `json:"keys,omitempty"`
}

// ErrorEnvelope wraps an APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Error codes.
const (
	CodeInvalidRequest = "invalid_request"
	CodeValidation     = "validation_error"
	CodeNotFound       = "not_found"
	CodeConflict       = "concurrency_conflict"
	CodeUnresolved     = "unresolved_variable"
	CodeUnavailable    = "unavailable"
	CodeTimeout        = "timeout"
	CodeInternal       = "internal_error"
)

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func respondInvalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: CodeInvalidRequest}})
}

// respondError maps domain errors to status codes. Unknown errors are logged
// and reported without detail.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, ErrorEnvelope{Error: body})
}

func classify(err error) (int, APIError) {
	var (
		validation *entities.ValidationError
		unresolved *entities.UnresolvedVariableError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, APIError{Message: validation.Message, Code: CodeValidation, Field: validation.Field}
	case errors.Is(err, entities.ErrNotFound):
		return http.StatusNotFound, APIError{Message: err.Error(), Code: CodeNotFound}
	case errors.Is(err, entities.ErrConcurrencyConflict):
		return http.StatusConflict, APIError{Message: err.Error(), Code: CodeConflict}
	case errors.As(err, &unresolved):
		return http.StatusUnprocessableEntity, APIError{Message: err.Error(), Code: CodeUnresolved, Keys: unresolved.Keys}
	case errors.Is(err, handlers.ErrSearchUnavailable), errors.Is(err, handlers.ErrSuggestionUnavailable):
		return http.StatusServiceUnavailable, APIError{Message: err.Error(), Code: CodeUnavailable}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, APIError{Message: "request timed out", Code: CodeTimeout}
	}
	return http.StatusInternalServerError, APIError{Message: "internal error", Code: CodeInternal}
}
