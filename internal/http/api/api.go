package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Playtag-Media/boxfleet/internal/apperr"
)

// APIError is what a handler returns instead of writing the response
// itself; ResolveEndpoint turns it into a JSON error body.
type APIError struct {
	Code    int
	Message string
}

// HandlerFunc is the endpoint shape used across the API: return a body or
// an APIError, never both.
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

// ResolveEndpoint adapts a HandlerFunc into a gin handler.
func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}

// FromError maps the error taxonomy onto HTTP codes: NotFound 404,
// Validation 400, Conflict 409, anything else 500.
func FromError(err error) *APIError {
	switch {
	case apperr.IsNotFound(err):
		return &APIError{Code: http.StatusNotFound, Message: err.Error()}
	case apperr.IsValidation(err):
		return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
	case apperr.IsConflict(err):
		return &APIError{Code: http.StatusConflict, Message: err.Error()}
	default:
		return &APIError{Code: http.StatusInternalServerError, Message: "internal error"}
	}
}
