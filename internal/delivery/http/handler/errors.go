package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor maps a domain error to an HTTP status and a stable error code.
func StatusFor(err error) (int, string) {
	var rl *domain.RateLimitError
	switch {
	case errors.As(err, &rl):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, domain.ErrTranscriptionUnusable):
		return http.StatusUnprocessableEntity, "transcription_unusable"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrFeedbackAlreadySubmitted):
		return http.StatusConflict, "feedback_already_submitted"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrContentRejected):
		return http.StatusUnprocessableEntity, "content_rejected"
	case errors.Is(err, domain.ErrInvalidResponseShape):
		return http.StatusBadGateway, "invalid_provider_response"
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrMissingCredential):
		return http.StatusServiceUnavailable, "provider_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// RespondError writes err as an ErrorResponse. Internal errors are not echoed to the client.
func RespondError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: code})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "validation_failed"})
}

// bindError shortens JSON decoding errors to something a client can act on.
func bindError(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "\n"); i > 0 {
		msg = msg[:i]
	}
	return "invalid request body: " + msg
}
