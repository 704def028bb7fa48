package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

const maxErrorBodyBytes = 512

// statusError is a non-2xx provider response.
type statusError struct {
	Code       int
	Body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Code, e.Body)
}

func (e *statusError) RetryAfter() time.Duration { return e.retryAfter }

func newStatusError(resp *http.Response) *statusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	se := &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			se.retryAfter = time.Duration(secs) * time.Second
		}
	}
	return se
}

// isRetryable retries rate limits, server errors and transport failures.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrInvalidResponseShape) || errors.Is(err, domain.ErrMissingCredential) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code == http.StatusRequestTimeout || se.Code >= 500
	}
	return true
}

// classify maps a final provider error onto the domain taxonomy.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInvalidResponseShape),
		errors.Is(err, domain.ErrMissingCredential),
		errors.Is(err, domain.ErrValidation):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrProviderUnavailable, err)
	}
}
