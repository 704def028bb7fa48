package domain

import (
	"errors"
	"fmt"
	"time"
)

// Request and identity errors
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Entity errors
var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrProfileNotFound = fmt.Errorf("profile %w", ErrNotFound)
	ErrMatchNotFound   = fmt.Errorf("match %w", ErrNotFound)
)

// External provider errors
var (
	ErrProviderUnavailable  = errors.New("provider unavailable")
	ErrInvalidResponseShape = errors.New("invalid provider response shape")
	ErrMissingCredential    = errors.New("missing provider credential")
	ErrContentRejected      = errors.New("content rejected by moderation")

	// ErrTranscriptionUnusable marks transcripts that are too short or known artifacts.
	ErrTranscriptionUnusable = fmt.Errorf("%w: transcription unusable", ErrValidation)
)

// Lifecycle errors
var (
	ErrInvalidTransition        = errors.New("invalid match status transition")
	ErrStatusConflict           = errors.New("match status changed concurrently")
	ErrFeedbackAlreadySubmitted = errors.New("feedback already submitted for this match")
)

// RateLimitError is returned when a caller exceeded its request quota.
type RateLimitError struct {
	RetryAfter time.Duration
	Limit      int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit of %d requests exceeded, retry after %s", e.Limit, e.RetryAfter)
}

// Validationf builds an ErrValidation-wrapped error with a user-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
