package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

type FeedbackRepository interface {
	// Create fails with domain.ErrFeedbackAlreadySubmitted when the user already rated the match.
	Create(ctx context.Context, feedback *domain.Feedback) error
	Summary(ctx context.Context) ([]domain.FeedbackSummary, error)
}
