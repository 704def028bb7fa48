package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
)

const uniqueViolation = "23505"

type feedbackRepository struct {
	db *sqlx.DB
}

func NewFeedbackRepository(db *sqlx.DB) repository.FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	query := `
		INSERT INTO match_feedback (id, match_id, user_id, rating, outcome, text)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		feedback.ID, feedback.MatchID, feedback.UserID, feedback.Rating, feedback.Outcome, feedback.Text,
	).Scan(&feedback.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrFeedbackAlreadySubmitted
		}
		return err
	}
	return nil
}

func (r *feedbackRepository) Summary(ctx context.Context) ([]domain.FeedbackSummary, error) {
	summary := []domain.FeedbackSummary{}
	query := `
		SELECT m.match_type,
		       COUNT(*) AS count,
		       AVG(f.rating)::float8 AS average_rating,
		       AVG(CASE WHEN f.outcome IN ('collaboration', 'insight', 'good_chat') THEN 1 ELSE 0 END)::float8 AS positive_ratio
		FROM match_feedback f
		JOIN matches m ON m.id = f.match_id
		GROUP BY m.match_type
		ORDER BY m.match_type
	`
	err := r.db.SelectContext(ctx, &summary, query)
	return summary, err
}
