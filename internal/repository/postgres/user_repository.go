package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, onboarding_completed, is_active, is_admin, created_at FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListMatchCandidates(ctx context.Context, userID int, limit int) ([]int, error) {
	ids := []int{}
	query := `
		SELECT u.id
		FROM users u
		WHERE u.id <> $1
		  AND u.is_active
		  AND u.onboarding_completed
		  AND NOT EXISTS (
		      SELECT 1 FROM matches m
		      WHERE (m.user_id = $1 AND m.matched_user_id = u.id)
		         OR (m.user_id = u.id AND m.matched_user_id = $1)
		  )
		ORDER BY u.id
		LIMIT $2
	`
	err := r.db.SelectContext(ctx, &ids, query, userID, limit)
	return ids, err
}
