package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
)

const matchColumns = `
	id, user_id, matched_user_id, match_type, score, evidence, explanation, status, created_at, updated_at`

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) repository.MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, match *domain.Match) (bool, error) {
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	query := `
		INSERT INTO matches (id, user_id, matched_user_id, match_type, score, evidence, explanation, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, matched_user_id) DO NOTHING
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		match.ID, match.UserID, match.MatchedUserID, match.MatchType, match.Score,
		match.Evidence, match.Explanation, match.Status,
	).Scan(&match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *matchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error) {
	var match domain.Match
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	err := r.db.GetContext(ctx, &match, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}

func (r *matchRepository) ListByUser(ctx context.Context, userID int, status *domain.MatchStatus) ([]*domain.Match, error) {
	var filter interface{}
	if status != nil {
		filter = string(*status)
	}

	matches := []*domain.Match{}
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (user_id = $1 OR matched_user_id = $1)
		  AND ($2::text IS NULL OR status = $2::text)
		ORDER BY score DESC, created_at DESC
	`
	err := r.db.SelectContext(ctx, &matches, query, userID, filter)
	return matches, err
}

func (r *matchRepository) UpdateStatusIfUnchanged(ctx context.Context, id uuid.UUID, from, to domain.MatchStatus) (bool, error) {
	query := `UPDATE matches SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
