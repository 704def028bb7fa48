package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
)

const profileColumns = `
	id, user_id, strengths, needs, current_goal, goal_categories, shared_values,
	connection_preferences, availability, industry, bio, created_at, updated_at`

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID, &p.UserID, pq.Array(&p.Strengths), pq.Array(&p.Needs), &p.CurrentGoal,
		pq.Array(&p.GoalCategories), pq.Array(&p.SharedValues), pq.Array(&p.ConnectionPreferences),
		&p.Availability, &p.Industry, &p.Bio, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID int) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) GetByUserIDs(ctx context.Context, userIDs []int) (map[int]*domain.Profile, error) {
	out := make(map[int]*domain.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out[p.UserID] = p
	}
	return out, rows.Err()
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, strengths, needs, current_goal, goal_categories, shared_values,
			connection_preferences, availability, industry, bio
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE
		SET strengths = EXCLUDED.strengths,
		    needs = EXCLUDED.needs,
		    current_goal = EXCLUDED.current_goal,
		    goal_categories = EXCLUDED.goal_categories,
		    shared_values = EXCLUDED.shared_values,
		    connection_preferences = EXCLUDED.connection_preferences,
		    availability = EXCLUDED.availability,
		    industry = EXCLUDED.industry,
		    bio = EXCLUDED.bio,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(
		ctx, query,
		profile.UserID, pq.Array(profile.Strengths), pq.Array(profile.Needs), profile.CurrentGoal,
		pq.Array(profile.GoalCategories), pq.Array(profile.SharedValues),
		pq.Array(profile.ConnectionPreferences), profile.Availability, profile.Industry, profile.Bio,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}
