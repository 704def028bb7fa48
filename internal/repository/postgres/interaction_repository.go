package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
)

type interactionRepository struct {
	db *sqlx.DB
}

func NewInteractionRepository(db *sqlx.DB) repository.InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) Record(ctx context.Context, interaction *domain.Interaction) error {
	if interaction.ID == uuid.Nil {
		interaction.ID = uuid.New()
	}
	query := `
		INSERT INTO match_interactions (id, match_id, user_id, type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (match_id, user_id, type) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, interaction.ID, interaction.MatchID, interaction.UserID, interaction.Type)
	return err
}
