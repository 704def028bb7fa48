package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

type MatchRepository interface {
	// Create inserts a pending match. It reports false when the pair already exists.
	Create(ctx context.Context, match *domain.Match) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Match, error)
	// ListByUser returns matches the user participates in, best score first. A nil status lists all.
	ListByUser(ctx context.Context, userID int, status *domain.MatchStatus) ([]*domain.Match, error)
	// UpdateStatusIfUnchanged moves the match from one status to another only if it is still in from.
	// It reports false when the stored status no longer equals from.
	UpdateStatusIfUnchanged(ctx context.Context, id uuid.UUID, from, to domain.MatchStatus) (bool, error)
}

type InteractionRepository interface {
	// Record appends an interaction; repeats for the same match, user and type are ignored.
	Record(ctx context.Context, interaction *domain.Interaction) error
}
