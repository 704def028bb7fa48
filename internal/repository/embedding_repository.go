package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

// ProfileEmbeddingWrite is everything persisted for one profile in a single transaction.
type ProfileEmbeddingWrite struct {
	UserID       int
	Upserts      []*domain.Embedding
	DeleteFields []domain.FieldType
	// MarkOnboarded flips users.onboarding_completed if it is still false.
	MarkOnboarded bool
}

type EmbeddingRepository interface {
	GetByUser(ctx context.Context, userID int) (domain.EmbeddingSet, error)
	GetByUsers(ctx context.Context, userIDs []int) (map[int]domain.EmbeddingSet, error)
	// SaveProfileEmbeddings applies the write atomically: either all rows change or none do.
	SaveProfileEmbeddings(ctx context.Context, write ProfileEmbeddingWrite) error
}
