package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*domain.User, error)
	// ListMatchCandidates returns onboarded active users other than userID that have
	// no match with userID in either direction, lowest id first.
	ListMatchCandidates(ctx context.Context, userID int, limit int) ([]int, error)
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int) (*domain.Profile, error)
	GetByUserIDs(ctx context.Context, userIDs []int) (map[int]*domain.Profile, error)
	// Upsert creates the profile or overwrites every editable field.
	Upsert(ctx context.Context, profile *domain.Profile) error
}
