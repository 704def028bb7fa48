package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/validation"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/embedding"
)

// ProfileEmbedder refreshes stale profile embeddings.
type ProfileEmbedder interface {
	GenerateForProfile(ctx context.Context, userID int) (*embedding.GenerationResult, error)
}

type ProfileUseCase struct {
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
	embedder    ProfileEmbedder
	validate    *validation.Validator
	log         *logger.Logger
}

func NewProfileUseCase(
	profileRepo repository.ProfileRepository,
	userRepo repository.UserRepository,
	embedder ProfileEmbedder,
	validate *validation.Validator,
	log *logger.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		userRepo:    userRepo,
		embedder:    embedder,
		validate:    validate,
		log:         log.With("service", "ProfileUseCase"),
	}
}

// UpdateProfileRequest represents a partial profile update. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Strengths             *[]string `json:"strengths" validate:"omitempty,max=20,dive,max=200"`
	Needs                 *[]string `json:"needs" validate:"omitempty,max=20,dive,max=200"`
	CurrentGoal           *string   `json:"current_goal" validate:"omitempty,max=500"`
	GoalCategories        *[]string `json:"goal_categories" validate:"omitempty,max=10,dive,max=100"`
	SharedValues          *[]string `json:"shared_values" validate:"omitempty,max=10,dive,max=100"`
	ConnectionPreferences *[]string `json:"connection_preferences" validate:"omitempty,max=10,dive,max=100"`
	Availability          *string   `json:"availability" validate:"omitempty,max=200"`
	Industry              *string   `json:"industry" validate:"omitempty,max=100"`
	Bio                   *string   `json:"bio" validate:"omitempty,max=4000"`
}

// UpdateResult is the saved profile and, when it was refreshed, the embedding outcome.
type UpdateResult struct {
	Profile    *domain.Profile             `json:"profile"`
	Embeddings *embedding.GenerationResult `json:"embeddings,omitempty"`
}

func (uc *ProfileUseCase) GetMyProfile(ctx context.Context, userID int) (*domain.Profile, error) {
	return uc.profileRepo.GetByUserID(ctx, userID)
}

// UpdateProfile applies an edit and re-embeds every field whose text changed.
// Profiles that are still missing required fields are saved without embedding.
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, userID int, req *UpdateProfileRequest) (*UpdateResult, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, err
	}
	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		profile = &domain.Profile{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	applyUpdate(profile, req)
	if err := uc.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	res := &UpdateResult{Profile: profile}
	if !profile.HasRequiredFields() {
		return res, nil
	}
	gen, err := uc.embedder.GenerateForProfile(ctx, userID)
	if err != nil {
		uc.log.Error("profile saved but embeddings not refreshed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("refresh embeddings: %w", err)
	}
	res.Embeddings = gen
	return res, nil
}

func applyUpdate(p *domain.Profile, req *UpdateProfileRequest) {
	if req.Strengths != nil {
		p.Strengths = cleanList(*req.Strengths)
	}
	if req.Needs != nil {
		p.Needs = cleanList(*req.Needs)
	}
	if req.CurrentGoal != nil {
		p.CurrentGoal = strings.TrimSpace(*req.CurrentGoal)
	}
	if req.GoalCategories != nil {
		p.GoalCategories = cleanList(*req.GoalCategories)
	}
	if req.SharedValues != nil {
		p.SharedValues = cleanList(*req.SharedValues)
	}
	if req.ConnectionPreferences != nil {
		p.ConnectionPreferences = cleanList(*req.ConnectionPreferences)
	}
	if req.Availability != nil {
		p.Availability = strings.TrimSpace(*req.Availability)
	}
	if req.Industry != nil {
		p.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.Bio != nil {
		p.Bio = strings.TrimSpace(*req.Bio)
	}
}

// cleanList trims items and drops blanks and case-insensitive duplicates.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		s := strings.TrimSpace(it)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
