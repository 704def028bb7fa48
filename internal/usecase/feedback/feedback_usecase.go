package feedback

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/validation"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/match"
)

// Transitioner moves a match to a new status.
type Transitioner interface {
	Transition(ctx context.Context, matchID uuid.UUID, actorUserID int, target domain.MatchStatus, cause match.Cause) (*domain.Match, error)
}

type FeedbackUseCase struct {
	feedbackRepo repository.FeedbackRepository
	matchRepo    repository.MatchRepository
	lifecycle    Transitioner
	validate     *validation.Validator
	log          *logger.Logger
}

func NewFeedbackUseCase(
	feedbackRepo repository.FeedbackRepository,
	matchRepo repository.MatchRepository,
	lifecycle Transitioner,
	validate *validation.Validator,
	log *logger.Logger,
) *FeedbackUseCase {
	return &FeedbackUseCase{
		feedbackRepo: feedbackRepo,
		matchRepo:    matchRepo,
		lifecycle:    lifecycle,
		validate:     validate,
		log:          log.With("service", "FeedbackUseCase"),
	}
}

// SubmitRequest is the feedback a participant leaves after meeting a match.
type SubmitRequest struct {
	MatchID uuid.UUID `json:"match_id"`
	UserID  int       `json:"user_id" validate:"required,gt=0"`
	Rating  int       `json:"rating" validate:"min=1,max=5"`
	Outcome string    `json:"outcome" validate:"required,oneof=collaboration insight good_chat didnt_click no_response"`
	Text    *string   `json:"text" validate:"omitempty,max=2000"`
}

// Submit stores feedback and completes the match unless it already reached a terminal status.
func (uc *FeedbackUseCase) Submit(ctx context.Context, req SubmitRequest) (*domain.Feedback, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.MatchID == uuid.Nil {
		return nil, domain.Validationf("match_id is required")
	}
	outcome, err := domain.ParseFeedbackOutcome(req.Outcome)
	if err != nil {
		return nil, err
	}

	m, err := uc.matchRepo.GetByID(ctx, req.MatchID)
	if err != nil {
		return nil, err
	}
	if !m.HasUser(req.UserID) {
		return nil, domain.ErrMatchNotFound
	}

	fb := &domain.Feedback{
		ID:      uuid.New(),
		MatchID: req.MatchID,
		UserID:  req.UserID,
		Rating:  req.Rating,
		Outcome: outcome,
		Text:    req.Text,
	}
	if err := uc.feedbackRepo.Create(ctx, fb); err != nil {
		if errors.Is(err, domain.ErrFeedbackAlreadySubmitted) {
			// A resubmission still finishes a completion that failed after the first one was stored.
			uc.complete(ctx, m, req.UserID)
		}
		return nil, err
	}
	uc.complete(ctx, m, req.UserID)

	uc.log.Info("feedback submitted", "match_id", m.ID, "user_id", req.UserID, "outcome", outcome)
	return fb, nil
}

// complete moves a non-terminal match to completed. Stored feedback stays valid when this fails.
func (uc *FeedbackUseCase) complete(ctx context.Context, m *domain.Match, userID int) {
	if m.Status.IsTerminal() {
		return
	}
	_, err := uc.lifecycle.Transition(ctx, m.ID, userID, domain.MatchStatusCompleted, match.CauseFeedback)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidTransition):
		uc.log.Warn("match not completed after feedback", "match_id", m.ID, "error", err)
	default:
		uc.log.Error("feedback stored but match completion failed", "match_id", m.ID, "user_id", userID, "error", err)
	}
}

func (uc *FeedbackUseCase) Summary(ctx context.Context) ([]domain.FeedbackSummary, error) {
	return uc.feedbackRepo.Summary(ctx)
}
