package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/validation"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/embedding"
)

// ProfileEmbedder builds embeddings once a profile is complete.
type ProfileEmbedder interface {
	GenerateForProfile(ctx context.Context, userID int) (*embedding.GenerationResult, error)
}

type OnboardingUseCase struct {
	engine      *Engine
	sessions    SessionStore
	profileRepo repository.ProfileRepository
	embedder    ProfileEmbedder
	validate    *validation.Validator
	locks       *keyedMutex
	now         func() time.Time
	log         *logger.Logger
}

func NewOnboardingUseCase(
	engine *Engine,
	sessions SessionStore,
	profileRepo repository.ProfileRepository,
	embedder ProfileEmbedder,
	validate *validation.Validator,
	log *logger.Logger,
) *OnboardingUseCase {
	return &OnboardingUseCase{
		engine:      engine,
		sessions:    sessions,
		profileRepo: profileRepo,
		embedder:    embedder,
		validate:    validate,
		locks:       newKeyedMutex(),
		now:         time.Now,
		log:         log.With("service", "OnboardingUseCase"),
	}
}

type ResponseInput struct {
	StepID    string    `json:"step_id" validate:"omitempty,max=64"`
	Value     string    `json:"value" validate:"max=4000"`
	Timestamp time.Time `json:"timestamp"`
}

// AdvanceRequest carries the answers given since the previous call.
type AdvanceRequest struct {
	CurrentStep    string          `json:"current_step" validate:"omitempty,max=64"`
	Responses      []ResponseInput `json:"responses" validate:"max=50,dive"`
	ElapsedSeconds float64         `json:"elapsed_seconds" validate:"gte=0"`
}

type AdvanceResult struct {
	Step              *Step                       `json:"step"`
	FlowType          domain.FlowType             `json:"flow_type"`
	EngagementMetrics domain.EngagementMetrics    `json:"engagement_metrics"`
	Completed         bool                        `json:"completed"`
	Embeddings        *embedding.GenerationResult `json:"embeddings,omitempty"`
}

// Advance records answers, updates the profile and returns the next question.
// When the required fields are filled it generates embeddings and closes the session.
func (uc *OnboardingUseCase) Advance(ctx context.Context, userID int, req AdvanceRequest) (*AdvanceResult, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.CurrentStep != "" {
		if _, ok := stepByID(req.CurrentStep); !ok {
			return nil, domain.Validationf("unknown step %q", req.CurrentStep)
		}
	}
	incoming := make([]domain.Response, 0, len(req.Responses))
	for _, r := range req.Responses {
		stepID := r.StepID
		if stepID == "" {
			stepID = req.CurrentStep
		}
		if _, ok := stepByID(stepID); !ok {
			return nil, domain.Validationf("unknown step %q", stepID)
		}
		ts := r.Timestamp
		if ts.IsZero() {
			ts = uc.now()
		}
		incoming = append(incoming, domain.Response{StepID: stepID, Value: r.Value, Timestamp: ts})
	}

	unlock := uc.locks.Lock(userID)
	defer unlock()

	session, err := uc.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = &domain.OnboardingSession{UserID: userID, StartedAt: uc.now()}
	}
	session.Responses = mergeResponses(session.Responses, incoming)

	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			return nil, err
		}
		profile = &domain.Profile{UserID: userID}
	}
	ApplyResponses(profile, session.Responses)
	if len(incoming) > 0 {
		if err := uc.profileRepo.Upsert(ctx, profile); err != nil {
			return nil, fmt.Errorf("save profile: %w", err)
		}
	}

	decision := uc.engine.NextStep(Session{
		Profile:        profile,
		Responses:      session.Responses,
		ElapsedSeconds: req.ElapsedSeconds,
	})
	session.FlowType = decision.FlowType
	session.EngagementScore = decision.Engagement.EngagementScore
	session.UpdatedAt = uc.now()

	result := &AdvanceResult{
		Step:              decision.Step,
		FlowType:          decision.FlowType,
		EngagementMetrics: decision.Engagement,
		Completed:         decision.Completed,
	}

	if !decision.Completed {
		if err := uc.sessions.Save(ctx, session); err != nil {
			return nil, fmt.Errorf("save onboarding session: %w", err)
		}
		return result, nil
	}

	// The session is kept on failure so the client can retry the final step.
	gen, err := uc.embedder.GenerateForProfile(ctx, userID)
	if err != nil {
		if serr := uc.sessions.Save(ctx, session); serr != nil {
			uc.log.Error("failed to keep onboarding session", "user_id", userID, "error", serr)
		}
		return nil, err
	}
	result.Embeddings = gen
	if err := uc.sessions.Delete(ctx, userID); err != nil {
		uc.log.Warn("failed to delete onboarding session", "user_id", userID, "error", err)
	}
	uc.log.Info("onboarding completed", "user_id", userID, "flow", decision.FlowType, "responses", len(session.Responses))
	return result, nil
}

// mergeResponses replaces earlier answers to the same step and appends new ones.
func mergeResponses(existing, incoming []domain.Response) []domain.Response {
	out := make([]domain.Response, 0, len(existing)+len(incoming))
	out = append(out, existing...)
	for _, r := range incoming {
		replaced := false
		for i := range out {
			if out[i].StepID == r.StepID {
				out[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, r)
		}
	}
	return out
}
