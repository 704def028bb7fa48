package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/validation"
	"github.com/gdugdh24/mpit2026-networking/internal/repository/memory"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/feedback"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/match"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/onboarding"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/scoring"
)

// Fixtures exercises the in-process components against an isolated in-memory store,
// so health checks never touch production rows.
type Fixtures struct {
	scorer   *scoring.Scorer
	engine   *onboarding.Engine
	validate *validation.Validator
	log      *logger.Logger
}

// NewFixtures discards the logs of the use cases it drives.
func NewFixtures(scorer *scoring.Scorer, engine *onboarding.Engine, validate *validation.Validator) *Fixtures {
	return &Fixtures{scorer: scorer, engine: engine, validate: validate, log: logger.NewNop()}
}

func (f *Fixtures) checkScorer(_ context.Context) error {
	a := scoring.Candidate{
		UserID:  1,
		Profile: &domain.Profile{UserID: 1, Needs: []string{"Python code review"}},
		Embeddings: domain.EmbeddingSet{
			domain.FieldNeeds: {FieldType: domain.FieldNeeds, Vector: []float32{1, 0, 0}},
		},
	}
	b := scoring.Candidate{
		UserID:  2,
		Profile: &domain.Profile{UserID: 2, Strengths: []string{"Python code review"}},
		Embeddings: domain.EmbeddingSet{
			domain.FieldStrengths: {FieldType: domain.FieldStrengths, Vector: []float32{1, 0, 0}},
		},
	}
	if res := f.scorer.Score(a, b); res.Score <= 0 || res.Score > 1 {
		return fmt.Errorf("complementary fixture scored %.3f", res.Score)
	}

	empty := f.scorer.Score(
		scoring.Candidate{UserID: 3, Profile: &domain.Profile{UserID: 3}},
		scoring.Candidate{UserID: 4, Profile: &domain.Profile{UserID: 4}},
	)
	if empty.Score != 0 {
		return fmt.Errorf("empty fixture scored %.3f", empty.Score)
	}
	return nil
}

func (f *Fixtures) newMatches(store *memory.Store) *match.MatchUseCase {
	return match.NewMatchUseCase(
		store.Matches(), store.Interactions(), store.Users(), store.Profiles(), store.Embeddings(),
		f.scorer, config.MatchingConfig{}, f.log,
	)
}

func seedMatch(ctx context.Context, store *memory.Store) (*domain.Match, error) {
	m := &domain.Match{UserID: 1, MatchedUserID: 2, MatchType: domain.MatchTypeNeedStrength, Score: 0.7, Status: domain.MatchStatusPending}
	if _, err := store.Matches().Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (f *Fixtures) checkLifecycle(ctx context.Context) error {
	table := []struct {
		from, to domain.MatchStatus
		cause    match.Cause
		want     bool
	}{
		{domain.MatchStatusPending, domain.MatchStatusAccepted, match.CauseUserAction, true},
		{domain.MatchStatusPending, domain.MatchStatusCompleted, match.CauseUserAction, false},
		{domain.MatchStatusPending, domain.MatchStatusCompleted, match.CauseFeedback, true},
		{domain.MatchStatusCompleted, domain.MatchStatusPending, match.CauseUserAction, false},
		{domain.MatchStatusSaved, domain.MatchStatusExpired, match.CauseExpiry, true},
	}
	for _, tc := range table {
		if got := match.CanTransition(tc.from, tc.to, tc.cause); got != tc.want {
			return fmt.Errorf("%s -> %s by %s: got %v", tc.from, tc.to, tc.cause, got)
		}
	}

	store := memory.NewStore()
	matches := f.newMatches(store)
	m, err := seedMatch(ctx, store)
	if err != nil {
		return err
	}
	if _, err := matches.Transition(ctx, m.ID, 1, domain.MatchStatusCompleted, match.CauseUserAction); !errors.Is(err, domain.ErrInvalidTransition) {
		return fmt.Errorf("pending -> completed without feedback was not rejected: %v", err)
	}
	accepted, err := matches.Act(ctx, m.ID, 2, string(match.ActionAccept))
	if err != nil {
		return err
	}
	if accepted.Status != domain.MatchStatusAccepted || store.InteractionCount() != 1 {
		return fmt.Errorf("accept left status %s with %d interactions", accepted.Status, store.InteractionCount())
	}
	return nil
}

func (f *Fixtures) checkFeedback(ctx context.Context) error {
	store := memory.NewStore()
	m, err := seedMatch(ctx, store)
	if err != nil {
		return err
	}
	uc := feedback.NewFeedbackUseCase(store.Feedback(), store.Matches(), f.newMatches(store), f.validate, f.log)

	_, err = uc.Submit(ctx, feedback.SubmitRequest{MatchID: m.ID, UserID: 1, Rating: 0, Outcome: string(domain.OutcomeGoodChat)})
	if !errors.Is(err, domain.ErrValidation) {
		return fmt.Errorf("rating 0 was not rejected: %v", err)
	}
	if _, err := uc.Submit(ctx, feedback.SubmitRequest{MatchID: m.ID, UserID: 1, Rating: 3, Outcome: string(domain.OutcomeGoodChat)}); err != nil {
		return fmt.Errorf("valid feedback was rejected: %w", err)
	}
	stored, err := store.Matches().GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if stored.Status != domain.MatchStatusCompleted {
		return fmt.Errorf("feedback left match %s", stored.Status)
	}
	return nil
}

func (f *Fixtures) checkOnboarding(_ context.Context) error {
	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	session := onboarding.Session{
		Profile: &domain.Profile{UserID: 1, Strengths: []string{"Go", "distributed systems"}},
		Responses: []domain.Response{
			{StepID: "strengths", Value: "Go, distributed systems", Timestamp: t0},
			{StepID: "needs", Value: "", Timestamp: t0.Add(25 * time.Second)},
		},
	}
	first := f.engine.NextStep(session)
	second := f.engine.NextStep(session)
	if first.Completed || first.Step == nil {
		return errors.New("incomplete fixture produced no step")
	}
	if second.Step == nil || first.Step.ID != second.Step.ID || first.FlowType != second.FlowType {
		return errors.New("NextStep returned different decisions for the same input")
	}
	return nil
}
