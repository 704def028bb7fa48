package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/validation"
	"github.com/gdugdh24/mpit2026-networking/internal/repository/memory"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/match"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/scoring"
)

func setup(t *testing.T, status domain.MatchStatus) (*FeedbackUseCase, *memory.Store, *domain.Match) {
	t.Helper()
	store := memory.NewStore()
	matches := match.NewMatchUseCase(
		store.Matches(), store.Interactions(), store.Users(), store.Profiles(), store.Embeddings(),
		scoring.NewScorer(scoring.DefaultWeights()), config.MatchingConfig{}, logger.NewNop(),
	)
	m := &domain.Match{UserID: 1, MatchedUserID: 2, MatchType: domain.MatchTypeGoalAlignment, Score: 0.6, Status: status}
	_, err := store.Matches().Create(context.Background(), m)
	require.NoError(t, err)

	uc := NewFeedbackUseCase(store.Feedback(), store.Matches(), matches, validation.New(), logger.NewNop())
	return uc, store, m
}

func TestSubmit_CompletesPendingMatch(t *testing.T) {
	ctx := context.Background()
	uc, store, m := setup(t, domain.MatchStatusPending)

	fb, err := uc.Submit(ctx, SubmitRequest{MatchID: m.ID, UserID: 1, Rating: 3, Outcome: "good_chat"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeGoodChat, fb.Outcome)

	stored, err := store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusCompleted, stored.Status)
}

func TestSubmit_RejectsOutOfRangeRating(t *testing.T) {
	ctx := context.Background()
	for _, rating := range []int{0, 6} {
		uc, store, m := setup(t, domain.MatchStatusPending)

		_, err := uc.Submit(ctx, SubmitRequest{MatchID: m.ID, UserID: 1, Rating: rating, Outcome: "insight"})
		assert.ErrorIs(t, err, domain.ErrValidation)

		stored, err := store.Matches().GetByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MatchStatusPending, stored.Status)
	}
}

func TestSubmit_ValidationErrors(t *testing.T) {
	uc, _, m := setup(t, domain.MatchStatusPending)
	long := strings.Repeat("x", 2001)

	cases := map[string]SubmitRequest{
		"unknown outcome": {MatchID: m.ID, UserID: 1, Rating: 4, Outcome: "great"},
		"missing match":   {UserID: 1, Rating: 4, Outcome: "insight"},
		"text too long":   {MatchID: m.ID, UserID: 1, Rating: 4, Outcome: "insight", Text: &long},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Submit(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestSubmit_NonParticipant(t *testing.T) {
	uc, _, m := setup(t, domain.MatchStatusPending)
	_, err := uc.Submit(context.Background(), SubmitRequest{MatchID: m.ID, UserID: 7, Rating: 4, Outcome: "insight"})
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)

	_, err = uc.Submit(context.Background(), SubmitRequest{MatchID: uuid.New(), UserID: 1, Rating: 4, Outcome: "insight"})
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}

func TestSubmit_DuplicateIsRejected(t *testing.T) {
	ctx := context.Background()
	uc, _, m := setup(t, domain.MatchStatusAccepted)

	_, err := uc.Submit(ctx, SubmitRequest{MatchID: m.ID, UserID: 2, Rating: 5, Outcome: "collaboration"})
	require.NoError(t, err)

	_, err = uc.Submit(ctx, SubmitRequest{MatchID: m.ID, UserID: 2, Rating: 1, Outcome: "didnt_click"})
	assert.ErrorIs(t, err, domain.ErrFeedbackAlreadySubmitted)

	_, err = uc.Submit(ctx, SubmitRequest{MatchID: m.ID, UserID: 1, Rating: 4, Outcome: "insight"})
	require.NoError(t, err, "the other participant can still leave feedback")
}

type failingTransitioner struct{ err error }

func (f failingTransitioner) Transition(context.Context, uuid.UUID, int, domain.MatchStatus, match.Cause) (*domain.Match, error) {
	return nil, f.err
}

func TestSubmit_CompletionFailureKeepsStoredFeedback(t *testing.T) {
	ctx := context.Background()
	uc, store, m := setup(t, domain.MatchStatusPending)
	lifecycle := uc.lifecycle
	uc.lifecycle = failingTransitioner{err: errors.New("connection reset")}

	fb, err := uc.Submit(ctx, SubmitRequest{MatchID: m.ID, UserID: 1, Rating: 4, Outcome: "insight"})
	require.NoError(t, err)
	assert.Equal(t, m.ID, fb.MatchID)

	stored, err := store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusPending, stored.Status)

	uc.lifecycle = lifecycle
	_, err = uc.Submit(ctx, SubmitRequest{MatchID: m.ID, UserID: 1, Rating: 4, Outcome: "insight"})
	assert.ErrorIs(t, err, domain.ErrFeedbackAlreadySubmitted)

	stored, err = store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusCompleted, stored.Status)
}

func TestSubmit_DeclinedMatchKeepsStatus(t *testing.T) {
	ctx := context.Background()
	uc, store, m := setup(t, domain.MatchStatusDeclined)

	_, err := uc.Submit(ctx, SubmitRequest{MatchID: m.ID, UserID: 1, Rating: 2, Outcome: "no_response"})
	require.NoError(t, err)

	stored, err := store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusDeclined, stored.Status)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	uc, _, m := setup(t, domain.MatchStatusPending)
	_, err := uc.Submit(ctx, SubmitRequest{MatchID: m.ID, UserID: 1, Rating: 5, Outcome: "collaboration"})
	require.NoError(t, err)
	_, err = uc.Submit(ctx, SubmitRequest{MatchID: m.ID, UserID: 2, Rating: 2, Outcome: "didnt_click"})
	require.NoError(t, err)

	summary, err := uc.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, domain.MatchTypeGoalAlignment, summary[0].MatchType)
	assert.Equal(t, 2, summary[0].Count)
	assert.InDelta(t, 3.5, summary[0].AverageRating, 1e-9)
	assert.InDelta(t, 0.5, summary[0].PositiveRatio, 1e-9)
}
