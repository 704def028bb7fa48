package onboarding

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/validation"
	"github.com/gdugdh24/mpit2026-networking/internal/repository/memory"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/embedding"
)

type fakeProfileEmbedder struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (f *fakeProfileEmbedder) GenerateForProfile(_ context.Context, userID int) (*embedding.GenerationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.GenerationResult{UserID: userID, OnboardingCompleted: true}, nil
}

func newOnboarding(t *testing.T, emb ProfileEmbedder) (*OnboardingUseCase, *memory.Store, *MemorySessionStore) {
	t.Helper()
	store := memory.NewStore()
	store.PutUser(domain.User{ID: 1, IsActive: true})
	sessions := NewMemorySessionStore(time.Hour)
	uc := NewOnboardingUseCase(NewEngine(DefaultThresholds()), sessions, store.Profiles(), emb, validation.New(), logger.NewNop())
	var mu sync.Mutex
	clock := t0
	uc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(30 * time.Second)
		return clock
	}
	return uc, store, sessions
}

func TestAdvance_FirstAnswerMovesToNeeds(t *testing.T) {
	ctx := context.Background()
	emb := &fakeProfileEmbedder{}
	uc, store, sessions := newOnboarding(t, emb)

	res, err := uc.Advance(ctx, 1, AdvanceRequest{
		CurrentStep: "strengths",
		Responses:   []ResponseInput{{Value: "Go, distributed systems"}},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Step)
	assert.Equal(t, "needs", res.Step.ID)
	assert.False(t, res.Completed)
	assert.Empty(t, emb.calls)

	p, err := store.Profiles().GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "distributed systems"}, p.Strengths)

	s, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Len(t, s.Responses, 1)
}

func TestAdvance_CompletesAndClosesSession(t *testing.T) {
	ctx := context.Background()
	emb := &fakeProfileEmbedder{}
	uc, _, sessions := newOnboarding(t, emb)

	_, err := uc.Advance(ctx, 1, AdvanceRequest{Responses: []ResponseInput{
		{StepID: "strengths", Value: "Go"},
		{StepID: "needs", Value: "Marketing help"},
	}})
	require.NoError(t, err)

	res, err := uc.Advance(ctx, 1, AdvanceRequest{Responses: []ResponseInput{
		{StepID: "current_goal", Value: "Launch a developer tool"},
	}})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Nil(t, res.Step)
	require.NotNil(t, res.Embeddings)
	assert.Equal(t, []int{1}, emb.calls)

	s, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestAdvance_EmbeddingFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	emb := &fakeProfileEmbedder{err: fmt.Errorf("embed: %w", domain.ErrProviderUnavailable)}
	uc, _, sessions := newOnboarding(t, emb)

	_, err := uc.Advance(ctx, 1, AdvanceRequest{Responses: []ResponseInput{
		{StepID: "strengths", Value: "Go"},
		{StepID: "needs", Value: "Sales"},
		{StepID: "current_goal", Value: "First ten customers"},
	}})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)

	s, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Len(t, s.Responses, 3)
}

func TestAdvance_RejectsUnknownStep(t *testing.T) {
	uc, _, _ := newOnboarding(t, &fakeProfileEmbedder{})

	_, err := uc.Advance(context.Background(), 1, AdvanceRequest{Responses: []ResponseInput{{StepID: "favourite_color", Value: "blue"}}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.Advance(context.Background(), 1, AdvanceRequest{CurrentStep: "nope"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.Advance(context.Background(), 1, AdvanceRequest{ElapsedSeconds: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAdvance_ReansweringReplacesValue(t *testing.T) {
	ctx := context.Background()
	uc, store, sessions := newOnboarding(t, &fakeProfileEmbedder{})

	for _, v := range []string{"Go", "Rust, Zig"} {
		_, err := uc.Advance(ctx, 1, AdvanceRequest{Responses: []ResponseInput{{StepID: "strengths", Value: v}}})
		require.NoError(t, err)
	}

	p, err := store.Profiles().GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust", "Zig"}, p.Strengths)
	s, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, s.Responses, 1)
}

func TestAdvance_SerialisesPerUser(t *testing.T) {
	ctx := context.Background()
	uc, _, sessions := newOnboarding(t, &fakeProfileEmbedder{})
	steps := []string{"industry", "shared_values", "connection_preferences", "availability", "goal_categories"}

	var wg sync.WaitGroup
	for _, step := range steps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Advance(ctx, 1, AdvanceRequest{Responses: []ResponseInput{{StepID: step, Value: "answer"}}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Len(t, s.Responses, len(steps))
}
