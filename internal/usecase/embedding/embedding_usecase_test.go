package embedding

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/infrastructure/cache"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
	"github.com/gdugdh24/mpit2026-networking/internal/repository/memory"
)

type fakeEmbedder struct {
	calls   atomic.Int32
	failOn  domain.FieldType
	release chan struct{}
	mu      sync.Mutex
	texts   []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, field domain.FieldType) ([]float32, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	if field == f.failOn {
		return nil, fmt.Errorf("embed: %w", domain.ErrProviderUnavailable)
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (f *fakeEmbedder) Model() string  { return "fake" }
func (f *fakeEmbedder) Dimension() int { return 3 }

func setup(t *testing.T, emb *fakeEmbedder) (*EmbeddingUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.PutUser(domain.User{ID: 1, IsActive: true})
	uc := NewEmbeddingUseCase(emb, store.Embeddings(), store.Profiles(), cache.NewMemoryEmbeddingCache(100, time.Hour), 4, logger.NewNop())
	return uc, store
}

func fullProfile() *domain.Profile {
	return &domain.Profile{
		UserID:       1,
		Strengths:    []string{"JavaScript", "React"},
		Needs:        []string{"Python"},
		CurrentGoal:  "Ship an ML feature",
		SharedValues: []string{"curiosity"},
	}
}

func TestGenerateForProfile_EmbedsAllFieldsAndMarksOnboarded(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{}
	uc, store := setup(t, emb)
	require.NoError(t, store.Profiles().Upsert(ctx, fullProfile()))

	res, err := uc.GenerateForProfile(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, domain.FieldTypes, res.Embedded)
	assert.True(t, res.OnboardingCompleted)
	assert.Equal(t, int32(4), emb.calls.Load())

	set, err := uc.GetForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, set, 4)
	assert.Equal(t, "JavaScript, React", set[domain.FieldStrengths].SourceText)

	u, err := store.Users().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, u.OnboardingCompleted)
}

func TestGenerateForProfile_ReusesFreshEmbeddings(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{}
	uc, store := setup(t, emb)
	require.NoError(t, store.Profiles().Upsert(ctx, fullProfile()))

	_, err := uc.GenerateForProfile(ctx, 1)
	require.NoError(t, err)

	res, err := uc.GenerateForProfile(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, res.Embedded)
	assert.Len(t, res.Reused, 4)
	assert.Equal(t, int32(4), emb.calls.Load())
}

func TestGenerateForProfile_FreshAfterReembed(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{}
	uc, store := setup(t, emb)
	p := fullProfile()
	require.NoError(t, store.Profiles().Upsert(ctx, p))
	_, err := uc.GenerateForProfile(ctx, 1)
	require.NoError(t, err)

	p.Needs = []string{"Go", "Kubernetes"}
	require.NoError(t, store.Profiles().Upsert(ctx, p))

	set, err := uc.GetForUser(ctx, 1)
	require.NoError(t, err)
	assert.False(t, IsFresh(set[domain.FieldNeeds], p))
	assert.True(t, IsFresh(set[domain.FieldStrengths], p))

	res, err := uc.GenerateForProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.FieldType{domain.FieldNeeds}, res.Embedded)

	set, err = uc.GetForUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, IsFresh(set[domain.FieldNeeds], p))
	assert.Equal(t, "Go, Kubernetes", set[domain.FieldNeeds].SourceText)
}

func TestGenerateForProfile_FailureAbortsWholeWrite(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{failOn: domain.FieldGoals}
	uc, store := setup(t, emb)
	require.NoError(t, store.Profiles().Upsert(ctx, fullProfile()))

	saved := false
	store.SaveHook = func(repository.ProfileEmbeddingWrite) error {
		saved = true
		return nil
	}

	_, err := uc.GenerateForProfile(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.False(t, saved)

	set, err := uc.GetForUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, set)
	u, err := store.Users().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, u.OnboardingCompleted)
}

func TestGenerateForProfile_RemovesEmbeddingOfClearedField(t *testing.T) {
	ctx := context.Background()
	uc, store := setup(t, &fakeEmbedder{})
	p := fullProfile()
	require.NoError(t, store.Profiles().Upsert(ctx, p))
	_, err := uc.GenerateForProfile(ctx, 1)
	require.NoError(t, err)

	p.SharedValues = nil
	require.NoError(t, store.Profiles().Upsert(ctx, p))
	res, err := uc.GenerateForProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.FieldType{domain.FieldValues}, res.Removed)

	set, err := uc.GetForUser(ctx, 1)
	require.NoError(t, err)
	assert.NotContains(t, set, domain.FieldValues)
}

func TestGenerateForProfile_IncompleteProfileIsNotOnboarded(t *testing.T) {
	ctx := context.Background()
	uc, store := setup(t, &fakeEmbedder{})
	require.NoError(t, store.Profiles().Upsert(ctx, &domain.Profile{UserID: 1, Strengths: []string{"Go"}}))

	res, err := uc.GenerateForProfile(ctx, 1)
	require.NoError(t, err)
	assert.False(t, res.OnboardingCompleted)
	assert.Equal(t, []domain.FieldType{domain.FieldStrengths}, res.Embedded)
}

func TestEmbedField_SharesInFlightCall(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{release: make(chan struct{})}
	uc, _ := setup(t, emb)

	var wg sync.WaitGroup
	results := make([][]float32, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vec, err := uc.EmbedField(ctx, 1, domain.FieldNeeds, "Python")
			assert.NoError(t, err)
			results[i] = vec
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(emb.release)
	wg.Wait()

	assert.Equal(t, int32(1), emb.calls.Load())
	for _, vec := range results {
		assert.Equal(t, []float32{6, 1, 0}, vec)
	}
}

func TestEmbedField_LeaderCancelDoesNotFailFollowers(t *testing.T) {
	emb := &fakeEmbedder{release: make(chan struct{})}
	uc, _ := setup(t, emb)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := uc.EmbedField(leaderCtx, 1, domain.FieldNeeds, "Python")
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return emb.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	followerDone := make(chan []float32, 1)
	go func() {
		vec, err := uc.EmbedField(context.Background(), 1, domain.FieldNeeds, "Python")
		assert.NoError(t, err)
		followerDone <- vec
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-leaderErr, domain.ErrProviderUnavailable)

	close(emb.release)
	assert.Equal(t, []float32{6, 1, 0}, <-followerDone)
	assert.Equal(t, int32(1), emb.calls.Load())
}

func TestEmbedField_UsesCache(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{}
	uc, _ := setup(t, emb)

	_, err := uc.EmbedField(ctx, 1, domain.FieldGoals, "Raise a seed round")
	require.NoError(t, err)
	_, err = uc.EmbedField(ctx, 2, domain.FieldGoals, "Raise a seed round")
	require.NoError(t, err)
	assert.Equal(t, int32(1), emb.calls.Load())

	_, err = uc.EmbedField(ctx, 1, domain.FieldGoals, "Hire a CTO")
	require.NoError(t, err)
	assert.Equal(t, int32(2), emb.calls.Load())
}
