package embedding

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/infrastructure/cache"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string, field domain.FieldType) ([]float32, error)
	Model() string
	Dimension() int
}

// maxFlightRounds bounds how often a caller re-joins a flight that was started for different text.
const maxFlightRounds = 3

type EmbeddingUseCase struct {
	embedder    Embedder
	embRepo     repository.EmbeddingRepository
	profileRepo repository.ProfileRepository
	cache       cache.EmbeddingCache
	concurrency int
	log         *logger.Logger
	flight      singleflight.Group
}

func NewEmbeddingUseCase(
	embedder Embedder,
	embRepo repository.EmbeddingRepository,
	profileRepo repository.ProfileRepository,
	embCache cache.EmbeddingCache,
	concurrency int,
	log *logger.Logger,
) *EmbeddingUseCase {
	if concurrency < 1 {
		concurrency = 1
	}
	return &EmbeddingUseCase{
		embedder:    embedder,
		embRepo:     embRepo,
		profileRepo: profileRepo,
		cache:       embCache,
		concurrency: concurrency,
		log:         log.With("service", "EmbeddingUseCase"),
	}
}

// GenerationResult reports what GenerateForProfile changed.
type GenerationResult struct {
	UserID              int                `json:"user_id"`
	Embedded            []domain.FieldType `json:"embedded"`
	Reused              []domain.FieldType `json:"reused"`
	Removed             []domain.FieldType `json:"removed"`
	OnboardingCompleted bool               `json:"onboarding_completed"`
}

type flightResult struct {
	text string
	vec  []float32
}

func (uc *EmbeddingUseCase) GetForUser(ctx context.Context, userID int) (domain.EmbeddingSet, error) {
	return uc.embRepo.GetByUser(ctx, userID)
}

// IsFresh reports whether emb still reflects the profile field it was built from.
func IsFresh(emb *domain.Embedding, profile *domain.Profile) bool {
	if emb == nil {
		return false
	}
	return emb.IsFreshFor(profile.SourceText(emb.FieldType))
}

// EmbedField returns the vector for text, sharing one in-flight provider call per user and field.
func (uc *EmbeddingUseCase) EmbedField(ctx context.Context, userID int, field domain.FieldType, text string) ([]float32, error) {
	cacheKey := cache.EmbeddingKey(uc.embedder.Model(), field, text)
	if vec, ok := uc.cache.Get(ctx, cacheKey); ok && len(vec) == uc.embedder.Dimension() {
		return vec, nil
	}

	flightKey := strconv.Itoa(userID) + ":" + string(field)
	for round := 0; round < maxFlightRounds; round++ {
		// The shared call outlives any single caller; the provider client bounds it with its own timeout.
		flightCtx := context.WithoutCancel(ctx)
		ch := uc.flight.DoChan(flightKey, func() (interface{}, error) {
			vec, err := uc.embedder.Embed(flightCtx, text, field)
			if err != nil {
				return nil, err
			}
			uc.cache.Set(flightCtx, cacheKey, vec)
			return flightResult{text: text, vec: vec}, nil
		})

		var r singleflight.Result
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, ctx.Err())
		case r = <-ch:
		}
		if r.Err != nil {
			return nil, r.Err
		}
		res := r.Val.(flightResult)
		if res.text == text {
			out := make([]float32, len(res.vec))
			copy(out, res.vec)
			return out, nil
		}
		uc.log.Debug("joined flight for different text, retrying", "user_id", userID, "field", field)
	}

	vec, err := uc.embedder.Embed(ctx, text, field)
	if err != nil {
		return nil, err
	}
	uc.cache.Set(ctx, cacheKey, vec)
	return vec, nil
}

// GenerateForProfile re-embeds every stale field of the user's profile and persists
// the result in one transaction. A single failed field aborts the whole write.
func (uc *EmbeddingUseCase) GenerateForProfile(ctx context.Context, userID int) (*GenerationResult, error) {
	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := uc.embRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	result := &GenerationResult{UserID: userID}
	type job struct {
		field domain.FieldType
		text  string
	}
	var jobs []job
	for _, field := range domain.FieldTypes {
		text := profile.SourceText(field)
		current := existing[field]
		switch {
		case text == "":
			if current != nil {
				result.Removed = append(result.Removed, field)
			}
		case current != nil && current.IsFreshFor(text):
			result.Reused = append(result.Reused, field)
		default:
			jobs = append(jobs, job{field: field, text: text})
		}
	}

	vectors := make([][]float32, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			vec, err := uc.EmbedField(gctx, userID, j.field, j.text)
			if err != nil {
				return fmt.Errorf("embed %s: %w", j.field, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uc.log.Warn("profile embedding failed, nothing persisted", "user_id", userID, "error", err)
		return nil, err
	}

	write := repository.ProfileEmbeddingWrite{
		UserID:        userID,
		DeleteFields:  result.Removed,
		MarkOnboarded: profile.HasRequiredFields(),
	}
	for i, j := range jobs {
		write.Upserts = append(write.Upserts, &domain.Embedding{
			UserID:     userID,
			FieldType:  j.field,
			Vector:     vectors[i],
			SourceText: j.text,
			SourceHash: domain.HashText(j.text),
			Model:      uc.embedder.Model(),
		})
		result.Embedded = append(result.Embedded, j.field)
	}

	if err := uc.embRepo.SaveProfileEmbeddings(ctx, write); err != nil {
		return nil, fmt.Errorf("save embeddings: %w", err)
	}
	result.OnboardingCompleted = write.MarkOnboarded

	uc.log.Info("profile embeddings generated",
		"user_id", userID,
		"embedded", len(result.Embedded),
		"reused", len(result.Reused),
		"removed", len(result.Removed),
	)
	return result, nil
}
