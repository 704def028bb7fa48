package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/scoring"
)

type MatchUseCase struct {
	matchRepo       repository.MatchRepository
	interactionRepo repository.InteractionRepository
	userRepo        repository.UserRepository
	profileRepo     repository.ProfileRepository
	embRepo         repository.EmbeddingRepository
	scorer          *scoring.Scorer
	cfg             config.MatchingConfig
	log             *logger.Logger
}

func NewMatchUseCase(
	matchRepo repository.MatchRepository,
	interactionRepo repository.InteractionRepository,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	embRepo repository.EmbeddingRepository,
	scorer *scoring.Scorer,
	cfg config.MatchingConfig,
	log *logger.Logger,
) *MatchUseCase {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.DefaultLimit < 1 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.CandidatePool < 1 {
		cfg.CandidatePool = 200
	}
	return &MatchUseCase{
		matchRepo:       matchRepo,
		interactionRepo: interactionRepo,
		userRepo:        userRepo,
		profileRepo:     profileRepo,
		embRepo:         embRepo,
		scorer:          scorer,
		cfg:             cfg,
		log:             log.With("service", "MatchUseCase"),
	}
}

// Generate scores the candidate pool for userID and persists the best results as pending matches.
func (uc *MatchUseCase) Generate(ctx context.Context, userID int, limit int) ([]*domain.Match, error) {
	switch {
	case limit <= 0:
		limit = uc.cfg.DefaultLimit
	case limit > uc.cfg.MaxLimit:
		limit = uc.cfg.MaxLimit
	}

	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	own, err := uc.embRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	requester := scoring.Candidate{UserID: userID, Profile: profile, Embeddings: own}

	ids, err := uc.userRepo.ListMatchCandidates(ctx, userID, uc.cfg.CandidatePool)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Match{}, nil
	}
	profiles, err := uc.profileRepo.GetByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidate profiles: %w", err)
	}
	embeddings, err := uc.embRepo.GetByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidate embeddings: %w", err)
	}

	results := make([]scoring.Ranked, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidate := scoring.Candidate{UserID: id, Profile: profiles[id], Embeddings: embeddings[id]}
			results[i] = scoring.Ranked{UserID: id, Result: uc.scorer.Score(requester, candidate)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := scoring.Rank(results, limit)
	uc.log.Info("candidates scored", "user_id", userID, "pool", len(ids), "kept", len(ranked))
	return uc.Propose(ctx, userID, ranked)
}

// Propose persists pending matches. Pairs that already exist and zero scores are skipped.
func (uc *MatchUseCase) Propose(ctx context.Context, userID int, ranked []scoring.Ranked) ([]*domain.Match, error) {
	created := []*domain.Match{}
	for _, r := range ranked {
		if r.Score <= 0 || r.UserID == userID {
			continue
		}
		m := &domain.Match{
			ID:            uuid.New(),
			UserID:        userID,
			MatchedUserID: r.UserID,
			MatchType:     r.MatchType,
			Score:         r.Score,
			Evidence:      r.Evidence,
			Explanation:   r.Explanation,
			Status:        domain.MatchStatusPending,
		}
		ok, err := uc.matchRepo.Create(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("create match with user %d: %w", r.UserID, err)
		}
		if ok {
			created = append(created, m)
		}
	}
	return created, nil
}

func (uc *MatchUseCase) List(ctx context.Context, userID int, status *domain.MatchStatus) ([]*domain.Match, error) {
	return uc.matchRepo.ListByUser(ctx, userID, status)
}

// Act applies a user action (accept, decline, save) on behalf of a participant.
func (uc *MatchUseCase) Act(ctx context.Context, matchID uuid.UUID, actorUserID int, action string) (*domain.Match, error) {
	target, err := ParseAction(action)
	if err != nil {
		return nil, err
	}
	return uc.Transition(ctx, matchID, actorUserID, target, CauseUserAction)
}

// Expire moves a pending or saved match to expired.
func (uc *MatchUseCase) Expire(ctx context.Context, matchID uuid.UUID) (*domain.Match, error) {
	return uc.Transition(ctx, matchID, 0, domain.MatchStatusExpired, CauseExpiry)
}

// Transition validates and applies a status change with a compare-and-swap write.
// A concurrent change is re-read and re-validated once before giving up.
func (uc *MatchUseCase) Transition(ctx context.Context, matchID uuid.UUID, actorUserID int, target domain.MatchStatus, cause Cause) (*domain.Match, error) {
	for attempt := 0; attempt < 2; attempt++ {
		m, err := uc.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if cause != CauseExpiry && !m.HasUser(actorUserID) {
			return nil, domain.ErrMatchNotFound
		}
		if m.Status == target {
			// The status is shared but acceptance is per participant; the record is unique per (match, user, type).
			if cause == CauseUserAction {
				uc.afterTransition(ctx, m, actorUserID)
			}
			return m, nil
		}
		if !CanTransition(m.Status, target, cause) {
			return nil, fmt.Errorf("%w: %s -> %s by %s", domain.ErrInvalidTransition, m.Status, target, cause)
		}

		ok, err := uc.matchRepo.UpdateStatusIfUnchanged(ctx, matchID, m.Status, target)
		if err != nil {
			return nil, fmt.Errorf("update match status: %w", err)
		}
		if !ok {
			uc.log.Warn("match status changed concurrently", "match_id", matchID, "from", m.Status, "to", target)
			continue
		}

		from := m.Status
		m.Status = target
		uc.afterTransition(ctx, m, actorUserID)
		uc.log.Info("match transitioned", "match_id", matchID, "from", from, "to", target, "cause", cause)
		return m, nil
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrInvalidTransition, domain.ErrStatusConflict)
}

func (uc *MatchUseCase) afterTransition(ctx context.Context, m *domain.Match, actorUserID int) {
	if m.Status != domain.MatchStatusAccepted {
		return
	}
	err := uc.interactionRepo.Record(ctx, &domain.Interaction{
		ID:      uuid.New(),
		MatchID: m.ID,
		UserID:  actorUserID,
		Type:    domain.InteractionMatchAccepted,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		uc.log.Error("failed to record interaction", "match_id", m.ID, "error", err)
	}
}
