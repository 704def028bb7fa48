// Package memory implements the repository interfaces on process memory.
// It backs the health validator's fixtures and the use case tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/repository"
)

type Store struct {
	mu           sync.RWMutex
	users        map[int]*domain.User
	profiles     map[int]*domain.Profile
	embeddings   map[int]domain.EmbeddingSet
	matches      map[uuid.UUID]*domain.Match
	feedback     map[uuid.UUID]*domain.Feedback
	interactions map[string]*domain.Interaction
	nextProfile  int

	// SaveHook, when set, runs before SaveProfileEmbeddings applies a write.
	SaveHook func(repository.ProfileEmbeddingWrite) error
	// CASHook, when set, runs before UpdateStatusIfUnchanged and may mutate the store.
	CASHook func(id uuid.UUID)
}

func NewStore() *Store {
	return &Store{
		users:        make(map[int]*domain.User),
		profiles:     make(map[int]*domain.Profile),
		embeddings:   make(map[int]domain.EmbeddingSet),
		matches:      make(map[uuid.UUID]*domain.Match),
		feedback:     make(map[uuid.UUID]*domain.Feedback),
		interactions: make(map[string]*domain.Interaction),
	}
}

func (s *Store) Users() repository.UserRepository               { return (*userRepo)(s) }
func (s *Store) Profiles() repository.ProfileRepository         { return (*profileRepo)(s) }
func (s *Store) Embeddings() repository.EmbeddingRepository     { return (*embeddingRepo)(s) }
func (s *Store) Matches() repository.MatchRepository            { return (*matchRepo)(s) }
func (s *Store) Feedback() repository.FeedbackRepository        { return (*feedbackRepo)(s) }
func (s *Store) Interactions() repository.InteractionRepository { return (*interactionRepo)(s) }

// PutUser inserts or replaces a user.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.ID] = &u
}

// InteractionCount returns how many interactions are stored.
func (s *Store) InteractionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.interactions)
}

func (s *Store) MatchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneProfile(p *domain.Profile) *domain.Profile {
	c := *p
	c.Strengths = cloneStrings(p.Strengths)
	c.Needs = cloneStrings(p.Needs)
	c.GoalCategories = cloneStrings(p.GoalCategories)
	c.SharedValues = cloneStrings(p.SharedValues)
	c.ConnectionPreferences = cloneStrings(p.ConnectionPreferences)
	return &c
}

func cloneSet(set domain.EmbeddingSet) domain.EmbeddingSet {
	out := make(domain.EmbeddingSet, len(set))
	for f, e := range set {
		c := *e
		c.Vector = append([]float32(nil), e.Vector...)
		out[f] = &c
	}
	return out
}

type userRepo Store

func (r *userRepo) GetByID(_ context.Context, id int) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *userRepo) ListMatchCandidates(_ context.Context, userID int, limit int) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make(map[int]bool)
	for _, m := range r.matches {
		if other, ok := m.GetOtherUserID(userID); ok {
			matched[other] = true
		}
	}
	ids := []int{}
	for id, u := range r.users {
		if id == userID || !u.IsActive || !u.OnboardingCompleted || matched[id] {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type profileRepo Store

func (r *profileRepo) GetByUserID(_ context.Context, userID int) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (r *profileRepo) GetByUserIDs(_ context.Context, userIDs []int) (map[int]*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]*domain.Profile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := r.profiles[id]; ok {
			out[id] = cloneProfile(p)
		}
	}
	return out, nil
}

func (r *profileRepo) Upsert(_ context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if existing, ok := r.profiles[profile.UserID]; ok {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	} else {
		r.nextProfile++
		profile.ID = r.nextProfile
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	r.profiles[profile.UserID] = cloneProfile(profile)
	return nil
}

type embeddingRepo Store

func (r *embeddingRepo) GetByUser(_ context.Context, userID int) (domain.EmbeddingSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSet(r.embeddings[userID]), nil
}

func (r *embeddingRepo) GetByUsers(_ context.Context, userIDs []int) (map[int]domain.EmbeddingSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]domain.EmbeddingSet, len(userIDs))
	for _, id := range userIDs {
		if set, ok := r.embeddings[id]; ok && len(set) > 0 {
			out[id] = cloneSet(set)
		}
	}
	return out, nil
}

func (r *embeddingRepo) SaveProfileEmbeddings(_ context.Context, write repository.ProfileEmbeddingWrite) error {
	if r.SaveHook != nil {
		if err := r.SaveHook(write); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.embeddings[write.UserID]
	if set == nil {
		set = domain.EmbeddingSet{}
	}
	now := time.Now()
	for _, e := range write.Upserts {
		c := *e
		c.Vector = append([]float32(nil), e.Vector...)
		c.UpdatedAt = now
		set[e.FieldType] = &c
	}
	for _, f := range write.DeleteFields {
		delete(set, f)
	}
	r.embeddings[write.UserID] = set

	if write.MarkOnboarded {
		if u, ok := r.users[write.UserID]; ok && !u.OnboardingCompleted {
			u.OnboardingCompleted = true
		}
	}
	return nil
}

type matchRepo Store

func (r *matchRepo) Create(_ context.Context, match *domain.Match) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.UserID == match.UserID && m.MatchedUserID == match.MatchedUserID {
			return false, nil
		}
	}
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	now := time.Now()
	match.CreatedAt, match.UpdatedAt = now, now
	c := *match
	r.matches[match.ID] = &c
	return true, nil
}

func (r *matchRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	c := *m
	return &c, nil
}

func (r *matchRepo) ListByUser(_ context.Context, userID int, status *domain.MatchStatus) ([]*domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.Match{}
	for _, m := range r.matches {
		if !m.HasUser(userID) || (status != nil && m.Status != *status) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *matchRepo) UpdateStatusIfUnchanged(_ context.Context, id uuid.UUID, from, to domain.MatchStatus) (bool, error) {
	if r.CASHook != nil {
		r.CASHook(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	m.UpdatedAt = time.Now()
	return true, nil
}

// SetMatchStatus overwrites a stored status without any checks.
func (s *Store) SetMatchStatus(id uuid.UUID, status domain.MatchStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.matches[id]; ok {
		m.Status = status
	}
}

type feedbackRepo Store

func (r *feedbackRepo) Create(_ context.Context, feedback *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.feedback {
		if f.MatchID == feedback.MatchID && f.UserID == feedback.UserID {
			return domain.ErrFeedbackAlreadySubmitted
		}
	}
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}
	feedback.CreatedAt = time.Now()
	c := *feedback
	r.feedback[feedback.ID] = &c
	return nil
}

func (r *feedbackRepo) Summary(_ context.Context) ([]domain.FeedbackSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type agg struct {
		count, ratingSum, positive int
	}
	byType := make(map[domain.MatchType]*agg)
	for _, f := range r.feedback {
		m, ok := r.matches[f.MatchID]
		if !ok {
			continue
		}
		a := byType[m.MatchType]
		if a == nil {
			a = &agg{}
			byType[m.MatchType] = a
		}
		a.count++
		a.ratingSum += f.Rating
		if f.Outcome.IsPositive() {
			a.positive++
		}
	}

	out := []domain.FeedbackSummary{}
	for t, a := range byType {
		out = append(out, domain.FeedbackSummary{
			MatchType:     t,
			Count:         a.count,
			AverageRating: float64(a.ratingSum) / float64(a.count),
			PositiveRatio: float64(a.positive) / float64(a.count),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchType < out[j].MatchType })
	return out, nil
}

type interactionRepo Store

func (r *interactionRepo) Record(_ context.Context, interaction *domain.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := interaction.MatchID.String() + ":" + strconv.Itoa(interaction.UserID) + ":" + string(interaction.Type)
	if _, ok := r.interactions[key]; ok {
		return nil
	}
	if interaction.ID == uuid.Nil {
		interaction.ID = uuid.New()
	}
	interaction.CreatedAt = time.Now()
	c := *interaction
	r.interactions[key] = &c
	return nil
}
