package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/infrastructure/cache"
)

const sessionNamespace = "onboarding"

// SessionStore keeps in-progress onboarding sessions. Get returns nil, nil when none exists.
type SessionStore interface {
	Get(ctx context.Context, userID int) (*domain.OnboardingSession, error)
	Save(ctx context.Context, s *domain.OnboardingSession) error
	Delete(ctx context.Context, userID int) error
}

type RedisSessionStore struct {
	redis *cache.Redis
	ttl   time.Duration
}

func NewRedisSessionStore(redis *cache.Redis, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{redis: redis, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, userID int) (*domain.OnboardingSession, error) {
	raw, err := s.redis.Get(ctx, sessionNamespace, strconv.Itoa(userID))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load onboarding session: %w", err)
	}
	var session domain.OnboardingSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode onboarding session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *domain.OnboardingSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode onboarding session: %w", err)
	}
	return s.redis.Set(ctx, sessionNamespace, strconv.Itoa(session.UserID), raw, s.ttl)
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID int) error {
	return s.redis.Delete(ctx, sessionNamespace, strconv.Itoa(userID))
}

type memorySession struct {
	raw       []byte
	expiresAt time.Time
}

// MemorySessionStore is used when Redis is disabled.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[int]memorySession
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{ttl: ttl, sessions: make(map[int]memorySession), now: time.Now}
}

func (s *MemorySessionStore) Get(_ context.Context, userID int) (*domain.OnboardingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.sessions, userID)
		return nil, nil
	}
	var session domain.OnboardingSession
	if err := json.Unmarshal(entry.raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *domain.OnboardingSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = memorySession{raw: raw, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
