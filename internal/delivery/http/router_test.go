package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-networking/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/infrastructure/cache"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/validation"
	"github.com/gdugdh24/mpit2026-networking/internal/repository/memory"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/auth"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/embedding"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/feedback"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/health"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/match"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/onboarding"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/profile"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/scoring"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/transcription"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type constEmbedder struct{}

func (constEmbedder) Embed(context.Context, string, domain.FieldType) ([]float32, error) {
	return []float32{0.5, 0.5, 0.5}, nil
}
func (constEmbedder) Model() string  { return "test" }
func (constEmbedder) Dimension() int { return 3 }

type stubTranscriber struct{ text string }

func (s stubTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return s.text, nil
}

type stubModerator struct{}

func (stubModerator) Moderate(context.Context, string) (bool, error) { return false, nil }

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
	tokens *auth.TokenUseCase
	emb    *embedding.EmbeddingUseCase
}

func newTestServer(t *testing.T, rl config.RateLimitConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	store := memory.NewStore()
	validate := validation.New()
	scorer := scoring.NewScorer(scoring.DefaultWeights())
	engine := onboarding.NewEngine(onboarding.DefaultThresholds())

	emb := embedding.NewEmbeddingUseCase(constEmbedder{}, store.Embeddings(), store.Profiles(), cache.NewMemoryEmbeddingCache(100, time.Hour), 2, log)
	matches := match.NewMatchUseCase(store.Matches(), store.Interactions(), store.Users(), store.Profiles(), store.Embeddings(), scorer, config.MatchingConfig{}, log)
	fb := feedback.NewFeedbackUseCase(store.Feedback(), store.Matches(), matches, validate, log)
	onb := onboarding.NewOnboardingUseCase(engine, onboarding.NewMemorySessionStore(time.Hour), store.Profiles(), emb, validate, log)
	tr := transcription.NewTranscriptionUseCase(stubTranscriber{text: "I build data pipelines in Go"}, stubModerator{}, config.TranscriptionConfig{}, log)
	hc := health.NewHealthUseCase(okPinger{}, constEmbedder{}, stubModerator{}, tr, health.NewFixtures(scorer, engine, validate), 4, log)
	prof := profile.NewProfileUseCase(store.Profiles(), store.Users(), emb, validate, log)
	tokens := auth.NewTokenUseCase(testSecret, store.Users())

	router := NewRouter(
		handler.NewAuthHandler(),
		handler.NewProfileHandler(prof),
		handler.NewMatchHandler(matches),
		handler.NewFeedbackHandler(fb),
		handler.NewOnboardingHandler(onb, tr),
		handler.NewHealthHandler(hc),
		middleware.NewAuthMiddleware(log, tokens),
		cache.NewMemoryCounter(),
		rl,
		log,
	)

	store.PutUser(domain.User{ID: 1, IsActive: true})
	store.PutUser(domain.User{ID: 2, IsActive: true})
	store.PutUser(domain.User{ID: 9, IsActive: true, IsAdmin: true})
	return &testServer{engine: router.Setup(), store: store, tokens: tokens, emb: emb}
}

func (s *testServer) do(t *testing.T, method, path string, userID int, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		token, _, err := s.tokens.IssueToken(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) seedCandidate(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.store.Profiles().Upsert(ctx, &domain.Profile{
		UserID:      2,
		Strengths:   []string{"Python", "machine learning"},
		Needs:       []string{"frontend"},
		CurrentGoal: "Find a frontend partner",
	}))
	_, err := s.emb.GenerateForProfile(ctx, 2)
	require.NoError(t, err)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	w := s.do(t, http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequiresToken(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})

	w := s.do(t, http.MethodGet, "/api/v1/matches", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body handler.ErrorResponse
	decode(t, w, &body)
	assert.Equal(t, "unauthorized", body.Code)

	w = s.do(t, http.MethodGet, "/api/v1/auth/me", 77, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOnboardingToFeedbackFlow(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})
	s.seedCandidate(t)

	w := s.do(t, http.MethodPost, "/api/v1/onboarding/next-step", 1, gin.H{
		"currentStep": "strengths",
		"responses":   []gin.H{{"stepId": "strengths", "value": "JavaScript, React"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var step handler.NextStepResponse
	decode(t, w, &step)
	assert.False(t, step.Completed)
	require.NotNil(t, step.Step)
	assert.Equal(t, "needs", step.Step.ID)

	w = s.do(t, http.MethodPost, "/api/v1/onboarding/next-step", 1, gin.H{
		"responses": []gin.H{
			{"stepId": "needs", "value": "Python, machine learning"},
			{"stepId": "current_goal", "value": "Add recommendations to my app"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &step)
	assert.True(t, step.Completed)
	assert.Nil(t, step.Step)

	w = s.do(t, http.MethodPost, "/api/v1/matches", 1, gin.H{"userId": 1, "limit": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created handler.MatchesResponse
	decode(t, w, &created)
	require.Len(t, created.Matches, 1)
	m := created.Matches[0]
	assert.Equal(t, 2, m.MatchedUserID)
	assert.Equal(t, domain.MatchStatusPending, m.Status)
	assert.True(t, m.Evidence.ComplementaryMatches)

	path := "/api/v1/matches/" + m.ID.String()
	w = s.do(t, http.MethodPatch, path, 2, gin.H{"action": "teleport"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, path, 2, gin.H{"action": "accept"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, s.store.InteractionCount())

	w = s.do(t, http.MethodPost, "/api/v1/feedback", 1, gin.H{
		"matchId":  m.ID.String(),
		"feedback": gin.H{"rating": 0, "outcome": "good_chat"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/feedback", 1, gin.H{
		"matchId":  m.ID.String(),
		"feedback": gin.H{"rating": 3, "outcome": "good_chat"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/feedback", 1, gin.H{
		"matchId":  m.ID.String(),
		"feedback": gin.H{"rating": 4, "outcome": "insight"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPatch, path, 2, gin.H{"action": "decline"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/matches?status=completed", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed handler.MatchesResponse
	decode(t, w, &listed)
	require.Len(t, listed.Matches, 1)
	assert.Equal(t, domain.MatchStatusCompleted, listed.Matches[0].Status)
}

func TestMatches_OtherUserRequiresAdmin(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})

	w := s.do(t, http.MethodGet, "/api/v1/matches?userId=2", 1, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/matches?userId=2", 9, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/matches?status=bogus", 1, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})

	w := s.do(t, http.MethodGet, "/api/v1/admin/ai-health?quick=true", 1, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/admin/ai-health?quick=true", 9, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report domain.HealthReport
	decode(t, w, &report)
	assert.Equal(t, domain.HealthHealthy, report.Overall)
	assert.Len(t, report.Components, 8)

	w = s.do(t, http.MethodGet, "/api/v1/admin/feedback-summary", 9, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func (s *testServer) upload(t *testing.T, duration string, audio []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("duration_seconds", duration))
	part, err := mw.CreateFormFile("audio", "answer.wav")
	require.NoError(t, err)
	_, err = part.Write(audio)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/onboarding/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	token, _, err := s.tokens.IssueToken(1)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestTranscribe(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{})

	w := s.upload(t, "6.5", []byte("RIFF0000WAVEfmt "))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ok handler.TranscriptionResponse
	decode(t, w, &ok)
	require.NotNil(t, ok.Text)
	assert.Equal(t, "I build data pipelines in Go", *ok.Text)

	w = s.upload(t, "25", []byte("RIFF0000WAVEfmt "))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var raw map[string]interface{}
	decode(t, w, &raw)
	assert.Nil(t, raw["text"])
	assert.Contains(t, raw, "text")
	assert.Equal(t, "text_input", raw["fallback"])
	assert.Contains(t, raw["reason"], "outside 2s-20s")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{Requests: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodGet, "/api/v1/auth/me", 1, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := s.do(t, http.MethodGet, "/api/v1/auth/me", 1, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 0)

	w = s.do(t, http.MethodGet, "/api/v1/auth/me", 2, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
