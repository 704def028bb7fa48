package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/delivery/http"
	"github.com/gdugdh24/mpit2026-networking/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-networking/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-networking/internal/infrastructure/cache"
	"github.com/gdugdh24/mpit2026-networking/internal/infrastructure/database"
	"github.com/gdugdh24/mpit2026-networking/internal/infrastructure/gemini"
	"github.com/gdugdh24/mpit2026-networking/internal/infrastructure/provider"
	"github.com/gdugdh24/mpit2026-networking/internal/infrastructure/server"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/validation"
	"github.com/gdugdh24/mpit2026-networking/internal/repository/postgres"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/auth"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/embedding"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/feedback"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/health"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/match"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/onboarding"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/profile"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/scoring"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/transcription"
	"github.com/gdugdh24/mpit2026-networking/migrations"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Log       *logger.Logger
	DB        *sqlx.DB
	Redis     *redis.Client
	Server    *server.Server
	Moderator *gemini.Moderator
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	// Initialize database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(ctx, db, migrations.FS, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize Redis; nil when disabled
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	var (
		embCache    cache.EmbeddingCache
		sessions    onboarding.SessionStore
		rateCounter middleware.Counter
	)
	if redisClient != nil {
		store := cache.NewRedis(redisClient)
		embCache = cache.NewRedisEmbeddingCache(store, cfg.Cache.TTL, log)
		sessions = onboarding.NewRedisSessionStore(store, cfg.Onboarding.SessionTTL)
		rateCounter = store
	} else {
		log.Warn("redis disabled, using in-memory cache, sessions and rate limits")
		embCache = cache.NewMemoryEmbeddingCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		sessions = onboarding.NewMemorySessionStore(cfg.Onboarding.SessionTTL)
		rateCounter = cache.NewMemoryCounter()
	}

	// Initialize external providers
	limiter := provider.NewTokenBucket(cfg.Embedding.RequestsPerSec, cfg.Embedding.Burst)
	embeddingClient := provider.NewEmbeddingClient(log, cfg.Embedding, limiter)
	transcriptionClient := provider.NewTranscriptionClient(log, cfg.Transcription, cfg.Embedding, limiter)
	moderator, err := gemini.NewModerator(ctx, log, cfg.Gemini)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize moderator: %w", err)
	}
	if cfg.Embedding.APIKey == "" {
		log.Warn("EMBEDDING_API_KEY is not set, embedding calls will fail")
	}
	if cfg.Gemini.APIKey == "" {
		log.Warn("GEMINI_API_KEY is not set, moderation calls will fail")
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	embeddingRepo := postgres.NewEmbeddingRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	feedbackRepo := postgres.NewFeedbackRepository(db)
	interactionRepo := postgres.NewInteractionRepository(db)

	// Initialize use cases
	validate := validation.New()
	scorer := scoring.NewScorer(scoring.WeightsFromConfig(cfg.Matching))
	engine := onboarding.NewEngine(onboarding.ThresholdsFromConfig(cfg.Onboarding))

	embeddingUseCase := embedding.NewEmbeddingUseCase(
		embeddingClient,
		embeddingRepo,
		profileRepo,
		embCache,
		cfg.Embedding.Concurrency,
		log,
	)

	matchUseCase := match.NewMatchUseCase(
		matchRepo,
		interactionRepo,
		userRepo,
		profileRepo,
		embeddingRepo,
		scorer,
		cfg.Matching,
		log,
	)

	feedbackUseCase := feedback.NewFeedbackUseCase(
		feedbackRepo,
		matchRepo,
		matchUseCase,
		validate,
		log,
	)

	onboardingUseCase := onboarding.NewOnboardingUseCase(
		engine,
		sessions,
		profileRepo,
		embeddingUseCase,
		validate,
		log,
	)

	transcriptionUseCase := transcription.NewTranscriptionUseCase(
		transcriptionClient,
		moderator,
		cfg.Transcription,
		log,
	)

	profileUseCase := profile.NewProfileUseCase(
		profileRepo,
		userRepo,
		embeddingUseCase,
		validate,
		log,
	)

	healthUseCase := health.NewHealthUseCase(
		db,
		embeddingClient,
		moderator,
		transcriptionUseCase,
		health.NewFixtures(scorer, engine, validate),
		cfg.Matching.Concurrency,
		log,
	).WithTimeout(cfg.Admin.HealthCheckTimeout)

	tokenUseCase := auth.NewTokenUseCase(cfg.JWT.AccessSecret, userRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler()
	profileHandler := handler.NewProfileHandler(profileUseCase)
	matchHandler := handler.NewMatchHandler(matchUseCase)
	feedbackHandler := handler.NewFeedbackHandler(feedbackUseCase)
	onboardingHandler := handler.NewOnboardingHandler(onboardingUseCase, transcriptionUseCase)
	healthHandler := handler.NewHealthHandler(healthUseCase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(log, tokenUseCase)

	// Initialize router
	router := http.NewRouter(
		authHandler,
		profileHandler,
		matchHandler,
		feedbackHandler,
		onboardingHandler,
		healthHandler,
		authMiddleware,
		rateCounter,
		cfg.RateLimit,
		log,
	)

	// Setup routes
	ginRouter := router.Setup()

	// Initialize server
	srv := server.NewServer(&cfg.Server, ginRouter, log)

	return &Container{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Redis:     redisClient,
		Server:    srv,
		Moderator: moderator,
	}, nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.Moderator != nil {
		c.Moderator.Close()
	}

	// Close Redis
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Log.Error("error closing redis", "error", err)
		}
	}

	// Close database
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
