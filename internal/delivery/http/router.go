package http

import (
	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-networking/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
)

type Router struct {
	authHandler       *handler.AuthHandler
	profileHandler    *handler.ProfileHandler
	matchHandler      *handler.MatchHandler
	feedbackHandler   *handler.FeedbackHandler
	onboardingHandler *handler.OnboardingHandler
	healthHandler     *handler.HealthHandler
	authMiddleware    *middleware.AuthMiddleware
	rateCounter       middleware.Counter
	rateLimit         config.RateLimitConfig
	log               *logger.Logger
}

func NewRouter(
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	matchHandler *handler.MatchHandler,
	feedbackHandler *handler.FeedbackHandler,
	onboardingHandler *handler.OnboardingHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateCounter middleware.Counter,
	rateLimit config.RateLimitConfig,
	log *logger.Logger,
) *Router {
	return &Router{
		authHandler:       authHandler,
		profileHandler:    profileHandler,
		matchHandler:      matchHandler,
		feedbackHandler:   feedbackHandler,
		onboardingHandler: onboardingHandler,
		healthHandler:     healthHandler,
		authMiddleware:    authMiddleware,
		rateCounter:       rateCounter,
		rateLimit:         rateLimit,
		log:               log,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(r.log))

	// Health check (supports both GET and HEAD)
	router.GET("/health", r.healthHandler.Health)
	router.HEAD("/health", r.healthHandler.Health)

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(r.authMiddleware.RequireAuth(), middleware.RateLimit(r.rateCounter, r.rateLimit, r.log))
	{
		v1.GET("/auth/me", r.authHandler.Me)

		profile := v1.Group("/profile")
		{
			profile.GET("/me", r.profileHandler.GetMyProfile)
			profile.PUT("/me", r.profileHandler.UpdateMyProfile)
		}

		matches := v1.Group("/matches")
		{
			matches.POST("", r.matchHandler.GenerateMatches)
			matches.GET("", r.matchHandler.ListMatches)
			matches.PATCH("/:id", r.matchHandler.UpdateMatch)
		}

		v1.POST("/feedback", r.feedbackHandler.SubmitFeedback)

		onboarding := v1.Group("/onboarding")
		{
			onboarding.POST("/next-step", r.onboardingHandler.NextStep)
			onboarding.POST("/transcribe", r.onboardingHandler.Transcribe)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.RequireAdmin())
		{
			admin.GET("/ai-health", r.healthHandler.AIHealth)
			admin.GET("/feedback-summary", r.feedbackHandler.Summary)
		}
	}

	return router
}
