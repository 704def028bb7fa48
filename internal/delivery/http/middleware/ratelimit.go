package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
)

const rateLimitNamespace = "ratelimit"

// Counter is a fixed-window request counter.
type Counter interface {
	IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error)
	TTL(ctx context.Context, namespace, key string) (time.Duration, error)
}

// RateLimit allows cfg.Requests per cfg.Window for each caller. Authenticated callers are
// keyed by user id, anonymous ones by client IP. Counter failures let the request through.
func RateLimit(counter Counter, cfg config.RateLimitConfig, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "RateLimit")
	return func(c *gin.Context) {
		if cfg.Requests <= 0 || cfg.Window <= 0 {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if id, ok := c.Get(handler.ContextUserIDKey); ok {
			key = "user:" + strconv.Itoa(id.(int))
		}

		ctx := c.Request.Context()
		count, err := counter.IncrWithExpire(ctx, rateLimitNamespace, key, cfg.Window)
		if err != nil {
			log.Warn("rate limit counter unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		remaining := int64(cfg.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Requests) {
			retryAfter, err := counter.TTL(ctx, rateLimitNamespace, key)
			if err != nil || retryAfter <= 0 {
				retryAfter = cfg.Window
			}
			handler.RespondError(c, &domain.RateLimitError{RetryAfter: retryAfter, Limit: cfg.Requests})
			return
		}
		c.Next()
	}
}
