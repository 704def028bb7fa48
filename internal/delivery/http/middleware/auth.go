package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-networking/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
)

// Authenticator resolves a bearer token to the calling user.
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

type AuthMiddleware struct {
	log  *logger.Logger
	auth Authenticator
}

func NewAuthMiddleware(log *logger.Logger, auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), auth: auth}
}

// RequireAuth loads the caller into the gin context under handler.ContextUserKey.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			handler.RespondError(c, domain.ErrUnauthorized)
			return
		}
		user, err := am.auth.CurrentUser(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("authentication failed", "error", err)
			handler.RespondError(c, err)
			return
		}
		c.Set(handler.ContextUserKey, user)
		c.Set(handler.ContextUserIDKey, user.ID)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(handler.ContextUserKey)
		user, ok := v.(*domain.User)
		if !ok || user == nil {
			handler.RespondError(c, domain.ErrUnauthorized)
			return
		}
		if !user.IsAdmin {
			handler.RespondError(c, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
