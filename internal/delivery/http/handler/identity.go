package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

// Context keys set by the auth middleware.
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

// resolveUserID returns the user a request acts on. Zero means the caller;
// any other user requires admin rights.
func resolveUserID(c *gin.Context, requested int) (int, error) {
	user, ok := currentUser(c)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	if requested == 0 || requested == user.ID {
		return user.ID, nil
	}
	if !user.IsAdmin {
		return 0, domain.ErrForbidden
	}
	return requested, nil
}
