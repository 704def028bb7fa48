package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Me handles GET /auth/me
// @Summary Current user
// @Description Returns the user resolved from the bearer token
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		RespondError(c, domain.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, user)
}
