package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-networking/internal/usecase/health"
)

type HealthHandler struct {
	healthUseCase *health.HealthUseCase
}

func NewHealthHandler(healthUseCase *health.HealthUseCase) *HealthHandler {
	return &HealthHandler{
		healthUseCase: healthUseCase,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.healthUseCase.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AIHealth handles GET /admin/ai-health
// @Summary Validate AI components
// @Description Runs every component check; quick=true skips the checks that call external providers
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param quick query bool false "Skip provider calls"
// @Success 200 {object} domain.HealthReport
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/ai-health [get]
func (h *HealthHandler) AIHealth(c *gin.Context) {
	quick := false
	if raw := c.Query("quick"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "invalid quick flag")
			return
		}
		quick = v
	}
	c.JSON(http.StatusOK, h.healthUseCase.RunFullValidation(c.Request.Context(), quick))
}
