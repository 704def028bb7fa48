package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/match"
)

type MatchHandler struct {
	matchUseCase *match.MatchUseCase
}

func NewMatchHandler(matchUseCase *match.MatchUseCase) *MatchHandler {
	return &MatchHandler{
		matchUseCase: matchUseCase,
	}
}

// GenerateMatchesRequest asks for new match candidates.
type GenerateMatchesRequest struct {
	UserID int `json:"userId"`
	Limit  int `json:"limit"`
}

// MatchesResponse wraps a list of matches
type MatchesResponse struct {
	Matches []*domain.Match `json:"matches"`
}

// UpdateMatchRequest carries a user action on a match.
type UpdateMatchRequest struct {
	Action string `json:"action" binding:"required"`
}

// GenerateMatches handles POST /matches
// @Summary Generate matches
// @Description Score the candidate pool and persist the best results as pending matches
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body GenerateMatchesRequest true "Requester and limit"
// @Success 201 {object} MatchesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /matches [post]
func (h *MatchHandler) GenerateMatches(c *gin.Context) {
	var req GenerateMatchesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, bindError(err))
			return
		}
	}
	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}

	matches, err := h.matchUseCase.Generate(c.Request.Context(), userID, req.Limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	if matches == nil {
		matches = []*domain.Match{}
	}
	c.JSON(http.StatusCreated, MatchesResponse{Matches: matches})
}

// ListMatches handles GET /matches
// @Summary List matches
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Param userId query int false "User ID (admin only when not the caller)"
// @Param status query string false "Status filter"
// @Success 200 {object} MatchesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /matches [get]
func (h *MatchHandler) ListMatches(c *gin.Context) {
	requested := 0
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			badRequest(c, "invalid userId")
			return
		}
		requested = id
	}
	userID, err := resolveUserID(c, requested)
	if err != nil {
		RespondError(c, err)
		return
	}

	var status *domain.MatchStatus
	if raw := c.Query("status"); raw != "" {
		s, err := domain.ParseMatchStatus(raw)
		if err != nil {
			RespondError(c, err)
			return
		}
		status = &s
	}

	matches, err := h.matchUseCase.List(c.Request.Context(), userID, status)
	if err != nil {
		RespondError(c, err)
		return
	}
	if matches == nil {
		matches = []*domain.Match{}
	}
	c.JSON(http.StatusOK, MatchesResponse{Matches: matches})
}

// UpdateMatch handles PATCH /matches/:id
// @Summary Act on a match
// @Description Accept, decline or save a match
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param request body UpdateMatchRequest true "Action"
// @Success 200 {object} domain.Match
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /matches/{id} [patch]
func (h *MatchHandler) UpdateMatch(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		RespondError(c, domain.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid match id")
		return
	}
	var req UpdateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}

	m, err := h.matchUseCase.Act(c.Request.Context(), id, user.ID, req.Action)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
