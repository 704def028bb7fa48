package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/feedback"
)

type FeedbackHandler struct {
	feedbackUseCase *feedback.FeedbackUseCase
}

func NewFeedbackHandler(feedbackUseCase *feedback.FeedbackUseCase) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackUseCase: feedbackUseCase,
	}
}

// FeedbackBody is the participant's rating of a match.
type FeedbackBody struct {
	Rating  int     `json:"rating"`
	Outcome string  `json:"outcome"`
	Text    *string `json:"text"`
}

// SubmitFeedbackRequest represents POST /feedback body
type SubmitFeedbackRequest struct {
	MatchID  string       `json:"matchId" binding:"required"`
	UserID   int          `json:"userId"`
	Feedback FeedbackBody `json:"feedback"`
}

// FeedbackSummaryResponse lists aggregated feedback per match type
type FeedbackSummaryResponse struct {
	Summary []domain.FeedbackSummary `json:"summary"`
}

// SubmitFeedback handles POST /feedback
// @Summary Submit match feedback
// @Description Record a rating and outcome for a match and complete it
// @Tags feedback
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body SubmitFeedbackRequest true "Feedback"
// @Success 201 {object} domain.Feedback
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /feedback [post]
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		badRequest(c, "invalid matchId")
		return
	}
	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}

	fb, err := h.feedbackUseCase.Submit(c.Request.Context(), feedback.SubmitRequest{
		MatchID: matchID,
		UserID:  userID,
		Rating:  req.Feedback.Rating,
		Outcome: req.Feedback.Outcome,
		Text:    req.Feedback.Text,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

// Summary handles GET /admin/feedback-summary
// @Summary Feedback summary
// @Description Per match type feedback aggregates used to tune scorer weights
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} FeedbackSummaryResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/feedback-summary [get]
func (h *FeedbackHandler) Summary(c *gin.Context) {
	summary, err := h.feedbackUseCase.Summary(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	if summary == nil {
		summary = []domain.FeedbackSummary{}
	}
	c.JSON(http.StatusOK, FeedbackSummaryResponse{Summary: summary})
}
