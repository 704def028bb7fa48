package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/embedding"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/onboarding"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/transcription"
)

type OnboardingHandler struct {
	onboardingUseCase    *onboarding.OnboardingUseCase
	transcriptionUseCase *transcription.TranscriptionUseCase
}

func NewOnboardingHandler(
	onboardingUseCase *onboarding.OnboardingUseCase,
	transcriptionUseCase *transcription.TranscriptionUseCase,
) *OnboardingHandler {
	return &OnboardingHandler{
		onboardingUseCase:    onboardingUseCase,
		transcriptionUseCase: transcriptionUseCase,
	}
}

// StepResponse is one answer in a next-step request.
type StepResponse struct {
	StepID    string    `json:"stepId"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// NextStepRequest represents POST /onboarding/next-step body
type NextStepRequest struct {
	UserID         int            `json:"userId"`
	CurrentStep    string         `json:"currentStep"`
	Responses      []StepResponse `json:"responses"`
	ElapsedSeconds float64        `json:"elapsedSeconds"`
}

// NextStepResponse is the next question and the session classification.
type NextStepResponse struct {
	Step              *onboarding.Step            `json:"step"`
	FlowType          domain.FlowType             `json:"flowType"`
	EngagementMetrics domain.EngagementMetrics    `json:"engagementMetrics"`
	Completed         bool                        `json:"completed"`
	Embeddings        *embedding.GenerationResult `json:"embeddings,omitempty"`
}

// TranscriptionResponse is returned for every transcription attempt. Text is null on failure.
type TranscriptionResponse struct {
	Text            *string `json:"text"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	Code            string  `json:"code,omitempty"`
	Fallback        string  `json:"fallback,omitempty"`
}

// NextStep handles POST /onboarding/next-step
// @Summary Next onboarding step
// @Description Record answers and return the next adaptive question
// @Tags onboarding
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body NextStepRequest true "Answers since the previous step"
// @Success 200 {object} NextStepResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /onboarding/next-step [post]
func (h *OnboardingHandler) NextStep(c *gin.Context) {
	var req NextStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}
	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}

	in := onboarding.AdvanceRequest{
		CurrentStep:    req.CurrentStep,
		ElapsedSeconds: req.ElapsedSeconds,
		Responses:      make([]onboarding.ResponseInput, 0, len(req.Responses)),
	}
	for _, r := range req.Responses {
		in.Responses = append(in.Responses, onboarding.ResponseInput{StepID: r.StepID, Value: r.Value, Timestamp: r.Timestamp})
	}

	res, err := h.onboardingUseCase.Advance(c.Request.Context(), userID, in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NextStepResponse{
		Step:              res.Step,
		FlowType:          res.FlowType,
		EngagementMetrics: res.EngagementMetrics,
		Completed:         res.Completed,
		Embeddings:        res.Embeddings,
	})
}

// Transcribe handles POST /onboarding/transcribe
// @Summary Transcribe a voice answer
// @Description Multipart upload with an audio file and its duration. Failures return text null and a text input fallback.
// @Tags onboarding
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "Audio clip"
// @Param duration_seconds formData number true "Clip duration in seconds"
// @Success 200 {object} TranscriptionResponse
// @Failure 400 {object} TranscriptionResponse
// @Failure 422 {object} TranscriptionResponse
// @Failure 503 {object} TranscriptionResponse
// @Router /onboarding/transcribe [post]
func (h *OnboardingHandler) Transcribe(c *gin.Context) {
	duration, err := strconv.ParseFloat(c.PostForm("duration_seconds"), 64)
	if err != nil {
		h.transcriptionFailed(c, domain.Validationf("duration_seconds must be a number"))
		return
	}
	file, err := c.FormFile("audio")
	if err != nil {
		h.transcriptionFailed(c, domain.Validationf("audio file is required"))
		return
	}
	if file.Size > h.transcriptionUseCase.MaxBytes() {
		h.transcriptionFailed(c, domain.Validationf("audio payload of %d bytes exceeds %d", file.Size, h.transcriptionUseCase.MaxBytes()))
		return
	}

	f, err := file.Open()
	if err != nil {
		h.transcriptionFailed(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.transcriptionUseCase.MaxBytes()+1))
	if err != nil {
		h.transcriptionFailed(c, err)
		return
	}

	res, err := h.transcriptionUseCase.Transcribe(c.Request.Context(), transcription.AudioInput{
		Data:            data,
		ContentType:     file.Header.Get("Content-Type"),
		DurationSeconds: duration,
	})
	if err != nil {
		h.transcriptionFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, TranscriptionResponse{Text: &res.Text, DurationSeconds: res.DurationSeconds})
}

func (h *OnboardingHandler) transcriptionFailed(c *gin.Context, err error) {
	status, code := StatusFor(err)
	reason := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		reason = "transcription failed"
	case errors.Is(err, domain.ErrContentRejected):
		reason = "the answer could not be accepted, please type it instead"
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrMissingCredential):
		reason = "transcription is temporarily unavailable"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, TranscriptionResponse{Reason: reason, Code: code, Fallback: "text_input"})
}
