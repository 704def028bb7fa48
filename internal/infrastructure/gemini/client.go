package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
)

const moderationTimeout = 10 * time.Second

const moderationPrompt = `You moderate short answers that people give about their professional strengths,
needs and goals during onboarding on a networking platform.
Flag the text if it contains harassment, hate, sexual content, threats, spam or personal contact details.
Ordinary professional statements must not be flagged.
Text:
%s`

// Moderator classifies user-provided text with Gemini.
type Moderator struct {
	log    *logger.Logger
	client *genai.Client
	model  *genai.GenerativeModel
}

type verdict struct {
	Flagged *bool `json:"flagged"`
}

// NewModerator builds a moderator. Without an API key it is still returned,
// and every call fails with ErrMissingCredential.
func NewModerator(ctx context.Context, log *logger.Logger, cfg config.GeminiConfig) (*Moderator, error) {
	m := &Moderator{log: log.With("service", "Moderator")}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return m, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"flagged": {Type: genai.TypeBoolean},
		},
		Required: []string{"flagged"},
	}

	m.client = client
	m.model = model
	return m, nil
}

func (m *Moderator) Close() {
	if m.client != nil {
		m.client.Close()
	}
}

// Moderate reports whether text violates content rules.
func (m *Moderator) Moderate(ctx context.Context, text string) (bool, error) {
	const op = "moderate"
	if m.model == nil {
		return false, fmt.Errorf("%s: %w", op, domain.ErrMissingCredential)
	}

	ctx, cancel := context.WithTimeout(ctx, moderationTimeout)
	defer cancel()

	resp, err := m.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(moderationPrompt, text)))
	if err != nil {
		m.log.Warn("moderation request failed", "error", err)
		return false, fmt.Errorf("%s: %w: %v", op, domain.ErrProviderUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return false, fmt.Errorf("%s: %w: no candidates", op, domain.ErrInvalidResponseShape)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	flagged, err := parseVerdict(sb.String())
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return flagged, nil
}

// parseVerdict accepts only {"flagged": <bool>}.
func parseVerdict(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, fmt.Errorf("%w: empty moderation output", domain.ErrInvalidResponseShape)
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var v verdict
	if err := dec.Decode(&v); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrInvalidResponseShape, err)
	}
	if v.Flagged == nil {
		return false, fmt.Errorf("%w: missing flagged field", domain.ErrInvalidResponseShape)
	}
	return *v.Flagged, nil
}
