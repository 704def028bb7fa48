package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/retry"
)

const maxTranscriptBodyBytes = 1 << 20

// TranscriptionClient sends raw audio to a hosted speech-to-text model.
type TranscriptionClient struct {
	log     *logger.Logger
	http    *http.Client
	url     string
	apiKey  string
	timeout time.Duration
	policy  retry.Policy
	limiter RateLimiter
}

type transcriptionResponse struct {
	Text *string `json:"text"`
}

func NewTranscriptionClient(log *logger.Logger, cfg config.TranscriptionConfig, retryCfg config.EmbeddingConfig, limiter RateLimiter) *TranscriptionClient {
	if limiter == nil {
		limiter = noLimit{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TranscriptionClient{
		log:     log.With("service", "TranscriptionClient"),
		http:    &http.Client{},
		url:     strings.TrimSpace(cfg.URL),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		timeout: timeout,
		limiter: limiter,
		policy: retry.Policy{
			MaxAttempts: retryCfg.MaxAttempts,
			BaseDelay:   retryCfg.BaseBackoff,
			MaxDelay:    retryCfg.MaxBackoff,
			JitterFrac:  0.2,
			Retryable:   isRetryable,
		},
	}
}

// WithRetryPolicy replaces the retry policy, mainly so tests can skip real sleeps.
func (c *TranscriptionClient) WithRetryPolicy(p retry.Policy) *TranscriptionClient {
	if p.Retryable == nil {
		p.Retryable = isRetryable
	}
	c.policy = p
	return c
}

// Transcribe returns the raw transcript. Usability rules are applied by the caller.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	const op = "transcribe"
	if c.apiKey == "" {
		return "", fmt.Errorf("%s: %w", op, domain.ErrMissingCredential)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("%s: %w", op, domain.Validationf("audio payload is empty"))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var text string
	err := c.policy.Do(ctx, func(attempt int) error {
		t, err := c.transcribeOnce(ctx, audio, contentType)
		if err != nil {
			c.log.Warn("transcription attempt failed", "attempt", attempt, "error", err)
			return err
		}
		text = t
		return nil
	})
	if err != nil {
		return "", classify(op, err)
	}
	return text, nil
}

func (c *TranscriptionClient) transcribeOnce(ctx context.Context, audio []byte, contentType string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newStatusError(resp)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxTranscriptBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return decodeTranscript(payload, resp.Header.Get("Content-Type"))
}

// decodeTranscript accepts {"text": "..."} JSON, or a plain-text body when the provider says so.
// Object-shaped bodies are always decoded as JSON; servers that omit Content-Type get sniffed as text/plain.
func decodeTranscript(payload []byte, contentType string) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "text/plain" && !bytes.HasPrefix(bytes.TrimSpace(payload), []byte("{")) {
		return string(payload), nil
	}

	var out transcriptionResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("%w: expected object with text: %v", domain.ErrInvalidResponseShape, err)
	}
	if out.Text == nil {
		return "", fmt.Errorf("%w: missing text field", domain.ErrInvalidResponseShape)
	}
	return *out.Text, nil
}
