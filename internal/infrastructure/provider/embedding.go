package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/retry"
)

const maxEmbeddingBodyBytes = 8 << 20

// EmbeddingClient calls a hosted feature-extraction model.
type EmbeddingClient struct {
	log       *logger.Logger
	http      *http.Client
	baseURL   string
	model     string
	apiKey    string
	dimension int
	timeout   time.Duration
	policy    retry.Policy
	limiter   RateLimiter
}

type embeddingRequest struct {
	Inputs  string           `json:"inputs"`
	Options embeddingOptions `json:"options"`
}

type embeddingOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// embeddingResponse is the only accepted payload: a non-empty matrix of equal-length rows.
type embeddingResponse [][]float64

func NewEmbeddingClient(log *logger.Logger, cfg config.EmbeddingConfig, limiter RateLimiter) *EmbeddingClient {
	if limiter == nil {
		limiter = noLimit{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &EmbeddingClient{
		log:       log.With("service", "EmbeddingClient"),
		http:      &http.Client{},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		dimension: cfg.Dimension,
		timeout:   timeout,
		limiter:   limiter,
		policy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseBackoff,
			MaxDelay:    cfg.MaxBackoff,
			JitterFrac:  0.2,
			Retryable:   isRetryable,
		},
	}
}

// WithRetryPolicy replaces the retry policy, mainly so tests can skip real sleeps.
func (c *EmbeddingClient) WithRetryPolicy(p retry.Policy) *EmbeddingClient {
	if p.Retryable == nil {
		p.Retryable = isRetryable
	}
	c.policy = p
	return c
}

func (c *EmbeddingClient) Model() string  { return c.model }
func (c *EmbeddingClient) Dimension() int { return c.dimension }

// Embed returns the vector for text. It never substitutes a zero vector on failure.
func (c *EmbeddingClient) Embed(ctx context.Context, text string, field domain.FieldType) ([]float32, error) {
	const op = "embed"
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrMissingCredential)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.Validationf("text for field %s is empty", field))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var vec []float32
	err := c.policy.Do(ctx, func(attempt int) error {
		v, err := c.embedOnce(ctx, text)
		if err != nil {
			c.log.Warn("embedding attempt failed", "field", field, "attempt", attempt, "error", err)
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return vec, nil
}

func (c *EmbeddingClient) embedOnce(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(embeddingRequest{Inputs: text, Options: embeddingOptions{WaitForModel: true}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxEmbeddingBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeEmbedding(payload, c.dimension)
}

// decodeEmbedding validates the matrix shape and mean-pools token rows into one vector.
func decodeEmbedding(payload []byte, dim int) ([]float32, error) {
	var rows embeddingResponse
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("%w: expected array of arrays: %v", domain.ErrInvalidResponseShape, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding matrix", domain.ErrInvalidResponseShape)
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", domain.ErrInvalidResponseShape, i, len(row), width)
		}
	}

	out := make([]float32, width)
	for j := 0; j < width; j++ {
		sum := 0.0
		for _, row := range rows {
			sum += row[j]
		}
		out[j] = float32(sum / float64(len(rows)))
	}
	if err := domain.ValidateVector(out, dim); err != nil {
		return nil, err
	}
	return out, nil
}
