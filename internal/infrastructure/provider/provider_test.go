package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/retry"
)

func noSleep(context.Context, time.Duration) error { return nil }

func embeddingConfig(url string) config.EmbeddingConfig {
	return config.EmbeddingConfig{
		BaseURL:     url,
		Model:       "test/model",
		APIKey:      "secret",
		Dimension:   3,
		Timeout:     2 * time.Second,
		MaxAttempts: 3,
	}
}

func newTestEmbeddingClient(cfg config.EmbeddingConfig, limiter RateLimiter) *EmbeddingClient {
	return NewEmbeddingClient(logger.NewNop(), cfg, limiter).
		WithRetryPolicy(retry.Policy{MaxAttempts: cfg.MaxAttempts, Sleep: noSleep})
}

type countingLimiter struct{ calls atomic.Int32 }

func (l *countingLimiter) Wait(context.Context) error {
	l.calls.Add(1)
	return nil
}

func TestEmbed_SingleRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test/model", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Python, Go", body.Inputs)
		assert.True(t, body.Options.WaitForModel)

		_, _ = w.Write([]byte(`[[0.1, 0.2, 0.3]]`))
	}))
	defer srv.Close()

	limiter := &countingLimiter{}
	client := newTestEmbeddingClient(embeddingConfig(srv.URL), limiter)

	vec, err := client.Embed(context.Background(), "Python, Go", domain.FieldStrengths)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3}, vec, 1e-6)
	assert.Equal(t, int32(1), limiter.calls.Load())
}

func TestEmbed_MeanPoolsTokenRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[1, 0, 2], [3, 2, 0]]`))
	}))
	defer srv.Close()

	vec, err := newTestEmbeddingClient(embeddingConfig(srv.URL), nil).
		Embed(context.Background(), "text", domain.FieldNeeds)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{2, 1, 1}, vec, 1e-6)
}

func TestEmbed_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[[0.5, 0.5, 0.5]]`))
	}))
	defer srv.Close()

	limiter := &countingLimiter{}
	vec, err := newTestEmbeddingClient(embeddingConfig(srv.URL), limiter).
		Embed(context.Background(), "text", domain.FieldGoals)
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(2), limiter.calls.Load())
}

func TestEmbed_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestEmbeddingClient(embeddingConfig(srv.URL), nil).
		Embed(context.Background(), "text", domain.FieldGoals)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbed_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestEmbeddingClient(embeddingConfig(srv.URL), nil).
		Embed(context.Background(), "text", domain.FieldGoals)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbed_InvalidShapes(t *testing.T) {
	cases := map[string]string{
		"flat array":  `[0.1, 0.2, 0.3]`,
		"object":      `{"embedding": [0.1, 0.2, 0.3]}`,
		"empty":       `[]`,
		"ragged rows": `[[0.1, 0.2, 0.3], [0.1]]`,
		"wrong dim":   `[[0.1, 0.2]]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			vec, err := newTestEmbeddingClient(embeddingConfig(srv.URL), nil).
				Embed(context.Background(), "text", domain.FieldValues)
			assert.Nil(t, vec)
			assert.ErrorIs(t, err, domain.ErrInvalidResponseShape)
			assert.Equal(t, int32(1), calls.Load(), "shape errors are not retried")
		})
	}
}

func TestEmbed_MissingCredentialBeforeIO(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	cfg := embeddingConfig(srv.URL)
	cfg.APIKey = "  "
	_, err := newTestEmbeddingClient(cfg, nil).Embed(context.Background(), "text", domain.FieldNeeds)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Zero(t, calls.Load())
}

func TestEmbed_TimeoutIsProviderUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := embeddingConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	_, err := newTestEmbeddingClient(cfg, nil).Embed(context.Background(), "text", domain.FieldNeeds)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func transcriptionClient(url string) *TranscriptionClient {
	cfg := config.TranscriptionConfig{URL: url, APIKey: "secret", Timeout: 2 * time.Second}
	return NewTranscriptionClient(logger.NewNop(), cfg, config.EmbeddingConfig{MaxAttempts: 3}, nil).
		WithRetryPolicy(retry.Policy{MaxAttempts: 3, Sleep: noSleep})
}

func TestTranscribe_JSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "audio/webm", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("RIFF"), body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": " I am great at Go "}`))
	}))
	defer srv.Close()

	text, err := transcriptionClient(srv.URL).Transcribe(context.Background(), []byte("RIFF"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, " I am great at Go ", text)
}

func TestTranscribe_PlainTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("hello there friend"))
	}))
	defer srv.Close()

	text, err := transcriptionClient(srv.URL).Transcribe(context.Background(), []byte{1}, "")
	require.NoError(t, err)
	assert.Equal(t, "hello there friend", text)
}

func TestTranscribe_JSONBodyWithoutContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": "hello world"}`))
	}))
	defer srv.Close()

	text, err := transcriptionClient(srv.URL).Transcribe(context.Background(), []byte{1}, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestDecodeTranscript(t *testing.T) {
	text, err := decodeTranscript([]byte(`{"text": "hello world"}`), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	_, err = decodeTranscript([]byte(` {"transcript": "x"}`), "text/plain")
	assert.ErrorIs(t, err, domain.ErrInvalidResponseShape)

	text, err = decodeTranscript([]byte("plain words"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "plain words", text)

	_, err = decodeTranscript([]byte("plain words"), "application/json")
	assert.ErrorIs(t, err, domain.ErrInvalidResponseShape)
}

func TestTranscribe_MissingTextField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transcript": "x"}`))
	}))
	defer srv.Close()

	_, err := transcriptionClient(srv.URL).Transcribe(context.Background(), []byte{1}, "audio/wav")
	assert.ErrorIs(t, err, domain.ErrInvalidResponseShape)
}

func TestTranscribe_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"text": "third time lucky"}`))
	}))
	defer srv.Close()

	text, err := transcriptionClient(srv.URL).Transcribe(context.Background(), []byte{1}, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTokenBucket_DisabledWhenRateNotPositive(t *testing.T) {
	tb := NewTokenBucket(0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, tb.Wait(context.Background()))
	}
}
