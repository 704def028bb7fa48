package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

type Moderator interface {
	Moderate(ctx context.Context, text string) (bool, error)
}

// artifacts are transcripts speech models emit for silence or noise.
var artifacts = map[string]bool{
	"blank_audio":                          true,
	"blank audio":                          true,
	"silence":                              true,
	"music":                                true,
	"applause":                             true,
	"inaudible":                            true,
	"no speech":                            true,
	"you":                                  true,
	"thank you":                            true,
	"thanks for watching":                  true,
	"thank you for watching":               true,
	"subtitles by the amara.org community": true,
}

type TranscriptionUseCase struct {
	transcriber Transcriber
	moderator   Moderator
	cfg         config.TranscriptionConfig
	log         *logger.Logger
}

func NewTranscriptionUseCase(transcriber Transcriber, moderator Moderator, cfg config.TranscriptionConfig, log *logger.Logger) *TranscriptionUseCase {
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = 2 * time.Second
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 20 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 5 << 20
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 10
	}
	return &TranscriptionUseCase{
		transcriber: transcriber,
		moderator:   moderator,
		cfg:         cfg,
		log:         log.With("service", "TranscriptionUseCase"),
	}
}

type AudioInput struct {
	Data            []byte
	ContentType     string
	DurationSeconds float64
}

type Result struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (uc *TranscriptionUseCase) MaxBytes() int64 { return uc.cfg.MaxBytes }

// Validate applies the duration and size rules. It never calls a provider.
func (uc *TranscriptionUseCase) Validate(in AudioInput) error {
	d := time.Duration(in.DurationSeconds * float64(time.Second))
	if d < uc.cfg.MinDuration || d > uc.cfg.MaxDuration {
		return domain.Validationf("audio duration %.1fs outside %s-%s", in.DurationSeconds, uc.cfg.MinDuration, uc.cfg.MaxDuration)
	}
	if len(in.Data) == 0 {
		return domain.Validationf("audio payload is empty")
	}
	if int64(len(in.Data)) > uc.cfg.MaxBytes {
		return domain.Validationf("audio payload of %d bytes exceeds %d", len(in.Data), uc.cfg.MaxBytes)
	}
	return nil
}

// Transcribe turns a short voice answer into text that is safe to store on a profile.
func (uc *TranscriptionUseCase) Transcribe(ctx context.Context, in AudioInput) (*Result, error) {
	if err := uc.Validate(in); err != nil {
		return nil, err
	}

	raw, err := uc.transcriber.Transcribe(ctx, in.Data, in.ContentType)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(raw)
	if artifacts[normalize(text)] {
		return nil, fmt.Errorf("%w: transcript %q looks like background noise", domain.ErrTranscriptionUnusable, text)
	}
	if utf8.RuneCountInString(text) < uc.cfg.MinChars {
		return nil, fmt.Errorf("%w: transcript shorter than %d characters", domain.ErrTranscriptionUnusable, uc.cfg.MinChars)
	}

	flagged, err := uc.moderator.Moderate(ctx, text)
	if err != nil {
		return nil, err
	}
	if flagged {
		uc.log.Warn("transcript rejected by moderation", "length", len(text))
		return nil, domain.ErrContentRejected
	}

	return &Result{Text: text, DurationSeconds: in.DurationSeconds}, nil
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, " \t\n.,!?;:-\"'()[]*♪")
	return strings.Join(strings.Fields(s), " ")
}
