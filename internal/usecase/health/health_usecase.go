package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
	"github.com/gdugdh24/mpit2026-networking/internal/pkg/logger"
	"github.com/gdugdh24/mpit2026-networking/internal/usecase/transcription"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Embedder interface {
	Embed(ctx context.Context, text string, field domain.FieldType) ([]float32, error)
	Dimension() int
}

type Moderator interface {
	Moderate(ctx context.Context, text string) (bool, error)
}

// AudioValidator applies the transcription rules without calling a provider.
type AudioValidator interface {
	Validate(in transcription.AudioInput) error
}

const (
	ComponentDatabase      = "database"
	ComponentEmbedding     = "embedding_provider"
	ComponentModeration    = "moderation_provider"
	ComponentTranscription = "transcription_rules"
	ComponentScorer        = "scorer"
	ComponentLifecycle     = "lifecycle"
	ComponentFeedback      = "feedback_validation"
	ComponentOnboarding    = "onboarding"
)

const (
	defaultCheckTimeout     = 10 * time.Second
	defaultCheckConcurrency = 4
)

var recommendations = map[string]string{
	ComponentDatabase:      "Check DB_HOST and that Postgres accepts connections.",
	ComponentEmbedding:     "Verify EMBEDDING_API_KEY, EMBEDDING_MODEL and that EMBEDDING_DIMENSION matches the model.",
	ComponentModeration:    "Verify GEMINI_API_KEY and GEMINI_MODEL.",
	ComponentTranscription: "Review TRANSCRIPTION_MIN_DURATION and TRANSCRIPTION_MAX_DURATION.",
	ComponentScorer:        "Review MATCH_* weights; at least one must be positive.",
	ComponentLifecycle:     "Match status transitions are inconsistent; check recent changes to the lifecycle table.",
	ComponentFeedback:      "Feedback validation accepted invalid input or rejected valid input.",
	ComponentOnboarding:    "Onboarding step selection is not deterministic.",
}

type check struct {
	name      string
	needsLive bool
	run       func(ctx context.Context) error
}

type HealthUseCase struct {
	db          Pinger
	embedder    Embedder
	moderator   Moderator
	audio       AudioValidator
	fixtures    *Fixtures
	timeout     time.Duration
	concurrency int
	log         *logger.Logger
	now         func() time.Time
}

func NewHealthUseCase(
	db Pinger,
	embedder Embedder,
	moderator Moderator,
	audio AudioValidator,
	fixtures *Fixtures,
	concurrency int,
	log *logger.Logger,
) *HealthUseCase {
	if concurrency < 1 {
		concurrency = defaultCheckConcurrency
	}
	return &HealthUseCase{
		db:          db,
		embedder:    embedder,
		moderator:   moderator,
		audio:       audio,
		fixtures:    fixtures,
		timeout:     defaultCheckTimeout,
		concurrency: concurrency,
		log:         log.With("service", "HealthUseCase"),
		now:         time.Now,
	}
}

// WithTimeout sets the per-check timeout.
func (uc *HealthUseCase) WithTimeout(d time.Duration) *HealthUseCase {
	if d > 0 {
		uc.timeout = d
	}
	return uc
}

// Ping only checks the database.
func (uc *HealthUseCase) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.db.PingContext(ctx)
}

// RunFullValidation runs every component check. Quick mode skips the checks that call paid providers.
func (uc *HealthUseCase) RunFullValidation(ctx context.Context, quick bool) *domain.HealthReport {
	checks := uc.checks()
	results := make([]domain.ComponentResult, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, c := range checks {
		if quick && c.needsLive {
			results[i] = domain.ComponentResult{Component: c.name, Skipped: true}
			continue
		}
		g.Go(func() error {
			results[i] = uc.runCheck(gctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report := &domain.HealthReport{
		Components:      results,
		Recommendations: []string{},
		CheckedAt:       uc.now().UTC(),
	}
	passed, ran := 0, 0
	for _, r := range results {
		if r.Skipped {
			continue
		}
		ran++
		if r.Passed {
			passed++
			continue
		}
		report.Recommendations = append(report.Recommendations, fmt.Sprintf("%s: %s", r.Component, recommendations[r.Component]))
	}
	report.Overall = overall(passed, ran)

	uc.log.Info("health validation finished", "overall", report.Overall, "passed", passed, "ran", ran, "quick", quick)
	return report
}

func overall(passed, ran int) domain.HealthStatus {
	switch {
	case passed == ran:
		return domain.HealthHealthy
	case passed*2 > ran:
		return domain.HealthDegraded
	default:
		return domain.HealthCritical
	}
}

func (uc *HealthUseCase) runCheck(ctx context.Context, c check) domain.ComponentResult {
	res := domain.ComponentResult{Component: c.name}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				uc.log.Error("health check panicked", "component", c.name, "panic", r)
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- c.run(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("timed out after %s", uc.timeout)
	}
	res.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		uc.log.Warn("health check failed", "component", c.name, "error", err)
		return res
	}
	res.Passed = true
	return res
}

func (uc *HealthUseCase) checks() []check {
	return []check{
		{name: ComponentDatabase, run: uc.checkDatabase},
		{name: ComponentEmbedding, needsLive: true, run: uc.checkEmbedding},
		{name: ComponentModeration, needsLive: true, run: uc.checkModeration},
		{name: ComponentTranscription, run: uc.checkTranscription},
		{name: ComponentScorer, run: uc.fixtures.checkScorer},
		{name: ComponentLifecycle, run: uc.fixtures.checkLifecycle},
		{name: ComponentFeedback, run: uc.fixtures.checkFeedback},
		{name: ComponentOnboarding, run: uc.fixtures.checkOnboarding},
	}
}

func (uc *HealthUseCase) checkDatabase(ctx context.Context) error {
	if uc.db == nil {
		return errors.New("database not configured")
	}
	return uc.db.PingContext(ctx)
}

func (uc *HealthUseCase) checkEmbedding(ctx context.Context) error {
	vec, err := uc.embedder.Embed(ctx, "I mentor junior backend engineers", domain.FieldStrengths)
	if err != nil {
		return err
	}
	return domain.ValidateVector(vec, uc.embedder.Dimension())
}

func (uc *HealthUseCase) checkModeration(ctx context.Context) error {
	flagged, err := uc.moderator.Moderate(ctx, "I would love to learn more about product design.")
	if err != nil {
		return err
	}
	if flagged {
		return errors.New("benign fixture was flagged")
	}
	return nil
}

func (uc *HealthUseCase) checkTranscription(_ context.Context) error {
	clip := transcription.AudioInput{Data: make([]byte, 1024), ContentType: "audio/wav", DurationSeconds: 25}
	if err := uc.audio.Validate(clip); !errors.Is(err, domain.ErrValidation) {
		return fmt.Errorf("25s clip was not rejected: %v", err)
	}
	clip.DurationSeconds = 8
	if err := uc.audio.Validate(clip); err != nil {
		return fmt.Errorf("8s clip was rejected: %w", err)
	}
	return nil
}
