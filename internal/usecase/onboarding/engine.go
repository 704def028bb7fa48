package onboarding

import (
	"strings"
	"time"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

// Thresholds drive flow classification.
type Thresholds struct {
	TimeBudget      time.Duration
	EssentialBelow  float64
	ReflectiveAbove float64
	RushedBelow     time.Duration
	ThoughtfulAbove time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		TimeBudget:      10 * time.Minute,
		EssentialBelow:  0.35,
		ReflectiveAbove: 0.65,
		RushedBelow:     5 * time.Second,
		ThoughtfulAbove: 20 * time.Second,
	}
}

func ThresholdsFromConfig(cfg config.OnboardingConfig) Thresholds {
	t := Thresholds{
		TimeBudget:      cfg.TimeBudget,
		EssentialBelow:  cfg.EssentialBelow,
		ReflectiveAbove: cfg.ReflectiveAbove,
		RushedBelow:     cfg.RushedBelow,
		ThoughtfulAbove: cfg.ThoughtfulAbove,
	}
	d := DefaultThresholds()
	if t.TimeBudget <= 0 {
		t.TimeBudget = d.TimeBudget
	}
	if t.ReflectiveAbove <= 0 {
		t.ReflectiveAbove = d.ReflectiveAbove
	}
	return t
}

// Session is everything NextStep looks at.
type Session struct {
	Profile   *domain.Profile
	Responses []domain.Response
	// ElapsedSeconds overrides the span between first and last response when positive.
	ElapsedSeconds float64
}

type Decision struct {
	Step       *Step                    `json:"step"`
	FlowType   domain.FlowType          `json:"flow_type"`
	Engagement domain.EngagementMetrics `json:"engagement_metrics"`
	Completed  bool                     `json:"completed"`
}

type Engine struct {
	t         Thresholds
	baselines map[string]int
}

func NewEngine(t Thresholds) *Engine {
	return &Engine{t: t, baselines: Baselines()}
}

// NextStep picks the next question. It depends only on its input.
func (e *Engine) NextStep(s Session) Decision {
	metrics := Analyze(s.Responses, e.baselines)
	d := Decision{
		FlowType:   e.Classify(metrics, e.elapsed(s)),
		Engagement: metrics,
	}

	profile := s.Profile
	if profile == nil {
		profile = &domain.Profile{}
	}
	if profile.HasRequiredFields() {
		d.Completed = true
		return d
	}

	answered := make(map[string]bool, len(s.Responses))
	var freeText []string
	for _, r := range sortByTime(s.Responses) {
		if strings.TrimSpace(r.Value) == "" {
			continue
		}
		answered[r.StepID] = true
		if step, ok := stepByID(r.StepID); ok && step.Kind == KindFreeText {
			freeText = append(freeText, strings.ToLower(r.Value))
		}
	}

	for i := range masterSteps {
		step := &masterSteps[i]
		if !step.InFlow(d.FlowType) || e.isAnswered(step, profile, answered) {
			continue
		}
		if !step.Required && mentionsAny(freeText, step.Keywords) {
			continue
		}
		d.Step = cloneStep(step)
		return d
	}

	for i := range masterSteps {
		step := &masterSteps[i]
		if step.Required && !fieldFilled(profile, step.Field) {
			d.Step = cloneStep(step)
			return d
		}
	}
	return d
}

// Classify maps engagement metrics and elapsed time to a flow.
func (e *Engine) Classify(m domain.EngagementMetrics, elapsed time.Duration) domain.FlowType {
	if m.ResponseCount < 2 {
		return domain.FlowAdaptive
	}
	avg := time.Duration(m.AverageTimePerStep * float64(time.Second))
	switch {
	case elapsed > e.t.TimeBudget, m.EngagementScore < e.t.EssentialBelow, avg < e.t.RushedBelow:
		return domain.FlowEssential
	case m.EngagementScore >= e.t.ReflectiveAbove && avg >= e.t.ThoughtfulAbove:
		return domain.FlowReflective
	default:
		return domain.FlowAdaptive
	}
}

func (e *Engine) elapsed(s Session) time.Duration {
	if s.ElapsedSeconds > 0 {
		return time.Duration(s.ElapsedSeconds * float64(time.Second))
	}
	if len(s.Responses) < 2 {
		return 0
	}
	sorted := sortByTime(s.Responses)
	return sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp)
}

func (e *Engine) isAnswered(step *Step, p *domain.Profile, answered map[string]bool) bool {
	if step.Required {
		return fieldFilled(p, step.Field)
	}
	return answered[step.ID] || fieldFilled(p, step.Field)
}

func mentionsAny(texts []string, keywords []string) bool {
	for _, t := range texts {
		for _, k := range keywords {
			if strings.Contains(t, k) {
				return true
			}
		}
	}
	return false
}

func cloneStep(s *Step) *Step {
	c := *s
	return &c
}
