package domain

import "time"

type FlowType string

const (
	FlowReflective FlowType = "reflective"
	FlowEssential  FlowType = "essential"
	FlowAdaptive   FlowType = "adaptive"
)

// Response is one answered onboarding step.
type Response struct {
	StepID    string    `json:"step_id"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// OnboardingSession aggregates a user's in-progress onboarding answers.
type OnboardingSession struct {
	UserID          int        `json:"user_id"`
	Responses       []Response `json:"responses"`
	FlowType        FlowType   `json:"flow_type"`
	EngagementScore float64    `json:"engagement_score"`
	StartedAt       time.Time  `json:"started_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Answered returns the latest value recorded for each step.
func (s *OnboardingSession) Answered() map[string]string {
	out := make(map[string]string, len(s.Responses))
	for _, r := range s.Responses {
		out[r.StepID] = r.Value
	}
	return out
}

// EngagementMetrics is derived from response timing and depth.
type EngagementMetrics struct {
	AverageTimePerStep float64 `json:"average_time_per_step"`
	DepthScore         float64 `json:"depth_score"`
	EngagementScore    float64 `json:"engagement_score"`
	ResponseCount      int     `json:"response_count"`
}
