package domain

import "time"

type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthCritical HealthStatus = "critical"
)

type ComponentResult struct {
	Component string `json:"component"`
	Passed    bool   `json:"passed"`
	Skipped   bool   `json:"skipped,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type HealthReport struct {
	Overall         HealthStatus      `json:"overall"`
	Components      []ComponentResult `json:"components"`
	Recommendations []string          `json:"recommendations"`
	CheckedAt       time.Time         `json:"checked_at"`
}
