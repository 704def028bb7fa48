package onboarding

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

const (
	defaultBaseline   = 60
	maxDepthRatio     = 1.5
	latencyCapSeconds = 40.0
	depthWeight       = 0.6
	latencyWeight     = 0.4
)

// Analyze derives engagement from answer timing and length. baselines overrides
// the expected answer length per step id.
func Analyze(responses []domain.Response, baselines map[string]int) domain.EngagementMetrics {
	m := domain.EngagementMetrics{ResponseCount: len(responses)}
	if len(responses) == 0 {
		return m
	}

	sorted := sortByTime(responses)
	if len(sorted) > 1 {
		span := sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp).Seconds()
		m.AverageTimePerStep = math.Max(span, 0) / float64(len(sorted)-1)
	}

	var depth float64
	for _, r := range sorted {
		baseline := defaultBaseline
		if b, ok := baselines[r.StepID]; ok && b > 0 {
			baseline = b
		}
		ratio := float64(utf8.RuneCountInString(strings.TrimSpace(r.Value))) / float64(baseline)
		depth += math.Min(ratio, maxDepthRatio) / maxDepthRatio
	}
	m.DepthScore = depth / float64(len(sorted))

	m.EngagementScore = depthWeight*m.DepthScore + latencyWeight*math.Min(m.AverageTimePerStep/latencyCapSeconds, 1)
	return m
}

func sortByTime(responses []domain.Response) []domain.Response {
	out := make([]domain.Response, len(responses))
	copy(out, responses)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].StepID < out[j].StepID
	})
	return out
}
