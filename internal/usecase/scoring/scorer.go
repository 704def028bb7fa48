// Package scoring computes pairwise compatibility between two profiles.
// Everything here is pure: no I/O, no clocks, no randomness.
package scoring

import (
	"math"
	"sort"

	"github.com/gdugdh24/mpit2026-networking/internal/config"
	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

// Weights tunes the scorer. Zero-valued fields fall back to DefaultWeights.
type Weights struct {
	Complementary     float64
	Goals             float64
	Values            float64
	Overlap           float64
	EvidenceThreshold float64
}

func DefaultWeights() Weights {
	return Weights{
		Complementary:     0.45,
		Goals:             0.35,
		Values:            0.20,
		Overlap:           0.15,
		EvidenceThreshold: 0.5,
	}
}

func WeightsFromConfig(cfg config.MatchingConfig) Weights {
	return Weights{
		Complementary:     cfg.ComplementaryWeight,
		Goals:             cfg.GoalsWeight,
		Values:            cfg.ValuesWeight,
		Overlap:           cfg.OverlapWeight,
		EvidenceThreshold: cfg.EvidenceThreshold,
	}
}

// Candidate is one side of a pairwise comparison.
type Candidate struct {
	UserID     int
	Profile    *domain.Profile
	Embeddings domain.EmbeddingSet
}

// Signals are the raw similarities behind a score. A negative value means the signal was unavailable.
type Signals struct {
	Complementary float64 `json:"complementary"`
	Goals         float64 `json:"goals"`
	Values        float64 `json:"values"`
	Embedding     float64 `json:"embedding"`
	Overlap       float64 `json:"overlap"`
}

type Result struct {
	Score       float64          `json:"score"`
	MatchType   domain.MatchType `json:"match_type"`
	Evidence    domain.Evidence  `json:"evidence"`
	Explanation string           `json:"explanation"`
	Signals     Signals          `json:"signals"`
}

// Ranked is a scored candidate for a requester.
type Ranked struct {
	UserID int `json:"user_id"`
	Result
}

type Scorer struct {
	w Weights
}

func NewScorer(w Weights) *Scorer {
	if w.Complementary+w.Goals+w.Values <= 0 {
		d := DefaultWeights()
		w.Complementary, w.Goals, w.Values = d.Complementary, d.Goals, d.Values
	}
	if w.EvidenceThreshold <= 0 {
		w.EvidenceThreshold = DefaultWeights().EvidenceThreshold
	}
	w.Overlap = clamp01(w.Overlap)
	return &Scorer{w: w}
}

func (s *Scorer) Weights() Weights { return s.w }

type signal struct {
	matchType domain.MatchType
	weight    float64
	value     float64
	ok        bool
}

// Score rates how useful b is to a. Complementarity is directional (a's needs against b's
// strengths); goal and value alignment are symmetric.
func (s *Scorer) Score(a, b Candidate) Result {
	signals := []signal{
		s.similarity(domain.MatchTypeNeedStrength, s.w.Complementary, a.Embeddings.Vector(domain.FieldNeeds), b.Embeddings.Vector(domain.FieldStrengths)),
		s.similarity(domain.MatchTypeGoalAlignment, s.w.Goals, a.Embeddings.Vector(domain.FieldGoals), b.Embeddings.Vector(domain.FieldGoals)),
		s.similarity(domain.MatchTypeValuesAlignment, s.w.Values, a.Embeddings.Vector(domain.FieldValues), b.Embeddings.Vector(domain.FieldValues)),
	}

	var weighted, totalWeight float64
	for _, sig := range signals {
		if sig.ok {
			weighted += sig.weight * sig.value
			totalWeight += sig.weight
		}
	}

	ov := structuredOverlap(a.Profile, b.Profile)
	evidence := domain.Evidence{
		ComplementaryMatches: len(ov.complementary) > 0 || s.above(signals[0]),
		SharedGoals:          len(ov.goals) > 0 || s.above(signals[1]),
		AlignedValues:        len(ov.values) > 0 || s.above(signals[2]),
		IndustryOverlap:      ov.industry != "",
	}

	res := Result{
		Evidence: evidence,
		Signals: Signals{
			Complementary: signalValue(signals[0]),
			Goals:         signalValue(signals[1]),
			Values:        signalValue(signals[2]),
			Embedding:     -1,
			Overlap:       ov.fraction(),
		},
	}

	if totalWeight > 0 {
		emb := weighted / totalWeight
		res.Signals.Embedding = emb
		res.Score = clamp01((1-s.w.Overlap)*emb + s.w.Overlap*ov.fraction())
	}
	res.MatchType = dominantType(signals, evidence)
	res.Explanation = explain(evidence, ov)
	return res
}

func (s *Scorer) similarity(t domain.MatchType, weight float64, x, y []float32) signal {
	sig := signal{matchType: t, weight: weight}
	if weight <= 0 || len(x) == 0 || len(x) != len(y) {
		return sig
	}
	c, ok := cosine(x, y)
	if !ok {
		return sig
	}
	sig.value = clamp01(c)
	sig.ok = true
	return sig
}

func (s *Scorer) above(sig signal) bool {
	return sig.ok && sig.value >= s.w.EvidenceThreshold
}

func signalValue(sig signal) float64 {
	if !sig.ok {
		return -1
	}
	return sig.value
}

// dominantType picks the signal with the largest weighted contribution.
// Signals are ordered need_strength, goal, values, so ties keep the earlier one.
func dominantType(signals []signal, ev domain.Evidence) domain.MatchType {
	best := -1.0
	var bestType domain.MatchType
	for _, sig := range signals {
		if !sig.ok {
			continue
		}
		if c := sig.weight * sig.value; c > best {
			best = c
			bestType = sig.matchType
		}
	}
	if bestType != "" {
		return bestType
	}
	switch {
	case ev.SharedGoals && !ev.ComplementaryMatches:
		return domain.MatchTypeGoalAlignment
	case ev.AlignedValues && !ev.ComplementaryMatches:
		return domain.MatchTypeValuesAlignment
	default:
		return domain.MatchTypeNeedStrength
	}
}

func cosine(x, y []float32) (float64, bool) {
	var dot, nx, ny float64
	for i := range x {
		a, b := float64(x[i]), float64(y[i])
		dot += a * b
		nx += a * a
		ny += b * b
	}
	if nx == 0 || ny == 0 {
		return 0, false
	}
	c := dot / (math.Sqrt(nx) * math.Sqrt(ny))
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0, false
	}
	return c, true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Rank keeps positive scores, orders them best first (lower user id wins ties) and truncates to limit.
func Rank(results []Ranked, limit int) []Ranked {
	out := make([]Ranked, 0, len(results))
	for _, r := range results {
		if r.Score > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
