package scoring

import (
	"strings"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

type overlap struct {
	complementary []string
	goals         []string
	values        []string
	industry      string
}

// fraction is the share of the four structured categories that overlap.
func (o overlap) fraction() float64 {
	n := 0
	for _, hit := range []bool{len(o.complementary) > 0, len(o.goals) > 0, len(o.values) > 0, o.industry != ""} {
		if hit {
			n++
		}
	}
	return float64(n) / 4
}

func structuredOverlap(a, b *domain.Profile) overlap {
	if a == nil || b == nil {
		return overlap{}
	}
	o := overlap{
		complementary: fuzzyIntersect(a.Needs, b.Strengths),
		goals:         fuzzyIntersect(a.GoalCategories, b.GoalCategories),
		values:        fuzzyIntersect(a.SharedValues, b.SharedValues),
	}
	if ia, ib := normalize(a.Industry), normalize(b.Industry); ia != "" && ia == ib {
		o.industry = strings.TrimSpace(a.Industry)
	}
	return o
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// fuzzyIntersect returns the items of xs that match some item of ys, in xs order.
// Two items match when they are equal after normalisation or when every token of one
// appears in the other.
func fuzzyIntersect(xs, ys []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, x := range xs {
		nx := normalize(x)
		if nx == "" || seen[nx] {
			continue
		}
		for _, y := range ys {
			if fuzzyEqual(nx, normalize(y)) {
				out = append(out, strings.TrimSpace(x))
				seen[nx] = true
				break
			}
		}
	}
	return out
}

func fuzzyEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	ta, tb := strings.Fields(a), strings.Fields(b)
	return containsAll(ta, tb) || containsAll(tb, ta)
}

func containsAll(haystack, needles []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, t := range haystack {
		set[t] = true
	}
	for _, n := range needles {
		if !set[n] {
			return false
		}
	}
	return true
}
