package scoring

import (
	"fmt"
	"strings"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

const genericExplanation = "Your profiles suggest this could be a useful professional connection."

// explain renders one sentence for the highest-priority evidence flag.
func explain(ev domain.Evidence, ov overlap) string {
	switch {
	case ev.ComplementaryMatches:
		if len(ov.complementary) > 0 {
			return fmt.Sprintf("They bring %s, which is exactly what you said you need.", list(ov.complementary))
		}
		return "Their strengths closely match what you are looking for."
	case ev.SharedGoals:
		if len(ov.goals) > 0 {
			return fmt.Sprintf("You are both working toward %s.", list(ov.goals))
		}
		return "You are working toward similar goals right now."
	case ev.AlignedValues:
		if len(ov.values) > 0 {
			return fmt.Sprintf("You share values such as %s.", list(ov.values))
		}
		return "You care about similar things in how you work."
	case ev.IndustryOverlap:
		return fmt.Sprintf("You both work in %s.", ov.industry)
	default:
		return genericExplanation
	}
}

func list(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
