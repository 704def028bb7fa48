package domain

import (
	"strings"
	"time"
)

type User struct {
	ID                  int       `json:"id" db:"id"`
	OnboardingCompleted bool      `json:"onboarding_completed" db:"onboarding_completed"`
	IsActive            bool      `json:"is_active" db:"is_active"`
	IsAdmin             bool      `json:"is_admin" db:"is_admin"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

type Profile struct {
	ID                    int       `json:"id" db:"id"`
	UserID                int       `json:"user_id" db:"user_id"`
	Strengths             []string  `json:"strengths" db:"strengths"`
	Needs                 []string  `json:"needs" db:"needs"`
	CurrentGoal           string    `json:"current_goal" db:"current_goal"`
	GoalCategories        []string  `json:"goal_categories" db:"goal_categories"`
	SharedValues          []string  `json:"shared_values" db:"shared_values"`
	ConnectionPreferences []string  `json:"connection_preferences" db:"connection_preferences"`
	Availability          string    `json:"availability" db:"availability"`
	Industry              string    `json:"industry" db:"industry"`
	Bio                   string    `json:"bio" db:"bio"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// SourceText returns the exact text an embedding of the given field is derived from.
func (p *Profile) SourceText(field FieldType) string {
	if p == nil {
		return ""
	}
	switch field {
	case FieldStrengths:
		return joinList(p.Strengths)
	case FieldNeeds:
		return joinList(p.Needs)
	case FieldGoals:
		return strings.TrimSpace(p.CurrentGoal)
	case FieldValues:
		return joinList(p.SharedValues)
	default:
		return ""
	}
}

// HasRequiredFields reports whether the profile is complete enough to embed.
func (p *Profile) HasRequiredFields() bool {
	if p == nil {
		return false
	}
	return len(nonEmpty(p.Strengths)) > 0 &&
		len(nonEmpty(p.Needs)) > 0 &&
		strings.TrimSpace(p.CurrentGoal) != ""
}

func joinList(items []string) string {
	return strings.Join(nonEmpty(items), ", ")
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
