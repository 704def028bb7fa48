package onboarding

import (
	"strings"

	"github.com/gdugdh24/mpit2026-networking/internal/domain"
)

type StepKind string

const (
	KindFreeText    StepKind = "free_text"
	KindMultiSelect StepKind = "multi_select"
)

type StepDepth string

const (
	DepthLight StepDepth = "light"
	DepthDeep  StepDepth = "deep"
)

// Profile fields a step writes to.
const (
	FieldStrengths             = "strengths"
	FieldNeeds                 = "needs"
	FieldCurrentGoal           = "current_goal"
	FieldGoalCategories        = "goal_categories"
	FieldSharedValues          = "shared_values"
	FieldConnectionPreferences = "connection_preferences"
	FieldAvailability          = "availability"
	FieldIndustry              = "industry"
	FieldBio                   = "bio"
)

type Step struct {
	ID       string            `json:"id"`
	Field    string            `json:"field"`
	Prompt   string            `json:"prompt"`
	Kind     StepKind          `json:"kind"`
	Required bool              `json:"required"`
	Flows    []domain.FlowType `json:"flows"`
	Depth    StepDepth         `json:"depth"`
	Options  []string          `json:"options,omitempty"`
	// Keywords in earlier free-text answers that make this optional step redundant.
	Keywords []string `json:"-"`
}

func (s *Step) InFlow(flow domain.FlowType) bool {
	for _, f := range s.Flows {
		if f == flow {
			return true
		}
	}
	return false
}

// baseline is the answer length that counts as a full-depth response.
func (s *Step) baseline() int {
	if s.Depth == DepthDeep {
		return 160
	}
	return defaultBaseline
}

var (
	allFlows      = []domain.FlowType{domain.FlowEssential, domain.FlowAdaptive, domain.FlowReflective}
	standardFlows = []domain.FlowType{domain.FlowAdaptive, domain.FlowReflective}
	deepFlows     = []domain.FlowType{domain.FlowReflective}
)

// masterSteps is the full question list in the order it is asked.
var masterSteps = []Step{
	{
		ID: "strengths", Field: FieldStrengths, Kind: KindFreeText, Required: true, Flows: allFlows, Depth: DepthLight,
		Prompt: "What are you great at? List the skills people come to you for.",
	},
	{
		ID: "needs", Field: FieldNeeds, Kind: KindFreeText, Required: true, Flows: allFlows, Depth: DepthLight,
		Prompt: "What kind of help or expertise are you looking for right now?",
	},
	{
		ID: "industry", Field: FieldIndustry, Kind: KindFreeText, Flows: standardFlows, Depth: DepthLight,
		Prompt:   "Which industry do you work in?",
		Keywords: []string{"industry", "fintech", "healthcare", "saas", "e-commerce", "ecommerce", "edtech", "biotech", "gaming", "agency"},
	},
	{
		ID: "shared_values", Field: FieldSharedValues, Kind: KindMultiSelect, Flows: standardFlows, Depth: DepthLight,
		Prompt:   "Which values matter most to you in people you work with?",
		Options:  []string{"honesty", "curiosity", "craft", "speed", "impact", "generosity", "transparency"},
		Keywords: []string{"i value", "values", "i believe", "i care about"},
	},
	{
		ID: "strengths_story", Field: FieldBio, Kind: KindFreeText, Flows: deepFlows, Depth: DepthDeep,
		Prompt: "Tell us about a time your strengths made a real difference for someone.",
	},
	{
		ID: "connection_preferences", Field: FieldConnectionPreferences, Kind: KindMultiSelect, Flows: standardFlows, Depth: DepthLight,
		Prompt:  "How do you like to connect?",
		Options: []string{"coffee chat", "video call", "mentoring", "co-working", "async messages"},
	},
	{
		ID: "availability", Field: FieldAvailability, Kind: KindFreeText, Flows: standardFlows, Depth: DepthLight,
		Prompt:   "When are you usually available to meet?",
		Keywords: []string{"weekday", "weekend", "evening", "morning", "hours a week", "per week", "available"},
	},
	{
		ID: "goal_categories", Field: FieldGoalCategories, Kind: KindMultiSelect, Flows: standardFlows, Depth: DepthLight,
		Prompt:  "Which areas do your current goals fall into?",
		Options: []string{"fundraising", "hiring", "learning", "career change", "launching a product", "finding clients"},
	},
	{
		ID: "goal_story", Field: FieldBio, Kind: KindFreeText, Flows: deepFlows, Depth: DepthDeep,
		Prompt: "What would achieving your goal change for you?",
	},
	{
		ID: "current_goal", Field: FieldCurrentGoal, Kind: KindFreeText, Required: true, Flows: allFlows, Depth: DepthLight,
		Prompt: "What is the one professional goal you are focused on right now?",
	},
}

// Steps returns a copy of the master question list.
func Steps() []Step {
	out := make([]Step, len(masterSteps))
	copy(out, masterSteps)
	return out
}

func stepByID(id string) (*Step, bool) {
	for i := range masterSteps {
		if masterSteps[i].ID == id {
			return &masterSteps[i], true
		}
	}
	return nil, false
}

// Baselines maps each step to its full-depth answer length.
func Baselines() map[string]int {
	out := make(map[string]int, len(masterSteps))
	for i := range masterSteps {
		out[masterSteps[i].ID] = masterSteps[i].baseline()
	}
	return out
}

// ApplyResponses writes answers onto the profile. Later answers to the same step win.
func ApplyResponses(p *domain.Profile, responses []domain.Response) {
	answers := make(map[string]string, len(responses))
	for _, r := range responses {
		answers[r.StepID] = r.Value
	}

	var stories []string
	for i := range masterSteps {
		step := &masterSteps[i]
		value, ok := answers[step.ID]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch step.Field {
		case FieldStrengths:
			p.Strengths = splitList(value)
		case FieldNeeds:
			p.Needs = splitList(value)
		case FieldGoalCategories:
			p.GoalCategories = splitList(value)
		case FieldSharedValues:
			p.SharedValues = splitList(value)
		case FieldConnectionPreferences:
			p.ConnectionPreferences = splitList(value)
		case FieldCurrentGoal:
			p.CurrentGoal = value
		case FieldIndustry:
			p.Industry = value
		case FieldAvailability:
			p.Availability = value
		case FieldBio:
			if value != "" {
				stories = append(stories, value)
			}
		}
	}
	if len(stories) > 0 {
		p.Bio = strings.Join(stories, "\n\n")
	}
}

func fieldFilled(p *domain.Profile, field string) bool {
	if p == nil {
		return false
	}
	switch field {
	case FieldStrengths:
		return p.SourceText(domain.FieldStrengths) != ""
	case FieldNeeds:
		return p.SourceText(domain.FieldNeeds) != ""
	case FieldCurrentGoal:
		return p.SourceText(domain.FieldGoals) != ""
	case FieldSharedValues:
		return p.SourceText(domain.FieldValues) != ""
	case FieldGoalCategories:
		return len(splitList(strings.Join(p.GoalCategories, ","))) > 0
	case FieldConnectionPreferences:
		return len(splitList(strings.Join(p.ConnectionPreferences, ","))) > 0
	case FieldIndustry:
		return strings.TrimSpace(p.Industry) != ""
	case FieldAvailability:
		return strings.TrimSpace(p.Availability) != ""
	default:
		return false
	}
}

func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
