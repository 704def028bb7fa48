package domain

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackOutcome string

const (
	OutcomeCollaboration FeedbackOutcome = "collaboration"
	OutcomeInsight       FeedbackOutcome = "insight"
	OutcomeGoodChat      FeedbackOutcome = "good_chat"
	OutcomeDidntClick    FeedbackOutcome = "didnt_click"
	OutcomeNoResponse    FeedbackOutcome = "no_response"
)

func ParseFeedbackOutcome(s string) (FeedbackOutcome, error) {
	switch FeedbackOutcome(s) {
	case OutcomeCollaboration, OutcomeInsight, OutcomeGoodChat, OutcomeDidntClick, OutcomeNoResponse:
		return FeedbackOutcome(s), nil
	default:
		return "", Validationf("unknown feedback outcome %q", s)
	}
}

// IsPositive reports whether the outcome counts as a successful connection.
func (o FeedbackOutcome) IsPositive() bool {
	switch o {
	case OutcomeCollaboration, OutcomeInsight, OutcomeGoodChat:
		return true
	default:
		return false
	}
}

type Feedback struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	MatchID   uuid.UUID       `json:"match_id" db:"match_id"`
	UserID    int             `json:"user_id" db:"user_id"`
	Rating    int             `json:"rating" db:"rating"`
	Outcome   FeedbackOutcome `json:"outcome" db:"outcome"`
	Text      *string         `json:"text,omitempty" db:"text"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// FeedbackSummary aggregates feedback per match type for weight tuning.
type FeedbackSummary struct {
	MatchType     MatchType `json:"match_type" db:"match_type"`
	Count         int       `json:"count" db:"count"`
	AverageRating float64   `json:"average_rating" db:"average_rating"`
	PositiveRatio float64   `json:"positive_ratio" db:"positive_ratio"`
}
