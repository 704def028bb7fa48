package match

import "github.com/gdugdh24/mpit2026-networking/internal/domain"

// Cause is what triggered a status change.
type Cause string

const (
	CauseUserAction Cause = "user_action"
	CauseFeedback   Cause = "feedback"
	CauseExpiry     Cause = "expiry"
)

// Action is a user-facing verb accepted by the PATCH endpoint.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionSave    Action = "save"
)

func ParseAction(s string) (domain.MatchStatus, error) {
	switch Action(s) {
	case ActionAccept:
		return domain.MatchStatusAccepted, nil
	case ActionDecline:
		return domain.MatchStatusDeclined, nil
	case ActionSave:
		return domain.MatchStatusSaved, nil
	default:
		return "", domain.Validationf("unknown match action %q", s)
	}
}

// CanTransition reports whether cause may move a match from one status to another.
// Same-state requests are handled by the caller and are not listed here.
func CanTransition(from, to domain.MatchStatus, cause Cause) bool {
	switch cause {
	case CauseUserAction:
		switch from {
		case domain.MatchStatusPending:
			return to == domain.MatchStatusAccepted || to == domain.MatchStatusDeclined || to == domain.MatchStatusSaved
		case domain.MatchStatusSaved:
			return to == domain.MatchStatusAccepted || to == domain.MatchStatusDeclined
		case domain.MatchStatusAccepted, domain.MatchStatusDeclined, domain.MatchStatusCompleted, domain.MatchStatusExpired:
			return false
		}
	case CauseFeedback:
		if to != domain.MatchStatusCompleted {
			return false
		}
		switch from {
		case domain.MatchStatusPending, domain.MatchStatusAccepted, domain.MatchStatusSaved:
			return true
		case domain.MatchStatusDeclined, domain.MatchStatusCompleted, domain.MatchStatusExpired:
			return false
		}
	case CauseExpiry:
		if to != domain.MatchStatusExpired {
			return false
		}
		switch from {
		case domain.MatchStatusPending, domain.MatchStatusSaved:
			return true
		case domain.MatchStatusAccepted, domain.MatchStatusDeclined, domain.MatchStatusCompleted, domain.MatchStatusExpired:
			return false
		}
	}
	return false
}
