package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MatchType string

const (
	MatchTypeNeedStrength    MatchType = "need_strength"
	MatchTypeGoalAlignment   MatchType = "goal_alignment"
	MatchTypeValuesAlignment MatchType = "values_alignment"
)

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusAccepted  MatchStatus = "accepted"
	MatchStatusDeclined  MatchStatus = "declined"
	MatchStatusSaved     MatchStatus = "saved"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusExpired   MatchStatus = "expired"
)

func ParseMatchStatus(s string) (MatchStatus, error) {
	switch MatchStatus(s) {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusDeclined,
		MatchStatusSaved, MatchStatusCompleted, MatchStatusExpired:
		return MatchStatus(s), nil
	default:
		return "", Validationf("unknown match status %q", s)
	}
}

// IsTerminal reports whether no further status change is allowed.
func (s MatchStatus) IsTerminal() bool {
	switch s {
	case MatchStatusCompleted, MatchStatusDeclined, MatchStatusExpired:
		return true
	default:
		return false
	}
}

// Evidence holds the structured signals behind a match explanation.
type Evidence struct {
	ComplementaryMatches bool `json:"complementary_matches"`
	SharedGoals          bool `json:"shared_goals"`
	AlignedValues        bool `json:"aligned_values"`
	IndustryOverlap      bool `json:"industry_overlap"`
}

func (e Evidence) Any() bool {
	return e.ComplementaryMatches || e.SharedGoals || e.AlignedValues || e.IndustryOverlap
}

// Value stores evidence as a JSONB document.
func (e Evidence) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *Evidence) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*e = Evidence{}
		return nil
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("unsupported evidence type %T", src)
	}
}

type Match struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	UserID        int         `json:"user_id" db:"user_id"`
	MatchedUserID int         `json:"matched_user_id" db:"matched_user_id"`
	MatchType     MatchType   `json:"match_type" db:"match_type"`
	Score         float64     `json:"score" db:"score"`
	Evidence      Evidence    `json:"evidence" db:"evidence"`
	Explanation   string      `json:"explanation" db:"explanation"`
	Status        MatchStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

func (m *Match) HasUser(userID int) bool {
	return m.UserID == userID || m.MatchedUserID == userID
}

func (m *Match) GetOtherUserID(userID int) (int, bool) {
	if m.UserID == userID {
		return m.MatchedUserID, true
	}
	if m.MatchedUserID == userID {
		return m.UserID, true
	}
	return 0, false
}

type InteractionType string

const InteractionMatchAccepted InteractionType = "match_accepted"

// Interaction is an analytics record appended on lifecycle side effects.
type Interaction struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	MatchID   uuid.UUID       `json:"match_id" db:"match_id"`
	UserID    int             `json:"user_id" db:"user_id"`
	Type      InteractionType `json:"type" db:"type"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
