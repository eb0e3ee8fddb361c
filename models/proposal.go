package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProposalStatus represents the lifecycle state of a match proposal
type ProposalStatus string

const (
	ProposalProposed       ProposalStatus = "proposed"
	ProposalIntroRequested ProposalStatus = "intro_requested"
	ProposalScheduled      ProposalStatus = "scheduled"
	ProposalAccepted       ProposalStatus = "accepted"
	ProposalDeclined       ProposalStatus = "declined"
)

// Terminal reports whether no further transitions are allowed from s
func (s ProposalStatus) Terminal() bool {
	return s == ProposalAccepted || s == ProposalDeclined
}

// ProposalReason holds free-form scoring context (score breakdown,
// extracted tags) stored alongside a proposal
type ProposalReason map[string]interface{}

// Value implements driver.Valuer for JSONB
func (p ProposalReason) Value() (driver.Value, error) {
	if p == nil {
		return json.Marshal(ProposalReason{})
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *ProposalReason) Scan(value interface{}) error {
	if value == nil {
		*p = make(ProposalReason)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*p = make(ProposalReason)
		return nil
	}

	if len(bytes) == 0 {
		*p = make(ProposalReason)
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// MatchProposal pairs a student with an advocate at a computed score
type MatchProposal struct {
	ID         uuid.UUID      `json:"id"`
	StudentID  uuid.UUID      `json:"student_id"`
	AdvocateID uuid.UUID      `json:"advocate_id"`
	Score      float64        `json:"score"`
	Status     ProposalStatus `json:"status"`
	Reason     ProposalReason `json:"reason"`
	CreatedBy  uuid.UUID      `json:"created_by"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// MatchEvent is an immutable record of one proposal transition
type MatchEvent struct {
	ID         uuid.UUID      `json:"id"`
	ProposalID uuid.UUID      `json:"proposal_id"`
	EventType  string         `json:"event_type"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Details    ProposalReason `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
