package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a persisted message for one user, usually tied to a
// proposal transition
type Notification struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	ProposalID *uuid.UUID `json:"proposal_id,omitempty"`
	Read       bool       `json:"read"`
	CreatedAt  time.Time  `json:"created_at"`
}
