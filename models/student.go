package models

import (
	"time"

	"github.com/google/uuid"
)

// Student is a student need-profile used for advocate matching
type Student struct {
	ID        uuid.UUID `json:"id"`
	ParentID  uuid.UUID `json:"parent_id"`
	Name      string    `json:"name"`
	Grade     string    `json:"grade"`
	Needs     []string  `json:"needs"`
	Languages []string  `json:"languages"`
	Timezone  string    `json:"timezone"`
	Budget    *float64  `json:"budget,omitempty"`
	Narrative string    `json:"narrative,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
