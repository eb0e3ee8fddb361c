package models

import (
	"time"

	"github.com/google/uuid"
)

// AdvocateProfile is an advocate capability-profile used for matching
type AdvocateProfile struct {
	ID              uuid.UUID `json:"id"`
	Tags            []string  `json:"tags"`
	Languages       []string  `json:"languages"`
	Timezone        string    `json:"timezone"`
	HourlyRate      *float64  `json:"hourly_rate,omitempty"`
	MaxCaseload     int       `json:"max_caseload"`
	Bio             string    `json:"bio,omitempty"`
	ExperienceYears int       `json:"experience_years"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
