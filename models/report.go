package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisReport is a persisted comprehensive analysis run for a document
type AnalysisReport struct {
	ID         uuid.UUID           `json:"id"`
	DocumentID uuid.UUID           `json:"document_id"`
	Audience   string              `json:"audience"`
	Report     ComprehensiveReport `json:"report"`
	CreatedAt  time.Time           `json:"created_at"`
}
