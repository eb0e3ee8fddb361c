package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded IEP document. ExtractedText is filled at upload
// time when the extraction boundary supports the MIME type; analysis
// requires it to be present.
type Document struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Filename      string    `json:"filename"`
	MimeType      string    `json:"mime_type"`
	Size          int64     `json:"size"`
	StoragePath   string    `json:"storage_path"`
	ExtractedText *string   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}
