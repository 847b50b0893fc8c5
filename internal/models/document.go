package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded file reduced to its extracted text. The text
// lives in Content and is what gets chunked and indexed; the original
// file is not retained.
type Document struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	Title          string    `json:"title" db:"title"`
	FileType       string    `json:"file_type" db:"file_type"`
	SizeBytes      int64     `json:"size_bytes" db:"size_bytes"`
	Status         string    `json:"status" db:"status"`
	Content        string    `json:"-" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

const (
	DocStatusPending    = "pending"
	DocStatusProcessing = "processing"
	DocStatusReady      = "ready"
	DocStatusFailed     = "failed"
)
