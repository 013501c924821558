package models

import (
	"time"
)

// Resource is a shared file (question papers, prep material, company decks).
// The bytes live in object storage; this row is the metadata.
type Resource struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	FileName    string    `json:"file_name" db:"file_name"`
	ObjectKey   string    `json:"-" db:"object_key"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	Hash        string    `json:"hash" db:"hash"`
	UploadedBy  string    `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
