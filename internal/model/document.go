package model

import "time"

// DocumentRecord represents a certified document in the registry.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// A record is created exactly once, never deleted, and the only mutable field
// is Revoked (one-way false -> true).
type DocumentRecord struct {
	ID         int64     `json:"id"`
	DocCode    string    `json:"doc_code"`
	FilePath   string    `json:"file_path"`
	FileHash   string    `json:"file_hash"` // hex digest of the final (post-stamp) bytes; empty only on legacy rows
	UploadedAt time.Time `json:"uploaded_at"`
	Revoked    bool      `json:"revoked"`
}

// NewDocument carries the fields the caller supplies at creation time.
// ID is assigned by the store and Revoked always starts false.
type NewDocument struct {
	DocCode    string
	FilePath   string
	FileHash   string
	UploadedAt time.Time
}
