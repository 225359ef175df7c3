package registry

import (
	"context"
	"errors"

	"sigillum/internal/model"
)

// Package registry contains the durable metadata store for certified
// documents. Implementations live in subpackages (sqlite, postgres) and share
// one contract; no business logic here, strictly persistence operations.

var (
	// ErrDuplicateCode is returned by Create when doc_code already exists.
	// It is propagated from the store's unique constraint, never inferred
	// in-process, so concurrent registrations across server processes
	// cannot race past it.
	ErrDuplicateCode = errors.New("doc_code already exists")

	// ErrNotFound is returned by GetByCode when no record matches.
	ErrNotFound = errors.New("document not found")
)

// DocumentRegistry defines data access for document records.
type DocumentRegistry interface {
	// Create inserts a new record and returns it fully populated with the
	// store-assigned id and revoked=false.
	Create(ctx context.Context, doc model.NewDocument) (*model.DocumentRecord, error)

	// GetByCode returns the record with the exact doc_code, or ErrNotFound.
	// No partial matching or case folding beyond generation-time normalization.
	GetByCode(ctx context.Context, docCode string) (*model.DocumentRecord, error)

	// List returns all records, newest uploaded_at first.
	List(ctx context.Context) ([]model.DocumentRecord, error)

	// Revoke sets revoked=true and reports whether a row actually changed
	// (false when the code is unknown or the record was already revoked).
	Revoke(ctx context.Context, docCode string) (bool, error)
}
