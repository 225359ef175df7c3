// Package storage contains the blob storage abstraction that decouples
// document records from file bytes. Keys are always relative
// (e.g. "documents/ABC123.pdf"); absolute paths never leave this package.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Read when no blob exists at the given key.
var ErrNotFound = errors.New("object not found")

// Default TTLs for presigned URLs issued by signed backends.
const (
	DefaultUploadTTL   = 5 * time.Minute
	DefaultDownloadTTL = 60 * time.Second
)

// Service is the capability set every backend provides.
type Service interface {
	// Save writes data under the given relative key, creating any missing
	// directory/prefix structure, and returns the key back for chaining.
	// Preventing overwrites is the caller's responsibility (Exists guard).
	Save(ctx context.Context, key string, data []byte) (string, error)

	// Read returns the blob stored at key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether a blob is present at key. Absence is not an error.
	Exists(ctx context.Context, key string) (bool, error)
}

// SignedService extends Service with the presigned-URL capabilities of object
// stores. It enables the two-phase upload path: the browser PUTs directly to
// the store, bypassing any request-body limit on the application server.
type SignedService interface {
	Service

	// SignedUploadURL returns a short-lived URL permitting a direct PUT to key.
	SignedUploadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// SignedDownloadURL returns a short-lived URL permitting a direct GET of key.
	SignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete removes the blob at key. Used for best-effort temp cleanup only;
	// permanent document blobs are never deleted.
	Delete(ctx context.Context, key string) error
}
