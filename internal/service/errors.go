package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the caller. Handlers map kinds to HTTP
// statuses; the kind and code are stable, the message is for humans.
type Kind string

const (
	KindValidation    Kind = "validation"     // client's fault, never retried automatically
	KindConflict      Kind = "conflict"       // duplicate code or overwrite attempt; retry with fresh inputs
	KindNotFound      Kind = "not_found"      // unknown doc_code or missing blob
	KindDataIntegrity Kind = "data_integrity" // record exists but blob is gone; store desync
	KindUnavailable   Kind = "unavailable"    // object store or remote SQL unreachable; retry with backoff
	KindInternal      Kind = "internal"       // unexpected
)

// Stable machine-checkable error codes carried in responses.
const (
	CodeFileRequired    = "FILE_REQUIRED"
	CodeEmptyFile       = "EMPTY_FILE"
	CodeInvalidMIME     = "INVALID_MIME"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeInvalidPDF      = "INVALID_PDF"
	CodeInvalidDocCode  = "INVALID_DOC_CODE"
	CodeStampFailed     = "STAMP_FAILED"
	CodeDuplicateCode   = "DUPLICATE_CODE"
	CodeStorageConflict = "STORAGE_CONFLICT"
	CodeNotFound        = "NOT_FOUND"
	CodeNotRegistered   = "NOT_REGISTERED"
	CodeUploadMissing   = "UPLOAD_MISSING"
	CodeNoStoredHash    = "NO_STORED_HASH"
	CodeAlreadyRevoked  = "ALREADY_REVOKED"
	CodeFileMissing     = "FILE_MISSING"
	CodeUnavailable     = "UPSTREAM_UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
)

// Error is the typed failure surfaced by the certification service.
// Internal details stay in Err and are never serialized to the caller.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func wrapError(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// AsError extracts a typed service error, if any.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
