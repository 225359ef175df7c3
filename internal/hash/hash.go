// Package hash computes the content fingerprints stored alongside registered
// documents.
//
// The digest is always taken over the final (post-stamp) bytes. Whole-buffer
// and streaming modes exist only to bound memory on large files; for a given
// algorithm both produce the same hex string for the same input.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	stdhash "hash"
	"io"

	"lukechampine.com/blake3"
)

// Algorithm selects the digest used for file hashes. It is a deployment
// decision: one deployment must use exactly one algorithm for every
// registration and verification, or verification will spuriously fail.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// Hasher produces hex-encoded 256-bit digests with a fixed algorithm.
type Hasher struct {
	algo Algorithm
}

// New returns a Hasher for the given algorithm name.
func New(algo Algorithm) (*Hasher, error) {
	switch algo {
	case SHA256, BLAKE3:
		return &Hasher{algo: algo}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algo)
	}
}

// Algorithm returns the configured algorithm.
func (h *Hasher) Algorithm() Algorithm { return h.algo }

func (h *Hasher) newDigest() stdhash.Hash {
	if h.algo == BLAKE3 {
		return blake3.New(32, nil)
	}
	return sha256.New()
}

// SumBytes hashes a whole in-memory buffer and returns a lowercase hex string.
func (h *Hasher) SumBytes(data []byte) string {
	d := h.newDigest()
	d.Write(data)
	return hex.EncodeToString(d.Sum(nil))
}

// SumReader hashes a stream incrementally without loading it into memory.
// The result is identical to SumBytes over the same bytes.
func (h *Hasher) SumReader(r io.Reader) (string, error) {
	d := h.newDigest()
	if _, err := io.Copy(d, r); err != nil {
		return "", fmt.Errorf("hash stream: %w", err)
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}
