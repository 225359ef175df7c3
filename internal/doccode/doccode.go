// Package doccode generates the public identifiers handed out for certified
// documents.
//
// Format: 12 uppercase alphanumeric characters (e.g. "A3F9KX2BQW1M").
//   - Not sequential: derived from crypto/rand, not timestamps or counters.
//   - URL-safe, no visually ambiguous characters (I, O, 0, 1 excluded).
//   - 32^12 ≈ 1.2×10^18 values, so collisions are negligible; the registry's
//     unique constraint is the backstop, not a retry loop.
package doccode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Charset deliberately omits I, O, 0 and 1.
const Charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the fixed size of every generated code.
const Length = 12

// Generate returns a new random document code.
func Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	// 256 % 32 == 0, so byte-mod stays uniform over the charset.
	out := make([]byte, Length)
	for i, b := range buf {
		out[i] = Charset[int(b)%len(Charset)]
	}
	return string(out), nil
}

// Valid reports whether s has the exact shape of a generated code.
// Lookups are exact-match; this only guards against garbage input upfront.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(Charset, r) {
			return false
		}
	}
	return true
}
