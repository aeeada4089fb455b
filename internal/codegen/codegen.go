// Package codegen produces candidate coupon codes. A code is derived from
// cryptographically random bytes so that codes cannot be predicted or forged;
// uniqueness against stored records is the caller's concern.
package codegen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// CodeLength is the fixed length of a coupon code.
const CodeLength = 12

// randomBytesLen is the entropy drawn per candidate (64 bits).
const randomBytesLen = 8

// codeRE matches a well-formed, already-normalized coupon code.
var codeRE = regexp.MustCompile(`^[A-Z0-9]{12}$`)

// Generate returns a fresh candidate code: 8 random bytes hashed with SHA-256,
// hex-encoded, truncated to 12 characters, uppercased. The only error case is
// a failing system random source.
func Generate() (string, error) {
	buf := make([]byte, randomBytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("codegen: read random bytes: %w", err)
	}
	sum := sha256.Sum256(buf)
	return strings.ToUpper(hex.EncodeToString(sum[:])[:CodeLength]), nil
}

// Normalize trims surrounding whitespace and uppercases a user-supplied code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether a normalized code has the expected 12-character
// uppercase alphanumeric shape.
func Valid(code string) bool {
	return codeRE.MatchString(code)
}
