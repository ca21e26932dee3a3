// Package signing derives a certificate's public hash and its tamper-check
// signature.
//
// The signature is sha256 over a plain concatenation that ends with the
// server secret. It is not an HMAC and must stay byte-compatible with
// certificates already issued, so do not swap the construction without a
// migration for existing rows.
package signing

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HashLen is the length of the public certificate hash.
const HashLen = 16

// Hash is upper(hex(sha256(learner ‖ subject ‖ issue millis)))[:16].
func Hash(learnerID, subjectID uuid.UUID, issuedAt time.Time) string {
	sum := sha256.Sum256([]byte(learnerID.String() + subjectID.String() + strconv.FormatInt(issuedAt.UnixMilli(), 10)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:HashLen]
}

// FormatScore renders a score the way it enters the signature ("70.0").
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}

// Signature is hex(sha256(hash ‖ learner ‖ subject ‖ score ‖ secret)).
func Signature(hash string, learnerID, subjectID uuid.UUID, score float64, secret string) string {
	var b strings.Builder
	b.WriteString(hash)
	b.WriteString(learnerID.String())
	b.WriteString(subjectID.String())
	b.WriteString(FormatScore(score))
	b.WriteString(secret)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature from the stored fields and compares in
// constant time.
func Verify(stored, hash string, learnerID, subjectID uuid.UUID, score float64, secret string) bool {
	want := Signature(hash, learnerID, subjectID, score, secret)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(strings.TrimSpace(stored)))) == 1
}

// NormalizeHash trims and upper-cases a caller-supplied hash.
func NormalizeHash(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidHash reports whether h looks like an issued hash (16 upper hex chars).
func ValidHash(h string) bool {
	if len(h) != HashLen {
		return false
	}
	for _, c := range h {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
