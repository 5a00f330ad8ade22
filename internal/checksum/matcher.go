package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// FileHash returns the hex sha256 of an uploaded document. Used as the
// idempotency key for carrier files and as the scratch payload key prefix.
func FileHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Matcher verifies a document against a previously recorded hash.
type Matcher struct {
	expected string
}

func NewMatcher(expected string) *Matcher {
	return &Matcher{expected: expected}
}

func (m *Matcher) Match(data []byte) (bool, error) {
	if m.expected == "" {
		return false, errors.New("expected checksum is not set")
	}
	return FileHash(data) == m.expected, nil
}
