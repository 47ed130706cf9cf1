package shape

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainShape is the domain prefix for content-addressed shape identity.
// Version suffix enables future encoding migration.
const DomainShape = "reshape/shape/v1"

// Hash computes the content-addressed identity of a shape:
// SHA256(domain + 0x00 + canonical JSON), hex encoded.
// The null byte separator prevents domain/data boundary ambiguity.
//
// Two shapes hash equal exactly when they are structurally equal finite
// shapes. Cyclic shapes return an error (no canonical form).
func Hash(s Shape) (string, error) {
	canonical, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("Hash: failed to marshal: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(DomainShape))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when the shape is known to be finite.
func MustHash(s Shape) string {
	id, err := Hash(s)
	if err != nil {
		panic(err)
	}
	return id
}
