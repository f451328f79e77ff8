package contacts

import (
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the length of a phone digest in bytes.
const DigestSize = blake2b.Size256

// Digest is a BLAKE2b-256 fingerprint of a normalized phone number.
// It encodes to JSON as an array of byte values, matching the format clients
// of the enclave already consume.
type Digest [DigestSize]byte

// NormalizePhone keeps the ASCII digits of raw in their original order and
// drops everything else. It never fails; an input without digits yields "".
//
// Visually different inputs such as "555-1234" and "5 5 5 1 2 3 4" collapse to
// the same value. That is intended: the digest identifies a number, not a
// spelling of it.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// HashPhone returns the digest of an already normalized phone number.
func HashPhone(normalized string) Digest {
	return Digest(blake2b.Sum256([]byte(normalized)))
}
