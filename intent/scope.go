package intent

import (
	"fmt"
)

// Scope binds a signature to one kind of operation. It is the first byte of
// every signed message, so a signature produced for one scope never verifies
// as another.
type Scope uint8

const (
	// ScopeProcessData covers a parsed contact batch.
	ScopeProcessData Scope = 0

	// ScopePhoneDigest covers a single phone digest lookup.
	ScopePhoneDigest Scope = 1
)

func (s Scope) String() string {
	switch s {
	case ScopeProcessData:
		return "process_data"
	case ScopePhoneDigest:
		return "phone_digest"
	default:
		return fmt.Sprintf("scope(%d)", uint8(s))
	}
}

func ParseScope(str string) (Scope, error) {
	switch str {
	case "process_data":
		return ScopeProcessData, nil
	case "phone_digest":
		return ScopePhoneDigest, nil
	default:
		return 0, fmt.Errorf("unknown scope %q", str)
	}
}

func (s Scope) MarshalText() ([]byte, error) {
	if _, err := ParseScope(s.String()); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

func (s *Scope) UnmarshalText(text []byte) error {
	parsed, err := ParseScope(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
