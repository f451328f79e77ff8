package contacts

import (
	"errors"
	"fmt"
)

// Kind identifies why a CSV submission was rejected.
// Callers should branch on Kind rather than on Error() strings.
type Kind string

const (
	KindMalformedRow          Kind = "MalformedRow"
	KindMissingRequiredField  Kind = "MissingRequiredField"
	KindInvalidSensitiveField Kind = "InvalidSensitiveField"
	KindBatchTooLarge         Kind = "BatchTooLarge"
	KindEmptyPayload          Kind = "EmptyPayload"
)

// ParseError is returned for every rejected submission. None of them are
// retryable: parsing is deterministic and the same input fails the same way.
type ParseError struct {
	Kind Kind

	// Row is the 1-based line number in the submitted blob, blank lines
	// included. Zero for EmptyPayload.
	Row int

	// Field names the offending column for MissingRequiredField and
	// InvalidSensitiveField ("name" or "phone").
	Field string

	// Limit is the record cap for BatchTooLarge.
	Limit int
}

func (e *ParseError) Error() string {
	var msg string
	switch e.Kind {
	case KindMalformedRow:
		msg = "each CSV row must include at least name and phone"
	case KindMissingRequiredField:
		msg = fmt.Sprintf("missing %s", e.Field)
	case KindInvalidSensitiveField:
		msg = fmt.Sprintf("%s must contain digits", e.Field)
	case KindBatchTooLarge:
		msg = fmt.Sprintf("CSV payload exceeds %d contacts", e.Limit)
	case KindEmptyPayload:
		msg = "CSV payload did not contain any rows"
	default:
		msg = "invalid CSV payload"
	}

	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	return msg
}

// IsKind reports whether err is (or wraps) a *ParseError of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *ParseError
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
