package contacts

import (
	"strings"
)

// MaxRecords bounds the number of records in one batch to keep enclave memory
// usage bounded. Exceeding it rejects the submission; it never truncates.
const MaxRecords = 1000

// ParseContacts validates blob and converts every data row into a
// ContactRecord. It fails on the first invalid row.
func ParseContacts(blob string) (ContactBatch, error) {
	var records []ContactRecord
	headerChecked := false

	for idx, line := range strings.Split(blob, "\n") {
		row := idx + 1
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, ",")

		if !headerChecked {
			headerChecked = true
			if looksLikeHeader(fields) {
				continue
			}
		}

		record, err := parseRow(row, fields)
		if err != nil {
			return ContactBatch{}, err
		}

		records = append(records, record)
		if len(records) > MaxRecords {
			return ContactBatch{}, &ParseError{Kind: KindBatchTooLarge, Row: row, Limit: MaxRecords}
		}
	}

	if len(records) == 0 {
		return ContactBatch{}, &ParseError{Kind: KindEmptyPayload}
	}

	return ContactBatch{Contacts: records}, nil
}

func parseRow(row int, fields []string) (ContactRecord, error) {
	if len(fields) < 2 {
		return ContactRecord{}, &ParseError{Kind: KindMalformedRow, Row: row}
	}

	name := strings.TrimSpace(fields[0])
	if name == "" {
		return ContactRecord{}, &ParseError{Kind: KindMissingRequiredField, Row: row, Field: "name"}
	}

	phoneHash, err := digestPhoneField(row, fields[1])
	if err != nil {
		return ContactRecord{}, err
	}

	var email string
	if len(fields) > 2 {
		email = strings.TrimSpace(fields[2])
	}

	return ContactRecord{
		Name:      name,
		PhoneHash: phoneHash,
		Email:     email,
		Other:     joinOverflow(fields),
	}, nil
}

// DigestPhone validates, normalizes and hashes a single raw phone number
// using the same rules as the phone column of a CSV row.
func DigestPhone(raw string) (Digest, error) {
	return digestPhoneField(0, raw)
}

func digestPhoneField(row int, raw string) (Digest, error) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return Digest{}, &ParseError{Kind: KindMissingRequiredField, Row: row, Field: "phone"}
	}

	normalized := NormalizePhone(phone)
	if normalized == "" {
		return Digest{}, &ParseError{Kind: KindInvalidSensitiveField, Row: row, Field: "phone"}
	}

	return HashPhone(normalized), nil
}

// joinOverflow keeps every non-empty column past the third.
func joinOverflow(fields []string) string {
	if len(fields) <= 3 {
		return ""
	}

	extra := make([]string, 0, len(fields)-3)
	for _, f := range fields[3:] {
		if f = strings.TrimSpace(f); f != "" {
			extra = append(extra, f)
		}
	}
	return strings.Join(extra, ",")
}

func looksLikeHeader(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	first := asciiLower(fields[0])
	return strings.Contains(first, "name") || strings.Contains(first, "contact")
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
