package api

import (
	"github.com/ruteri/tee-contact-attestor/interfaces"
)

// CsvRequest carries the raw CSV blob. It is never logged or persisted.
type CsvRequest struct {
	CSV string `json:"csv"`
}

// ProcessDataRequest is the body of POST /process_data.
type ProcessDataRequest struct {
	Payload CsvRequest `json:"payload"`
}

// ErrorResponse is returned for every non-2xx answer from the enclave API.
type ErrorResponse struct {
	Error string `json:"error"`

	// Kind is the parse error kind for rejected CSV input, "internal" otherwise.
	Kind string `json:"kind,omitempty"`

	// Row is the 1-based line of the offending CSV row, when there is one.
	Row int `json:"row,omitempty"`
}

// AttestationResponse binds the enclave's ephemeral public key to a quote.
// The quote's report data is cryptoutils.PublicKeyReportData(SignatureScheme, PublicKey).
type AttestationResponse struct {
	Attestation     interfaces.HexBytes `json:"attestation"`
	AttestationType string              `json:"attestation_type"`
	PublicKey       interfaces.HexBytes `json:"public_key"`
	SignatureScheme string              `json:"signature_scheme"`
}

// HealthResponse is returned by GET /health_check.
type HealthResponse struct {
	Status          string              `json:"status"`
	PublicKey       interfaces.HexBytes `json:"public_key"`
	SignatureScheme string              `json:"signature_scheme"`
	Version         string              `json:"version"`
}
