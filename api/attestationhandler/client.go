package attestationhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ruteri/tee-contact-attestor/api"
	"github.com/ruteri/tee-contact-attestor/cryptoutils"
)

var ErrUnexpectedKey = errors.New("attested public key does not match expected key")

// AttestedKey is a public key whose binding to the enclave has been checked.
type AttestedKey struct {
	PublicKey       []byte
	SignatureScheme string
	AttestationType cryptoutils.AttestationType

	// Measurements is nil for dummy attestations.
	Measurements map[int]string
}

// GetAttestation fetches the enclave's attestation document without
// verifying it.
func GetAttestation(url string) (*api.AttestationResponse, error) {
	resp, err := http.Get(url + "/get_attestation")
	if err != nil {
		return nil, fmt.Errorf("could not request attestation: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read attestation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attestation request failed with code %d: %s", resp.StatusCode, string(body))
	}

	var attResp api.AttestationResponse
	if err := json.Unmarshal(body, &attResp); err != nil {
		return nil, fmt.Errorf("could not parse attestation response: %w", err)
	}
	return &attResp, nil
}

// VerifyAttestation checks that attResp's quote carries the report data of
// its public key. Dummy attestations are accepted only when allowDummy is set.
func VerifyAttestation(attResp *api.AttestationResponse, allowDummy bool) (*AttestedKey, error) {
	attestationType, err := cryptoutils.AttestationTypeFromString(attResp.AttestationType)
	if err != nil {
		return nil, fmt.Errorf("unknown attestation type %q: %w", attResp.AttestationType, err)
	}

	if attestationType == cryptoutils.DummyAttestation && !allowDummy {
		return nil, errors.New("refusing dummy attestation")
	}

	reportData := cryptoutils.PublicKeyReportData(attResp.SignatureScheme, attResp.PublicKey)
	measurements, err := cryptoutils.VerifyAttestation(attestationType, reportData, attResp.Attestation)
	if err != nil {
		return nil, fmt.Errorf("could not verify attestation: %w", err)
	}

	return &AttestedKey{
		PublicKey:       attResp.PublicKey,
		SignatureScheme: attResp.SignatureScheme,
		AttestationType: attestationType,
		Measurements:    measurements,
	}, nil
}
