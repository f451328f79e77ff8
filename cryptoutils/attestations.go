package cryptoutils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	tdx_abi "github.com/google/go-tdx-guest/abi"
	tdx_client "github.com/google/go-tdx-guest/client"
	tdx_pb "github.com/google/go-tdx-guest/proto/tdx"
	"github.com/google/go-tdx-guest/verify"
)

var (
	DCAPAttestation = AttestationType{
		StringID: "dcap",
	}

	DummyAttestation = AttestationType{
		StringID: "dummy",
	}
)

type AttestationType struct {
	StringID string
}

func (t AttestationType) String() string { return t.StringID }

func AttestationTypeFromString(str string) (AttestationType, error) {
	switch str {
	case DCAPAttestation.StringID:
		return DCAPAttestation, nil
	case DummyAttestation.StringID:
		return DummyAttestation, nil
	default:
		return AttestationType{}, errors.ErrUnsupported
	}
}

// AttestationProvider produces a hardware-rooted quote over 64 bytes of
// caller-chosen report data.
type AttestationProvider interface {
	AttestationType() AttestationType
	Attest(reportData [64]byte) ([]byte, error)
}

// PublicKeyReportData binds an enclave signing key into a quote:
// sha256(scheme || 0x00 || pubkey) in the first 32 bytes, zeros after.
// The scheme is included so a key cannot be reinterpreted under another algorithm.
func PublicKeyReportData(scheme string, pubkey []byte) [64]byte {
	h := sha256.New()
	h.Write([]byte(scheme))
	h.Write([]byte{0})
	h.Write(pubkey)

	var reportData [64]byte
	copy(reportData[:], h.Sum(nil))
	return reportData
}

// RemoteAttestationProvider asks a quote service (e.g. a dstack or
// configfs-tsm sidecar) for a DCAP quote over HTTP.
type RemoteAttestationProvider struct {
	Address string
}

func (*RemoteAttestationProvider) AttestationType() AttestationType { return DCAPAttestation }

func (p *RemoteAttestationProvider) Attest(reportData [64]byte) ([]byte, error) {
	extraDataHex := hex.EncodeToString(reportData[:])

	url := fmt.Sprintf("%s/attest/%s", p.Address, extraDataHex)
	resp, err := http.DefaultClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("calling remote quote provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("remote quote provider returned status %d: %s", resp.StatusCode, string(body))
	}

	rawQuote, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading quote from response: %w", err)
	}
	return rawQuote, nil
}

// DCAPAttestationProvider requests a TDX quote from the local guest, through
// configfs-tsm when available and the legacy device otherwise.
type DCAPAttestationProvider struct{}

func (DCAPAttestationProvider) AttestationType() AttestationType { return DCAPAttestation }

func (DCAPAttestationProvider) Attest(reportData [64]byte) ([]byte, error) {
	qp := &tdx_client.LinuxConfigFsQuoteProvider{}
	if qp.IsSupported() == nil {
		return qp.GetRawQuote(reportData)
	}

	qd, err := tdx_client.OpenDevice()
	if err != nil {
		return nil, err
	}
	defer qd.Close()

	return tdx_client.GetRawQuote(qd, reportData)
}

// DummyAttestationProvider is for running outside a TEE. Its output proves nothing.
type DummyAttestationProvider struct{}

func (DummyAttestationProvider) AttestationType() AttestationType {
	return DummyAttestation
}

func (DummyAttestationProvider) Attest(reportData [64]byte) ([]byte, error) {
	return []byte(fmt.Sprintf("pseudo-attestation %x", reportData)), nil
}

// VerifyDummyAttestation checks the dummy document matches reportData.
func VerifyDummyAttestation(reportData [64]byte, report []byte) error {
	expected, _ := DummyAttestationProvider{}.Attest(reportData)
	if !bytes.Equal(expected, report) {
		return errors.New("dummy attestation does not match report data")
	}
	return nil
}

// VerifyDCAPAttestation verifies a TDX quote against Intel collateral and
// checks it carries reportData. It returns the measurement registers keyed
// 0 (MRTD), 1-4 (RTMR0-3), 5 (MRCONFIGID), 6 (MROWNER), 7 (MROWNERCONFIG).
func VerifyDCAPAttestation(reportData [64]byte, report []byte) (map[int]string, error) {
	protoQuote, err := tdx_abi.QuoteToProto(report)
	if err != nil {
		return nil, fmt.Errorf("could not parse quote: %w", err)
	}

	v4Quote, ok := protoQuote.(*tdx_pb.QuoteV4)
	if !ok {
		return nil, fmt.Errorf("unsupported quote type: %T", protoQuote)
	}

	options := verify.DefaultOptions()
	// TODO: fetch collateral before verifying to distinguish the error better
	if err := verify.TdxQuote(protoQuote, options); err != nil {
		return nil, fmt.Errorf("quote verification failed: %w", err)
	}

	if !bytes.Equal(v4Quote.TdQuoteBody.ReportData, reportData[:]) {
		return nil, fmt.Errorf("invalid report data %x, expected %x", v4Quote.TdQuoteBody.ReportData, reportData[:])
	}

	measurements := map[int]string{
		0: hex.EncodeToString(v4Quote.TdQuoteBody.MrTd),
		1: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[0]),
		2: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[1]),
		3: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[2]),
		4: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[3]),
		5: hex.EncodeToString(v4Quote.TdQuoteBody.MrConfigId),
		6: hex.EncodeToString(v4Quote.TdQuoteBody.MrOwner),
		7: hex.EncodeToString(v4Quote.TdQuoteBody.MrOwnerConfig),
	}

	return measurements, nil
}

// VerifyAttestation dispatches on attestation type. Measurements are nil for
// the dummy type.
func VerifyAttestation(attestationType AttestationType, reportData [64]byte, report []byte) (map[int]string, error) {
	switch attestationType.StringID {
	case DCAPAttestation.StringID:
		return VerifyDCAPAttestation(reportData, report)
	case DummyAttestation.StringID:
		return nil, VerifyDummyAttestation(reportData, report)
	default:
		return nil, fmt.Errorf("unsupported attestation type: %s", attestationType)
	}
}
