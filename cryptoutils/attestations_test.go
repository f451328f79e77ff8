package cryptoutils

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKeyReportData(t *testing.T) {
	pub := []byte{1, 2, 3}

	rd := PublicKeyReportData("ed25519", pub)
	assert.Equal(t, rd, PublicKeyReportData("ed25519", pub))
	assert.NotEqual(t, rd, PublicKeyReportData("secp256k1", pub))
	assert.NotEqual(t, rd, PublicKeyReportData("ed25519", []byte{1, 2, 4}))
	assert.Equal(t, make([]byte, 32), rd[32:])
}

func TestDummyAttestation_RoundTrip(t *testing.T) {
	rd := PublicKeyReportData("ed25519", []byte("pubkey"))

	quote, err := DummyAttestationProvider{}.Attest(rd)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(quote), "pseudo-attestation "))

	measurements, err := VerifyAttestation(DummyAttestation, rd, quote)
	require.NoError(t, err)
	assert.Nil(t, measurements)

	other := PublicKeyReportData("ed25519", []byte("other"))
	_, err = VerifyAttestation(DummyAttestation, other, quote)
	assert.Error(t, err)
}

func TestRemoteAttestationProvider(t *testing.T) {
	rd := PublicKeyReportData("ed25519", []byte("pubkey"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/attest/") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("quote:" + strings.TrimPrefix(r.URL.Path, "/attest/")))
	}))
	defer srv.Close()

	p := &RemoteAttestationProvider{Address: srv.URL}
	assert.Equal(t, DCAPAttestation, p.AttestationType())

	quote, err := p.Attest(rd)
	require.NoError(t, err)
	assert.Equal(t, "quote:"+hex.EncodeToString(rd[:]), string(quote))
}

func TestRemoteAttestationProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no tdx", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := (&RemoteAttestationProvider{Address: srv.URL}).Attest([64]byte{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestAttestationTypeFromString(t *testing.T) {
	at, err := AttestationTypeFromString("dcap")
	require.NoError(t, err)
	assert.Equal(t, DCAPAttestation, at)

	_, err = AttestationTypeFromString("sev")
	assert.Error(t, err)
}

func TestVerifyDCAPAttestation_RejectsGarbage(t *testing.T) {
	_, err := VerifyDCAPAttestation([64]byte{}, []byte("not a quote"))
	assert.Error(t, err)
}
