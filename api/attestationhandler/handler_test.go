package attestationhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-contact-attestor/api"
	"github.com/ruteri/tee-contact-attestor/common"
	"github.com/ruteri/tee-contact-attestor/cryptoutils"
	"github.com/ruteri/tee-contact-attestor/kms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAttestationProvider struct {
	mock.Mock
}

func (m *MockAttestationProvider) AttestationType() cryptoutils.AttestationType {
	return m.Called().Get(0).(cryptoutils.AttestationType)
}

func (m *MockAttestationProvider) Attest(reportData [64]byte) ([]byte, error) {
	args := m.Called(reportData)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func newTestRouter(t *testing.T, attester cryptoutils.AttestationProvider) (*chi.Mux, *kms.Ed25519Key) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	key, err := kms.NewEd25519KeyFromSeed(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)

	mux := chi.NewRouter()
	NewHandler(key, attester, logger).RegisterRoutes(mux)
	return mux, key
}

func get(mux http.Handler, path string) *http.Response {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w.Result()
}

func TestHandlePing(t *testing.T) {
	mux, _ := newTestRouter(t, cryptoutils.DummyAttestationProvider{})

	resp := get(mux, "/")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Pong!", string(body))
}

func TestHandleHealthCheck(t *testing.T) {
	mux, key := newTestRouter(t, cryptoutils.DummyAttestationProvider{})

	resp := get(mux, "/health_check")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, key.PublicKey(), []byte(health.PublicKey))
	assert.Equal(t, kms.SchemeEd25519, health.SignatureScheme)
	assert.Equal(t, common.Version, health.Version)
}

func TestHandleGetAttestation_BindsPublicKey(t *testing.T) {
	key, err := kms.NewEd25519KeyFromSeed(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)
	expectedReportData := cryptoutils.PublicKeyReportData(kms.SchemeEd25519, key.PublicKey())

	attester := new(MockAttestationProvider)
	attester.On("AttestationType").Return(cryptoutils.DCAPAttestation)
	attester.On("Attest", expectedReportData).Return([]byte("quote"), nil)

	mux, _ := newTestRouter(t, attester)

	resp := get(mux, "/get_attestation")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var attResp api.AttestationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&attResp))
	assert.Equal(t, []byte("quote"), []byte(attResp.Attestation))
	assert.Equal(t, "dcap", attResp.AttestationType)
	assert.Equal(t, key.PublicKey(), []byte(attResp.PublicKey))
	assert.Equal(t, kms.SchemeEd25519, attResp.SignatureScheme)

	attester.AssertExpectations(t)
}

func TestHandleGetAttestation_ProviderFailure(t *testing.T) {
	attester := new(MockAttestationProvider)
	attester.On("AttestationType").Return(cryptoutils.DCAPAttestation)
	attester.On("Attest", mock.Anything).Return(nil, errors.New("no tdx device"))

	mux, _ := newTestRouter(t, attester)

	resp := get(mux, "/get_attestation")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "no tdx device")
}

func TestClient_DummyAttestation(t *testing.T) {
	mux, key := newTestRouter(t, cryptoutils.DummyAttestationProvider{})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	attResp, err := GetAttestation(srv.URL)
	require.NoError(t, err)

	_, err = VerifyAttestation(attResp, false)
	require.Error(t, err)

	attested, err := VerifyAttestation(attResp, true)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), attested.PublicKey)
	assert.Equal(t, cryptoutils.DummyAttestation, attested.AttestationType)
	assert.Nil(t, attested.Measurements)

	// A swapped key no longer matches the quoted report data.
	other, err := kms.NewEd25519KeyFromSeed(bytes.Repeat([]byte{4}, 32))
	require.NoError(t, err)
	attResp.PublicKey = other.PublicKey()
	_, err = VerifyAttestation(attResp, true)
	require.Error(t, err)
}
