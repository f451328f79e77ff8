package attestationhandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-contact-attestor/api"
	"github.com/ruteri/tee-contact-attestor/common"
	"github.com/ruteri/tee-contact-attestor/cryptoutils"
	"github.com/ruteri/tee-contact-attestor/interfaces"
)

// Handler publishes the enclave's ephemeral public key together with a quote
// binding it to the running image.
type Handler struct {
	signer   interfaces.Signer
	attester cryptoutils.AttestationProvider
	log      *slog.Logger
}

func NewHandler(signer interfaces.Signer, attester cryptoutils.AttestationProvider, log *slog.Logger) *Handler {
	return &Handler{
		signer:   signer,
		attester: attester,
		log:      log,
	}
}

// RegisterRoutes registers:
//   - GET / - liveness ping
//   - GET /get_attestation - quote over the signing key
//   - GET /health_check - key and build information
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandlePing)
	r.Get("/get_attestation", h.HandleGetAttestation)
	r.Get("/health_check", h.HandleHealthCheck)
}

func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Pong!"))
}

// HandleGetAttestation requests a fresh quote whose report data is
// cryptoutils.PublicKeyReportData of the current signing key.
//
// URL format: GET /get_attestation
// Response: JSON-encoded api.AttestationResponse
func (h *Handler) HandleGetAttestation(w http.ResponseWriter, r *http.Request) {
	pubkey := h.signer.PublicKey()
	reportData := cryptoutils.PublicKeyReportData(h.signer.Scheme(), pubkey)

	attestation, err := h.attester.Attest(reportData)
	if err != nil {
		h.log.Error("Failed to generate attestation", "attestationType", h.attester.AttestationType(), "err", err)
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "could not generate attestation", Kind: "internal"})
		return
	}

	writeJSON(w, http.StatusOK, api.AttestationResponse{
		Attestation:     attestation,
		AttestationType: h.attester.AttestationType().String(),
		PublicKey:       pubkey,
		SignatureScheme: h.signer.Scheme(),
	})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:          "ok",
		PublicKey:       h.signer.PublicKey(),
		SignatureScheme: h.signer.Scheme(),
		Version:         common.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
