package contactshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-contact-attestor/api"
	"github.com/ruteri/tee-contact-attestor/contacts"
	"github.com/ruteri/tee-contact-attestor/enclave"
	"github.com/ruteri/tee-contact-attestor/intent"
	"github.com/ruteri/tee-contact-attestor/metrics"
)

// DefaultMaxBodyBytes caps request bodies before JSON decoding. MaxRecords
// rows of realistic width fit comfortably.
const DefaultMaxBodyBytes = 1024 * 1024

// Handler exposes the contact pipeline over HTTP. It only translates between
// JSON and the processor; every validation rule lives in the contacts package.
type Handler struct {
	processor    *enclave.Processor
	maxBodyBytes int64
	log          *slog.Logger
}

// NewHandler creates a handler around processor. A non-positive maxBodyBytes
// selects DefaultMaxBodyBytes.
func NewHandler(processor *enclave.Processor, maxBodyBytes int64, log *slog.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		processor:    processor,
		maxBodyBytes: maxBodyBytes,
		log:          log,
	}
}

// RegisterRoutes registers:
//   - POST /process_data - parse, hash and sign a CSV contact list
//   - GET /api/public/phone_hash/{phone} - signed digest of a single phone number
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/process_data", h.HandleProcessData)
	r.Get("/api/public/phone_hash/{phone}", h.HandlePhoneHash)
}

// HandleProcessData processes a CSV contact upload.
//
// URL format: POST /process_data
// Request body: JSON-encoded api.ProcessDataRequest
// Response: JSON-encoded enclave.ContactsEnvelope
//
// Status codes:
//   - 200 OK: batch parsed and signed
//   - 400 Bad Request: malformed JSON or rejected CSV (see api.ErrorResponse.Kind)
//   - 413 Request Entity Too Large: body exceeds the configured limit
//   - 500 Internal Server Error: clock or signing failure
func (h *Handler) HandleProcessData(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	scope := intent.ScopeProcessData.String()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req api.ProcessDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			metrics.RequestsTotal.WithLabelValues(scope, "too_large").Inc()
			writeJSON(w, http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: "request body too large"})
			return
		}
		metrics.RequestsTotal.WithLabelValues(scope, "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	metrics.PayloadBytes.Observe(float64(len(req.Payload.CSV)))

	env, err := h.processor.Process(req.Payload.CSV)
	if err != nil {
		h.writeError(w, scope, err)
		return
	}

	records := len(env.Payload.Contacts)
	metrics.RequestsTotal.WithLabelValues(scope, "ok").Inc()
	metrics.RecordsSigned.Add(float64(records))
	metrics.BatchSize.Observe(float64(records))
	metrics.ProcessingDuration.Observe(time.Since(start).Seconds())

	h.log.Info("Signed contact batch", "records", records, "timestampMs", env.TimestampMs)
	writeJSON(w, http.StatusOK, env)
}

// HandlePhoneHash returns the signed digest of one phone number so callers can
// look up contacts without hashing on their own.
//
// URL format: GET /api/public/phone_hash/{phone}
// The phone may be URL-encoded, e.g. %2B1%20555%20123%204567.
func (h *Handler) HandlePhoneHash(w http.ResponseWriter, r *http.Request) {
	scope := intent.ScopePhoneDigest.String()

	phone, err := url.PathUnescape(r.PathValue("phone"))
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(scope, "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid phone encoding"})
		return
	}

	env, err := h.processor.DigestPhone(phone)
	if err != nil {
		h.writeError(w, scope, err)
		return
	}

	metrics.RequestsTotal.WithLabelValues(scope, "ok").Inc()
	writeJSON(w, http.StatusOK, env)
}

func (h *Handler) writeError(w http.ResponseWriter, scope string, err error) {
	var parseErr *contacts.ParseError
	if errors.As(err, &parseErr) {
		metrics.RequestsTotal.WithLabelValues(scope, string(parseErr.Kind)).Inc()
		h.log.Info("Rejected payload", "scope", scope, "kind", parseErr.Kind, "row", parseErr.Row)
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error: parseErr.Error(),
			Kind:  string(parseErr.Kind),
			Row:   parseErr.Row,
		})
		return
	}

	metrics.RequestsTotal.WithLabelValues(scope, "internal").Inc()
	h.log.Error("Failed to sign payload", "scope", scope, "err", err)
	writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error", Kind: "internal"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
