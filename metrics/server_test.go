package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ruteri/tee-contact-attestor/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServer_ExposesPipelineMetrics(t *testing.T) {
	srv, err := New(common.PackageName, "127.0.0.1:0")
	require.NoError(t, err)

	// A second server must be able to register the same collectors.
	_, err = New(common.PackageName, "127.0.0.1:0")
	require.NoError(t, err)

	RequestsTotal.WithLabelValues("process_data", "ok").Inc()
	RecordsSigned.Add(3)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tee_contact_attestor_requests_total")
	assert.Contains(t, string(body), "tee_contact_attestor_records_signed_total")
	assert.Contains(t, string(body), "tee_contact_attestor_build_info")
}
