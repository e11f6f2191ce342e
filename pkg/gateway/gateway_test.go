package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pixperk/padlock/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpoint(t *testing.T) {
	metrics.BindAttemptsTotal.WithLabelValues("gateway-test", metrics.BindBound).Inc()

	srv := httptest.NewServer(NewServer(":0").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "padlock_locks_held")
	assert.Contains(t, string(body), `padlock_bind_attempts_total{lock_name="gateway-test",result="bound"} 1`)
}

func TestUnknownPath(t *testing.T) {
	srv := httptest.NewServer(NewServer(":0").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
