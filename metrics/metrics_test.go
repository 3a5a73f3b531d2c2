package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewBridgeMetrics("test", reg)
	require.NoError(t, err)

	m.ObserveTransaction("addDiver", "submit", "OK", 10*time.Millisecond)
	m.ObserveTransaction("addDiver", "submit", "OK", 20*time.Millisecond)
	m.ObserveTransaction("getLevel", "evaluate", "Timeout", time.Second)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues("addDiver", "submit", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("getLevel", "evaluate", "Timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsOpen))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionOpens))

	// duplicate registration fails
	_, err = NewBridgeMetrics("test", reg)
	assert.Error(t, err)
}

func TestBridgeMetrics_NilSafe(t *testing.T) {
	var m *BridgeMetrics
	assert.NotPanics(t, func() {
		m.ObserveTransaction("addDiver", "submit", "OK", time.Millisecond)
		m.SessionOpened()
		m.SessionClosed()
		m.IdentityChecked("ok")
		m.RateLimited()
	})
}

func TestMetricsServer_Handler(t *testing.T) {
	srv, err := New("dolphins_bridge", "127.0.0.1:0")
	require.NoError(t, err)

	srv.Bridge().ObserveTransaction("getLevel", "evaluate", "OK", time.Millisecond)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "dolphins_bridge_transactions_total")
}
