package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/v1/x", 200, time.Millisecond)
		m.MovementRecorded("in")
		m.AlertsRead(3)
		m.EmailJob("sent")
	})
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.MovementRecorded("transfer")
	m.MovementRecorded("transfer")
	m.AlertsRead(2)
	m.ObserveRequest("GET", "/v1/alerts", 200, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.movements.WithLabelValues("transfer")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.alertsRead))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sosstock_http_requests_total{method="GET",path="/v1/alerts",status="200"} 1`)
}
