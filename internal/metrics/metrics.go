// Package metrics holds the Prometheus collectors of the service. All
// recording methods are safe on a nil *Metrics so that unit tests can pass
// nil instead of a registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sosstock"

type Metrics struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	authAttempts  *prometheus.CounterVec
	movements     *prometheus.CounterVec
	orderStatus   *prometheus.CounterVec
	alertsRead    prometheus.Counter
	alertRefresh  *prometheus.CounterVec
	emailJobs     *prometheus.CounterVec
	dashboardHits *prometheus.CounterVec
}

// New registers every collector on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		authAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Sign-in attempts by result",
		}, []string{"result"}),
		movements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_movements_total",
			Help:      "Inventory movements recorded by type",
		}, []string{"type"}),
		orderStatus: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Orders entering a status",
		}, []string{"status"}),
		alertsRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_marked_read_total",
			Help:      "Alerts marked as read",
		}),
		alertRefresh: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_feed_refreshes_total",
			Help:      "Unread alert re-fetches by outcome",
		}, []string{"outcome"}),
		emailJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_jobs_total",
			Help:      "Email jobs processed by result",
		}, []string{"result"}),
		dashboardHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_cache_total",
			Help:      "Dashboard cache lookups by result",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) AuthAttempt(result string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) MovementRecorded(movementType string) {
	if m == nil {
		return
	}
	m.movements.WithLabelValues(movementType).Inc()
}

func (m *Metrics) OrderStatus(status string) {
	if m == nil {
		return
	}
	m.orderStatus.WithLabelValues(status).Inc()
}

func (m *Metrics) AlertsRead(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.alertsRead.Add(float64(n))
}

func (m *Metrics) AlertRefresh(outcome string) {
	if m == nil {
		return
	}
	m.alertRefresh.WithLabelValues(outcome).Inc()
}

func (m *Metrics) EmailJob(result string) {
	if m == nil {
		return
	}
	m.emailJobs.WithLabelValues(result).Inc()
}

func (m *Metrics) DashboardCache(result string) {
	if m == nil {
		return
	}
	m.dashboardHits.WithLabelValues(result).Inc()
}
