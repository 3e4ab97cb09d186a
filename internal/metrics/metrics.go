// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a registry with the collectors the services report to. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestCount        *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	notificationsTotal  *prometheus.CounterVec
	sideEffectFailures  *prometheus.CounterVec
	emailsTotal         *prometheus.CounterVec
	importedRowsTotal   *prometheus.CounterVec
	occurrencesRecorded prometheus.Counter
}

// New creates a Metrics with its own registry, including the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_requests_total",
			Help: "How many HTTP requests processed, partitioned by status code, method and route.",
		}, []string{"code", "method", "url"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "fintrack_request_duration_seconds",
			Help: "The HTTP request latencies in seconds.",
		}, []string{"code", "method", "url"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_notifications_created_total",
			Help: "Notifications created, partitioned by trigger and type.",
		}, []string{"trigger", "type"}),
		sideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_side_effect_failures_total",
			Help: "Failed side effects after a successful write, partitioned by effect.",
		}, []string{"effect"}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_emails_total",
			Help: "Outbound notification emails, partitioned by result.",
		}, []string{"result"}),
		importedRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_imported_rows_total",
			Help: "Imported transaction rows, partitioned by outcome.",
		}, []string{"outcome"}),
		occurrencesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_recurring_occurrences_recorded_total",
			Help: "Transactions materialized from recurring rules.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCount,
		m.requestDuration,
		m.notificationsTotal,
		m.sideEffectFailures,
		m.emailsTotal,
		m.importedRowsTotal,
		m.occurrencesRecorded,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latencies.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := float64(time.Since(start)) / float64(time.Second)

		// Replace path parameters with their name to keep cardinality low
		url := c.Request.URL.Path
		for _, p := range c.Params {
			url = strings.Replace(url, p.Value, fmt.Sprintf(":%s", p.Key), 1)
		}

		m.requestDuration.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		m.requestCount.WithLabelValues(status, c.Request.Method, url).Inc()
	}
}

// NotificationCreated counts a stored notification.
func (m *Metrics) NotificationCreated(trigger, typ string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(trigger, typ).Inc()
}

// SideEffectFailed counts a side effect that failed after its write succeeded.
func (m *Metrics) SideEffectFailed(effect string) {
	if m == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(effect).Inc()
}

// EmailSent counts an email attempt; ok is false when delivery failed.
func (m *Metrics) EmailSent(ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.emailsTotal.WithLabelValues(result).Inc()
}

// RowsImported counts imported and skipped rows.
func (m *Metrics) RowsImported(imported, skipped int) {
	if m == nil {
		return
	}
	m.importedRowsTotal.WithLabelValues("imported").Add(float64(imported))
	m.importedRowsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// OccurrenceRecorded counts a transaction materialized from a recurring rule.
func (m *Metrics) OccurrenceRecorded() {
	if m == nil {
		return
	}
	m.occurrencesRecorded.Inc()
}
