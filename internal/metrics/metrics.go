// Package metrics exposes Prometheus collectors for the HTTP surface and the
// inventory operations behind it.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "paintstock"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "transactions_total",
			Help:      "Quantity transactions by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	gallonsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "gallons_moved_total",
			Help:      "Gallons checked in or out.",
		},
		[]string{"direction"},
	)

	allocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "id_allocations_total",
			Help:      "Item ids handed out, by allocation mode.",
		},
		[]string{"mode"},
	)

	auditFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "append_failures_total",
			Help:      "Audit entries that could not be written after a successful mutation.",
		},
		[]string{"action"},
	)

	exports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "runs_total",
			Help:      "Inventory exports, by trigger and success.",
		},
		[]string{"trigger", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		transactions,
		gallonsMoved,
		allocations,
		auditFailures,
		exports,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := CanonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordTransaction counts a quantity transaction.
func RecordTransaction(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	transactions.WithLabelValues(kind, outcome).Inc()
}

// RecordMovement adds gallons to the moved counter for a direction.
func RecordMovement(direction string, gallons int) {
	if gallons <= 0 {
		return
	}
	gallonsMoved.WithLabelValues(direction).Add(float64(gallons))
}

// RecordAllocation counts an id handed out in the given mode.
func RecordAllocation(mode string) {
	allocations.WithLabelValues(mode).Inc()
}

// RecordAuditFailure counts an audit entry that was lost.
func RecordAuditFailure(action string) {
	auditFailures.WithLabelValues(action).Inc()
}

// RecordExport counts an export run.
func RecordExport(trigger string, success bool) {
	exports.WithLabelValues(trigger, strconv.FormatBool(success)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// CanonicalPath collapses item ids out of a request path so label
// cardinality stays bounded.
func CanonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "items" {
		parts[2] = ":id"
	}
	return "/" + strings.Join(parts, "/")
}
