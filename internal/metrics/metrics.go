// Package metrics owns the Prometheus collectors of the calendar service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fallback reasons for CalendarFallbacks.
const (
	ReasonMissing    = "missing"
	ReasonCorrupt    = "corrupt"
	ReasonUnreadable = "unreadable"
)

var (
	// Registry is private to the process so tests can build several servers
	// without tripping duplicate registration on the default registerer.
	Registry = prometheus.NewRegistry()

	EventsAppended = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hyprcal_events_appended_total",
			Help: "Events appended to the calendar file",
		},
	)
	AppendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hyprcal_append_failures_total",
			Help: "Appends that failed to write the calendar file",
		},
	)
	CalendarFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hyprcal_calendar_fallbacks_total",
			Help: "Reads that fell back to an empty calendar",
		},
		[]string{"reason"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	Registry.MustRegister(
		EventsAppended,
		AppendFailures,
		CalendarFallbacks,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies, labelled by the mux
// route template so path variables do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Initialize with 200 OK in case WriteHeader isn't called explicitly
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		httpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(ww.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
