// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's metrics, registered on a caller-supplied registry.
type Collector struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	created     *prometheus.CounterVec
	deleted     *prometheus.CounterVec
	provisioned prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voicenotes_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicenotes_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voicenotes_records_created_total",
			Help: "Records created by kind.",
		}, []string{"kind"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voicenotes_records_deleted_total",
			Help: "Records deleted by kind.",
		}, []string{"kind"}),
		provisioned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voicenotes_users_provisioned_total",
			Help: "Users created on first sight of an external identity.",
		}),
	}

	reg.MustRegister(c.requests, c.duration, c.created, c.deleted, c.provisioned)
	return c
}

func (c *Collector) RecordCreated(kind string) { c.created.WithLabelValues(kind).Inc() }

func (c *Collector) RecordDeleted(kind string) { c.deleted.WithLabelValues(kind).Inc() }

func (c *Collector) RecordUserProvisioned() { c.provisioned.Inc() }

// RecordRequest records one finished HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Middleware records every request under its chi route pattern, so ids in the
// path do not explode label cardinality. Unmatched requests use "unmatched".
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		c.RecordRequest(r.Method, route, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
