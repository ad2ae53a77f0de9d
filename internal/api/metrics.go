package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

type metrics struct {
	registry          *prometheus.Registry
	requests          *prometheus.HistogramVec
	rateLimitRejected *prometheus.CounterVec
	uploads           *prometheus.CounterVec
	uploadBytes       prometheus.Histogram
	queueEnqueued     *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "memoryflow_api_request_duration_seconds",
			Help:    "API request latency in seconds, by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memoryflow_api_rate_limit_rejections_total",
			Help: "Requests refused by the upload rate limit.",
		}, []string{"route"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memoryflow_api_uploads_total",
			Help: "Upload requests by outcome.",
		}, []string{"outcome"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "memoryflow_api_upload_bytes",
			Help:    "Size of accepted photos in bytes.",
			Buckets: prometheus.ExponentialBuckets(64<<10, 2, 10),
		}),
		queueEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memoryflow_queue_jobs_enqueued_total",
			Help: "Memories handed to the worker queue.",
		}, []string{"queue"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.rateLimitRejected,
		m.uploads,
		m.uploadBytes,
		m.queueEnqueued,
	)
	return m
}

func (m *metrics) metricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		m.requests.
			WithLabelValues(r.Method, routeLabel(r.URL.Path), strconv.Itoa(recorder.status)).
			Observe(time.Since(start).Seconds())
	})
}

// routeLabel keeps label cardinality bounded by folding IDs and unknown paths.
func routeLabel(path string) string {
	switch {
	case path == "/v1/memories":
		return "/v1/memories"
	case strings.HasPrefix(path, "/v1/memories/"):
		return "/v1/memories/{id}"
	case path == "/healthz", path == "/metrics":
		return path
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
