package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace  = "docs"
	otherRoute = "other"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal       *prometheus.CounterVec
	uploadBytes        *prometheus.HistogramVec
	extractionDuration *prometheus.HistogramVec
	upstream           *upstreamCollectors
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "uploads_total",
			Help:      "Uploaded files by format, storage backend and status.",
		},
		[]string{"service", "format", "backend", "status"},
	)
	uploadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "upload_bytes",
			Help:      "Size of accepted uploads in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 9),
		},
		[]string{"service", "format"},
	)
	extractionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Text extraction duration in seconds by format and status.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "format", "status"},
	)
	upstream := newUpstreamCollectors()

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		uploadBytes,
		extractionDuration,
	)
	upstream.register(registry)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		uploadsTotal:       uploadsTotal,
		uploadBytes:        uploadBytes,
		extractionDuration: extractionDuration,
		upstream:           upstream,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

var knownRoutes = map[string]bool{
	"/healthz":          true,
	"/readyz":           true,
	"/metrics":          true,
	"/users":            true,
	"/auth/login":       true,
	"/auth/logout":      true,
	"/protected":        true,
	"/documents":        true,
	"/documents/upload": true,
}

// normalizePath maps a request path to its route template. Document ids collapse to
// {id} and anything unrouted becomes "other" so label cardinality stays bounded.
func normalizePath(path string) string {
	if knownRoutes[path] {
		return path
	}
	rest, ok := strings.CutPrefix(path, "/documents/")
	if !ok || rest == "" {
		return otherRoute
	}
	id, tail, _ := strings.Cut(rest, "/")
	if id == "" {
		return otherRoute
	}
	switch tail {
	case "":
		return "/documents/{id}"
	case "file", "summary":
		return "/documents/{id}/" + tail
	default:
		return otherRoute
	}
}

func (m *HTTPServerMetrics) RecordUpload(service, format, backend string, size int64, err error) {
	if format == "" {
		format = "unknown"
	}
	m.uploadsTotal.WithLabelValues(service, format, backend, statusOf(err)).Inc()
	if err == nil && size > 0 {
		m.uploadBytes.WithLabelValues(service, format).Observe(float64(size))
	}
}

func (m *HTTPServerMetrics) RecordExtraction(service, format string, duration time.Duration, err error) {
	m.extractionDuration.WithLabelValues(service, format, statusOf(err)).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordSummary(service, model string, promptTokens, completionTokens int, err error) {
	m.upstream.recordSummary(service, model, promptTokens, completionTokens, err)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

// SetBreakerState records a circuit breaker transition; state follows gobreaker's numbering.
func (m *HTTPServerMetrics) SetBreakerState(service, operation string, state int) {
	m.upstream.setBreakerState(service, operation, state)
}
