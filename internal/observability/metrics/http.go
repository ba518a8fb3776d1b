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

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	coverageRequestsTotal *prometheus.CounterVec
	pathOutcomeTotal      *prometheus.CounterVec
	conflictsTotal        *prometheus.CounterVec
	verdictTotal          *prometheus.CounterVec
	confidence            *prometheus.HistogramVec
	safetyBlockedTotal    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cov",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cov",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cov",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	coverageRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cov",
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total answered coverage questions by intent.",
		},
		[]string{"service", "intent"},
	)
	pathOutcomeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cov",
			Subsystem: "retrieval",
			Name:      "path_outcome_total",
			Help:      "Retrieval path outcomes (structured/semantic, ok/failed).",
		},
		[]string{"service", "path", "outcome"},
	)
	conflictsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cov",
			Subsystem: "retrieval",
			Name:      "conflicts_total",
			Help:      "Total detected conflicts between structured rows and document text.",
		},
		[]string{"service", "intent"},
	)
	verdictTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cov",
			Subsystem: "retrieval",
			Name:      "verdict_total",
			Help:      "Total decisions by merged verdict.",
		},
		[]string{"service", "verdict"},
	)
	confidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cov",
			Subsystem: "retrieval",
			Name:      "confidence",
			Help:      "Distribution of decision confidence.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)
	safetyBlockedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cov",
			Subsystem: "chat",
			Name:      "safety_blocked_total",
			Help:      "Total chat messages intercepted by the safety screen.",
		},
		[]string{"service", "level"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		coverageRequestsTotal,
		pathOutcomeTotal,
		conflictsTotal,
		verdictTotal,
		confidence,
		safetyBlockedTotal,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		coverageRequestsTotal: coverageRequestsTotal,
		pathOutcomeTotal:      pathOutcomeTotal,
		conflictsTotal:        conflictsTotal,
		verdictTotal:          verdictTotal,
		confidence:            confidence,
		safetyBlockedTotal:    safetyBlockedTotal,
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordDecision observes one answered coverage question.
func (m *HTTPServerMetrics) RecordDecision(service string, intents []string, verdict string, conflicts int, confidence float64, provenance []string) {
	for _, intent := range intents {
		m.coverageRequestsTotal.WithLabelValues(service, intent).Inc()
		if conflicts > 0 {
			m.conflictsTotal.WithLabelValues(service, intent).Add(float64(conflicts))
		}
	}
	m.verdictTotal.WithLabelValues(service, verdict).Inc()
	m.confidence.WithLabelValues(service).Observe(confidence)

	seen := make(map[string]struct{}, len(provenance))
	for _, path := range provenance {
		m.pathOutcomeTotal.WithLabelValues(service, path, "ok").Inc()
		seen[path] = struct{}{}
	}
	for _, path := range []string{"structured", "semantic"} {
		if _, ok := seen[path]; !ok {
			m.pathOutcomeTotal.WithLabelValues(service, path, "failed").Inc()
		}
	}
}

func (m *HTTPServerMetrics) RecordSafetyBlock(service, level string) {
	if level == "" {
		level = "unknown"
	}
	m.safetyBlockedTotal.WithLabelValues(service, level).Inc()
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

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
