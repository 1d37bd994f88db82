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

	uploadsTotal       *prometheus.CounterVec
	analysesTotal      *prometheus.CounterVec
	analysisConfidence *prometheus.HistogramVec
	analysisDuration   *prometheus.HistogramVec
	feedbackTotal      *prometheus.CounterVec
	configReplaceTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dpo",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dpo",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dpo",
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
			Namespace: "dpo",
			Subsystem: "pipeline",
			Name:      "uploads_total",
			Help:      "Total accepted document uploads.",
		},
		[]string{"service"},
	)
	analysesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dpo",
			Subsystem: "pipeline",
			Name:      "analyses_total",
			Help:      "Total analysis attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	analysisConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dpo",
			Subsystem: "pipeline",
			Name:      "analysis_confidence",
			Help:      "Distribution of combined confidence for successful analyses.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		},
		[]string{"service"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dpo",
			Subsystem: "pipeline",
			Name:      "analysis_duration_seconds",
			Help:      "Analysis pipeline duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	feedbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dpo",
			Subsystem: "pipeline",
			Name:      "feedback_total",
			Help:      "Total accepted feedback submissions.",
		},
		[]string{"service"},
	)
	configReplaceTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dpo",
			Subsystem: "pipeline",
			Name:      "config_replace_total",
			Help:      "Total category registry replacements by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		analysesTotal,
		analysisConfidence,
		analysisDuration,
		feedbackTotal,
		configReplaceTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		uploadsTotal:       uploadsTotal,
		analysesTotal:      analysesTotal,
		analysisConfidence: analysisConfidence,
		analysisDuration:   analysisDuration,
		feedbackTotal:      feedbackTotal,
		configReplaceTotal: configReplaceTotal,
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
	if rest, ok := strings.CutPrefix(path, "/v1/documents/"); ok {
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			return "/v1/documents/{document_id}" + rest[idx:]
		}
		return "/v1/documents/{document_id}"
	}
	return path
}

func (m *HTTPServerMetrics) RecordUpload(service string) {
	m.uploadsTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordAnalysis(service, outcome string, confidence float64, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.analysesTotal.WithLabelValues(service, outcome).Inc()
	m.analysisDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
	if outcome == "extracted" {
		m.analysisConfidence.WithLabelValues(service).Observe(confidence)
	}
}

func (m *HTTPServerMetrics) RecordFeedback(service string) {
	m.feedbackTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordConfigReplace(service, status string) {
	m.configReplaceTotal.WithLabelValues(service, status).Inc()
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
