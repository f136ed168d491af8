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

	uploadBatchesTotal      *prometheus.CounterVec
	uploadedFilesTotal      *prometheus.CounterVec
	uploadBatchSize         *prometheus.HistogramVec
	generationTotal         *prometheus.CounterVec
	generationDuration      *prometheus.HistogramVec
	consistencyDefectsTotal *prometheus.CounterVec
	presignTotal            *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbo",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cbo",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cbo",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadBatchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbo",
			Subsystem: "ingest",
			Name:      "upload_batches_total",
			Help:      "Total upload batches by outcome.",
		},
		[]string{"service", "status"},
	)
	uploadedFilesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbo",
			Subsystem: "ingest",
			Name:      "uploaded_files_total",
			Help:      "Total individually ingested files by outcome.",
		},
		[]string{"service", "status"},
	)
	uploadBatchSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cbo",
			Subsystem: "ingest",
			Name:      "upload_batch_size",
			Help:      "Distribution of files per upload batch.",
			Buckets:   []float64{1, 2, 3, 5, 8, 10, 15},
		},
		[]string{"service"},
	)
	generationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbo",
			Subsystem: "report",
			Name:      "generation_total",
			Help:      "Total report generation runs by variant and outcome.",
		},
		[]string{"service", "variant", "status"},
	)
	generationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cbo",
			Subsystem: "report",
			Name:      "generation_duration_seconds",
			Help:      "Report generation duration in seconds.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"service", "variant"},
	)
	consistencyDefectsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbo",
			Subsystem: "storage",
			Name:      "consistency_defects_total",
			Help:      "Total detected row/blob consistency defects by operation.",
		},
		[]string{"service", "operation"},
	)
	presignTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbo",
			Subsystem: "storage",
			Name:      "presign_total",
			Help:      "Total presigned URL issuances by direction.",
		},
		[]string{"service", "direction"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadBatchesTotal,
		uploadedFilesTotal,
		uploadBatchSize,
		generationTotal,
		generationDuration,
		consistencyDefectsTotal,
		presignTotal,
	)

	return &HTTPServerMetrics{
		registry:                registry,
		requestTotal:            requestTotal,
		requestDuration:         requestDuration,
		requestInFlight:         requestInFlight,
		uploadBatchesTotal:      uploadBatchesTotal,
		uploadedFilesTotal:      uploadedFilesTotal,
		uploadBatchSize:         uploadBatchSize,
		generationTotal:         generationTotal,
		generationDuration:      generationDuration,
		consistencyDefectsTotal: consistencyDefectsTotal,
		presignTotal:            presignTotal,
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
	case strings.HasPrefix(path, "/v1/claims/"):
		return "/v1/claims/{claim_id}"
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/reports/"):
		return "/v1/reports/{report_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordUploadBatch(service string, size, succeeded, failed int, err error) {
	status := "success"
	switch {
	case err != nil:
		status = "rejected"
	case failed > 0:
		status = "partial"
	}
	m.uploadBatchesTotal.WithLabelValues(service, status).Inc()
	m.uploadBatchSize.WithLabelValues(service).Observe(float64(size))
	if succeeded > 0 {
		m.uploadedFilesTotal.WithLabelValues(service, "success").Add(float64(succeeded))
	}
	if failed > 0 {
		m.uploadedFilesTotal.WithLabelValues(service, "error").Add(float64(failed))
	}
}

func (m *HTTPServerMetrics) RecordGeneration(service, variant string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.generationTotal.WithLabelValues(service, variant, status).Inc()
	m.generationDuration.WithLabelValues(service, variant).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordConsistencyDefect(service, operation string) {
	m.consistencyDefectsTotal.WithLabelValues(service, operation).Inc()
}

func (m *HTTPServerMetrics) RecordPresign(service, direction string) {
	m.presignTotal.WithLabelValues(service, direction).Inc()
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
