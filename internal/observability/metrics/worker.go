package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	generateTotal    *prometheus.CounterVec
	generateDuration *prometheus.HistogramVec
	generateInFlight prometheus.Gauge
	queueLag         *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	generateTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbo",
			Subsystem: "worker",
			Name:      "report_generate_total",
			Help:      "Total processed regeneration requests by status.",
		},
		[]string{"service", "status"},
	)
	generateDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cbo",
			Subsystem: "worker",
			Name:      "report_generate_duration_seconds",
			Help:      "Regeneration duration in seconds by status.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	generateInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cbo",
			Subsystem: "worker",
			Name:      "report_generate_in_flight",
			Help:      "Number of in-flight regeneration runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cbo",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between enqueue and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(generateTotal, generateDuration, generateInFlight, queueLag)

	return &WorkerMetrics{
		registry:         registry,
		generateTotal:    generateTotal,
		generateDuration: generateDuration,
		generateInFlight: generateInFlight,
		queueLag:         queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRun() {
	m.generateInFlight.Inc()
}

func (m *WorkerMetrics) FinishRun(service string, duration time.Duration, err error) {
	m.generateInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.generateTotal.WithLabelValues(service, status).Inc()
	m.generateDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
