package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	predictions     *prometheus.CounterVec
	probability     prometheus.Histogram
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors, including the Go and process ones.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "busdelay",
			Name:      "predictions_total",
			Help:      "Prediction requests by predictor mode and outcome.",
		}, []string{"mode", "outcome"}),
		probability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "busdelay",
			Name:      "prediction_probability",
			Help:      "Delay probability percentage returned to clients.",
			Buckets:   prometheus.LinearBuckets(10, 10, 9),
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "busdelay",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "status"}),
	}
	m.registry.MustRegister(
		m.predictions,
		m.probability,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePrediction counts a served prediction and records its probability.
func (m *Metrics) ObservePrediction(mode string, probability float64) {
	m.predictions.WithLabelValues(mode, "ok").Inc()
	m.probability.Observe(probability)
}

// ObserveFailure counts a rejected prediction request.
func (m *Metrics) ObserveFailure(mode string) {
	m.predictions.WithLabelValues(mode, "error").Inc()
}

func (m *Metrics) ObserveRequest(path string, status int, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(routeLabel(path), strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// routeLabel keeps label cardinality bounded for unknown paths.
func routeLabel(path string) string {
	switch path {
	case "/", "/predict", "/api/health", "/metrics":
		return path
	default:
		return "other"
	}
}
