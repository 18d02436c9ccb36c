// Package metrics exposes the server's Prometheus instrumentation. All
// collectors live on a private registry so tests can create isolated
// instances without default-registry collisions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the server reports.
type Metrics struct {
	registry *prometheus.Registry

	UploadsTotal     *prometheus.CounterVec
	RowsAnalyzed     prometheus.Counter
	AnomaliesFlagged prometheus.Counter
	ScoringDuration  prometheus.Histogram
	FlowPredictions  *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	StreamClients    prometheus.Gauge
}

// New creates a metrics bundle backed by its own registry, including the
// standard Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry: registry,
		UploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowsight_uploads_total",
			Help: "CSV uploads by outcome (accepted, rejected, failed).",
		}, []string{"outcome"}),
		RowsAnalyzed: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowsight_rows_analyzed_total",
			Help: "Rows scored across all uploads.",
		}),
		AnomaliesFlagged: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowsight_anomalies_flagged_total",
			Help: "Rows flagged anomalous across all uploads.",
		}),
		ScoringDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowsight_scoring_duration_seconds",
			Help:    "Time spent scoring one upload.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		FlowPredictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowsight_flow_predictions_total",
			Help: "Interactive single-flow predictions by verdict.",
		}, []string{"verdict"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowsight_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowsight_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		StreamClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flowsight_stream_clients",
			Help: "Connected WebSocket stream clients.",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
