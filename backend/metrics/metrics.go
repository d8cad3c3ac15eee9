package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service metrics on a private prometheus registry
type Registry struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	JobsTotal     *prometheus.CounterVec
	JobDuration   prometheus.Histogram
	JobsRunning   prometheus.Gauge
	JobLevels     prometheus.Histogram
	JobObjective  prometheus.Histogram
	DatasetsTotal prometheus.Gauge
	DatasetNodes  prometheus.Histogram

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialized
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initHTTPMetrics()
	r.initJobMetrics()
	return r
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "signed_louvain_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signed_louvain_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "signed_louvain_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)
}

func (r *Registry) initJobMetrics() {
	r.JobsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "signed_louvain_jobs_total",
			Help: "Clustering jobs by final status",
		},
		[]string{"status"},
	)

	r.JobDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signed_louvain_job_duration_seconds",
			Help:    "Wall time of finished clustering jobs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)

	r.JobsRunning = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "signed_louvain_jobs_running",
			Help: "Clustering jobs holding a worker slot",
		},
	)

	r.JobLevels = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signed_louvain_job_levels",
			Help:    "Retained dendrogram levels per completed job",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	r.JobObjective = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signed_louvain_job_objective",
			Help:    "Blended signed objective of completed jobs",
			Buckets: prometheus.LinearBuckets(-1, 0.2, 11),
		},
	)

	r.DatasetsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "signed_louvain_datasets",
			Help: "Datasets currently stored",
		},
	)

	r.DatasetNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signed_louvain_dataset_nodes",
			Help:    "Node count of uploaded datasets",
			Buckets: prometheus.ExponentialBuckets(10, 10, 7),
		},
	)
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	r.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordJob records a job that reached a terminal status
func (r *Registry) RecordJob(status string, duration time.Duration) {
	r.JobsTotal.WithLabelValues(status).Inc()
	r.JobDuration.Observe(duration.Seconds())
}

// RecordResult records the shape of a completed clustering
func (r *Registry) RecordResult(levels int, objective float64) {
	r.JobLevels.Observe(float64(levels))
	r.JobObjective.Observe(objective)
}

// Handler exposes the registry in the prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
