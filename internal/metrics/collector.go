// Package metrics owns the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector groups HTTP, generation and modification metrics on a private
// registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	shapesResolved     *prometheus.CounterVec

	modificationsTotal *prometheus.CounterVec
	artifactsWritten   *prometheus.CounterVec
	uploadsTotal       *prometheus.CounterVec

	logger *zap.Logger
}

func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	c.httpRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.generationsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Text generator calls by outcome",
		},
		[]string{"backend", "status"},
	)
	c.generationDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Text generator latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"backend"},
	)
	c.shapesResolved = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shapes_resolved_total",
			Help:      "Resolved shape keywords; keyword=\"\" counts misses",
		},
		[]string{"keyword"},
	)

	c.modificationsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modifications_total",
			Help:      "Modification attempts by result",
		},
		[]string{"result", "axis"},
	)
	c.artifactsWritten = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      "STL files exported",
		},
		[]string{"suffix"},
	)
	c.uploadsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload target calls by outcome",
		},
		[]string{"status"},
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (c *Collector) RecordGeneration(backend string, ok bool, d time.Duration) {
	status := "success"
	if !ok {
		status = "error"
	}
	c.generationsTotal.WithLabelValues(backend, status).Inc()
	c.generationDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// RecordResolve counts a resolver outcome. Pass "" for a miss.
func (c *Collector) RecordResolve(keyword string) {
	c.shapesResolved.WithLabelValues(keyword).Inc()
}

func (c *Collector) RecordModification(result, axis string) {
	c.modificationsTotal.WithLabelValues(result, axis).Inc()
}

func (c *Collector) RecordArtifact(suffix string) {
	c.artifactsWritten.WithLabelValues(suffix).Inc()
}

func (c *Collector) RecordUpload(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	c.uploadsTotal.WithLabelValues(status).Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
