// Package observability provides the Prometheus registry and HTTP metrics.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/you/accountsvc/domain"
)

// Metrics contains custom Prometheus metrics for the account service.
// It uses its own registry to avoid polluting the global one.
type Metrics struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	emailFailures *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewMetrics creates and registers the service metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountsvc_operations_total",
				Help: "Total number of account operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		emailFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accountsvc_email_failures_total",
				Help: "Total number of emails that could not be delivered by template",
			},
			[]string{"template"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accountsvc_http_request_duration_seconds",
				Help:    "HTTP request latency by method, route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	registry.MustRegister(m.operations, m.emailFailures, m.httpDuration)
	return m
}

// OperationCompleted implements domain.MetricsRecorder.
// The outcome label is "ok" or the kind of the failure.
func (m *Metrics) OperationCompleted(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// EmailFailed implements domain.MetricsRecorder.
func (m *Metrics) EmailFailed(template string) {
	m.emailFailures.WithLabelValues(template).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// GinMiddleware records request latency keyed by the route pattern.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

var _ domain.MetricsRecorder = (*Metrics)(nil)
