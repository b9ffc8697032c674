// AngelaMos | 2026
// metrics.go

package core

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "freelancer"

// Metrics holds the application's Prometheus collectors on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	AuthAttempts   *prometheus.CounterVec
	PackageChanges *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "auth_attempts_total",
				Help:      "Login and registration attempts by outcome",
			},
			[]string{"action", "outcome"},
		),
		PackageChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "package_changes_total",
				Help:      "Package mutations by operation",
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.AuthAttempts,
		m.PackageChanges,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) RecordAuth(action, outcome string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) RecordPackageChange(operation string) {
	if m == nil {
		return
	}
	m.PackageChanges.WithLabelValues(operation).Inc()
}
