// Package metrics provides Prometheus metrics for scan runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records scan metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	scansTotal    *prometheus.CounterVec
	scanDuration  *prometheus.HistogramVec
	findingsTotal *prometheus.CounterVec
}

// NewCollector creates a collector with the standard posture metrics
// registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posture_scanner_scans_total",
			Help: "Total number of domain scans executed",
		}, []string{"domain", "status"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "posture_scanner_duration_seconds",
			Help:    "Duration of domain scans in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"domain"}),
		findingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posture_findings_total",
			Help: "Total number of findings discovered",
		}, []string{"domain", "severity"}),
	}

	c.registry.MustRegister(c.scansTotal, c.scanDuration, c.findingsTotal)
	return c
}

// ScanCompleted records one domain scan. Status is "ok" or "degraded".
func (c *Collector) ScanCompleted(domain, status string, d time.Duration) {
	c.scansTotal.WithLabelValues(domain, status).Inc()
	c.scanDuration.WithLabelValues(domain).Observe(d.Seconds())
}

// FindingsObserved records findings discovered for a domain.
func (c *Collector) FindingsObserved(domain, severity string, n int) {
	if n > 0 {
		c.findingsTotal.WithLabelValues(domain, severity).Add(float64(n))
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
