// Package metrics exposes Prometheus collectors for analysis activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/semlint/report"
)

// Collector tracks analysis runs for Prometheus scraping. It owns a
// private registry so repeated construction in tests cannot collide
// with the default global one.
type Collector struct {
	registry *prometheus.Registry

	runsTotal     prometheus.Counter
	filesTotal    prometheus.Counter
	findingsTotal *prometheus.CounterVec
	runDuration   prometheus.Histogram
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,

		runsTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Namespace: "semlint",
			Name:      "runs_total",
			Help:      "Total number of analysis runs",
		}),

		filesTotal: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Namespace: "semlint",
			Name:      "files_analyzed_total",
			Help:      "Total number of files analyzed",
		}),

		findingsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Namespace: "semlint",
			Name:      "findings_total",
			Help:      "Total number of findings by severity",
		}, []string{"severity"}),

		runDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Namespace: "semlint",
			Name:      "run_duration_seconds",
			Help:      "Analysis run duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
	}
}

// ObserveRun records one completed run.
func (c *Collector) ObserveRun(run *report.Run) {
	c.runsTotal.Inc()
	c.filesTotal.Add(float64(run.Files))
	c.findingsTotal.WithLabelValues("info").Add(float64(run.Totals.Info))
	c.findingsTotal.WithLabelValues("warning").Add(float64(run.Totals.Warning))
	c.findingsTotal.WithLabelValues("error").Add(float64(run.Totals.Error))
	c.runDuration.Observe(run.Duration().Seconds())
}

// Handler returns an HTTP handler serving the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
