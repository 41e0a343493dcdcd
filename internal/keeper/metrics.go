package keeper

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the keeper's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	scalingFactor *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
	height        prometheus.Gauge
}

// NewMetrics registers the keeper collectors plus the Go and process
// collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scalingd",
				Subsystem: "keeper",
				Name:      "runs_total",
				Help:      "Total number of recalibration runs by result.",
			},
			[]string{"result"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "scalingd",
				Subsystem: "keeper",
				Name:      "run_duration_seconds",
				Help:      "Duration of recalibration runs.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
		),
		scalingFactor: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "scalingd",
				Subsystem: "keeper",
				Name:      "scaling_factor",
				Help:      "Last scaling factors emitted, by position.",
			},
			[]string{"side"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "scalingd",
				Subsystem: "keeper",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run.",
			},
		),
		height: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "scalingd",
				Subsystem: "host",
				Name:      "height",
				Help:      "Height of the last committed call.",
			},
		),
	}
	m.Registry.MustRegister(
		m.runs, m.runDuration, m.scalingFactor, m.lastSuccess, m.height,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// CacheStats reports the hit and miss counts of a cache.
type CacheStats interface {
	Stats() (hits, misses uint64)
}

// WatchAddressCache exports the host's address cache counters. Call it at
// most once per Metrics.
func (m *Metrics) WatchAddressCache(c CacheStats) {
	m.Registry.MustRegister(
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: "scalingd",
				Subsystem: "host",
				Name:      "address_cache_hits_total",
				Help:      "Address validations answered from the cache.",
			},
			func() float64 {
				hits, _ := c.Stats()
				return float64(hits)
			},
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: "scalingd",
				Subsystem: "host",
				Name:      "address_cache_misses_total",
				Help:      "Address validations that had to decode the address.",
			},
			func() float64 {
				_, misses := c.Stats()
				return float64(misses)
			},
		),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
