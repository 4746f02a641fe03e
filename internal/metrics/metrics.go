// Package metrics exposes Prometheus counters for scan and fetch
// outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the pipeline metrics.
type Registry struct {
	ScansTotal     prometheus.Counter
	SymbolsScanned prometheus.Counter
	Rejections     *prometheus.CounterVec
	FetchErrors    *prometheus.CounterVec
	ScanDuration   prometheus.Histogram

	reg *prometheus.Registry
}

// NewRegistry creates and registers the metric set on a private registry.
func NewRegistry() *Registry {
	r := &Registry{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "altpilot_scans_total",
			Help: "Completed scan runs",
		}),
		SymbolsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "altpilot_symbols_scanned_total",
			Help: "Symbols fully evaluated across all runs",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "altpilot_rejections_total",
			Help: "Per-symbol skips by failure reason",
		}, []string{"reason"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "altpilot_fetch_errors_total",
			Help: "Exchange fetch failures by timeframe",
		}, []string{"timeframe"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "altpilot_scan_duration_seconds",
			Help:    "Wall time of a full universe scan",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		reg: prometheus.NewRegistry(),
	}
	r.reg.MustRegister(r.ScansTotal, r.SymbolsScanned, r.Rejections, r.FetchErrors, r.ScanDuration)
	return r
}

// Gatherer returns the underlying registry for the /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
