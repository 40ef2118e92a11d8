package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalyzeTotal counts analysis requests by data source outcome.
	AnalyzeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cropanalysis",
		Subsystem: "pipeline",
		Name:      "analyze_total",
		Help:      "Total number of region analyses, labeled by data source (live, simulated, error).",
	}, []string{"source"})

	// AnalyzeDurationSeconds is end-to-end pipeline time per analysis.
	AnalyzeDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cropanalysis",
		Subsystem: "pipeline",
		Name:      "analyze_duration_seconds",
		Help:      "End-to-end time to run the analysis pipeline for one request.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// ImageryRequestTotal counts remote imagery calls by outcome.
	ImageryRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cropanalysis",
		Subsystem: "gee",
		Name:      "request_total",
		Help:      "Total number of remote imagery API calls, labeled by outcome (ok, error).",
	}, []string{"outcome"})

	// ExportTotal counts export downloads by format.
	ExportTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cropanalysis",
		Subsystem: "export",
		Name:      "total",
		Help:      "Total number of export downloads, labeled by format (csv, geojson).",
	}, []string{"format"})
)

// Register registers service metrics with the default Prometheus
// registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalyzeTotal,
			AnalyzeDurationSeconds,
			ImageryRequestTotal,
			ExportTotal,
		)
	})
}
