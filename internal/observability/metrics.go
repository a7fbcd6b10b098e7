package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hydro_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the loader.
type Metrics struct {
	FilesScanned      prometheus.Counter
	HydrographsLoaded prometheus.Counter
	TransformErrors   prometheus.Counter
	LoadErrors        *prometheus.CounterVec // labels: stage={database,shapefile,kafka}
	PipelineRunning   prometheus.Gauge

	Runs             *prometheus.CounterVec // labels: outcome={success,empty,failure}
	RunDuration      prometheus.Histogram
	LastSuccess      prometheus.Gauge
	HydrographVolume prometheus.Histogram
}

// NewMetrics creates and registers all loader metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesScanned,
		m.HydrographsLoaded,
		m.TransformErrors,
		m.LoadErrors,
		m.PipelineRunning,
		m.Runs,
		m.RunDuration,
		m.LastSuccess,
		m.HydrographVolume,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_scanned_total",
			Help:      "Total hydrograph files found by the scanner.",
		}),
		HydrographsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hydrographs_loaded_total",
			Help:      "Total hydrograph records loaded by every stage of a run.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total hydrograph files that could not be parsed or integrated.",
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Failed load attempts by stage.",
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a scan-and-load run is in progress.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete scan-transform-load run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		HydrographVolume: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hydrograph_volume_cubic_meters",
			Help:      "Integrated volume of river hydrographs.",
			Buckets:   prometheus.ExponentialBuckets(1e3, 10, 8),
		}),
	}
}
