package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "station_monitor"

// Metrics holds the Prometheus counters, histograms, and gauges for the station monitor.
type Metrics struct {
	// Render metrics.
	Renders         *prometheus.CounterVec   // labels: station, status={ok,stale,parse_error,no_data}
	Classifications *prometheus.CounterVec   // labels: station, classification={normal,alert,indeterminate}
	FetchDuration   *prometheus.HistogramVec // labels: station
	FetchErrors     *prometheus.CounterVec   // labels: station
	FileAge         *prometheus.GaugeVec     // labels: station

	// Monitor metrics.
	MonitorRunning   prometheus.Gauge
	CycleDuration    prometheus.Histogram
	ResultsPublished prometheus.Counter
	PublishErrors    prometheus.Counter

	// Threshold configuration metrics.
	ThresholdSaves *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all monitor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Renders,
		m.Classifications,
		m.FetchDuration,
		m.FetchErrors,
		m.FileAge,
		m.MonitorRunning,
		m.CycleDuration,
		m.ResultsPublished,
		m.PublishErrors,
		m.ThresholdSaves,
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
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Station renders by outcome status.",
		}, []string{"station", "status"}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classified measurements by station and classification.",
		}, []string{"station", "classification"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of retrieving the latest file of a station.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"station"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed latest-file retrievals, including empty directories.",
		}, []string{"station"}),
		FileAge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "file_age_seconds",
			Help:      "Age of the latest file at render time, from its filename timestamp.",
		}, []string{"station"}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_running",
			Help:      "1 when the periodic monitor is active, 0 when shut down.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one monitor cycle over every station.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_published_total",
			Help:      "Station results written to the result sink.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed result sink writes.",
		}),
		ThresholdSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threshold_saves_total",
			Help:      "Threshold configuration saves by outcome.",
		}, []string{"outcome"}),
	}
}
