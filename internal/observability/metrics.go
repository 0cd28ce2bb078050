package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the data service.
type Metrics struct {
	// Remote retrieval metrics.
	FetchRequests *prometheus.CounterVec   // labels: dataset={casualties_daily,killed_names}, source={csv,json,registry}, outcome={success,error}
	FetchDuration *prometheus.HistogramVec // labels: source={csv,json,registry}

	// Disk cache metrics.
	CacheLookups  *prometheus.CounterVec // labels: dataset={casualties_daily,killed_names}, result={hit,miss}
	RowsLoaded    *prometheus.GaugeVec   // labels: dataset={casualties_daily,killed_names}
	LastSuccess   *prometheus.GaugeVec   // labels: dataset={casualties_daily,killed_names}
	MalformedRows prometheus.Counter

	// Scheduler metrics.
	NotifyErrors    prometheus.Counter
	RefreshRunning  prometheus.Gauge
	RefreshFailures prometheus.Counter
	RefreshDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.CacheLookups,
		m.RowsLoaded,
		m.LastSuccess,
		m.MalformedRows,
		m.NotifyErrors,
		m.RefreshRunning,
		m.RefreshFailures,
		m.RefreshDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casualty",
			Name:      "fetch_requests_total",
			Help:      help("Remote dataset requests by dataset, source format, and outcome."),
		}, []string{"dataset", "source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "casualty",
			Name:      "fetch_duration_seconds",
			Help:      help("Duration of remote dataset requests in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casualty",
			Name:      "cache_lookups_total",
			Help:      help("Disk cache lookups by dataset and result."),
		}, []string{"dataset", "result"}),
		RowsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "casualty",
			Name:      "rows_loaded",
			Help:      help("Rows in the most recently returned table."),
		}, []string{"dataset"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "casualty",
			Name:      "last_success_timestamp_seconds",
			Help:      help("Unix time of the last successful remote fetch."),
		}, []string{"dataset"}),
		MalformedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casualty",
			Name:      "registry_malformed_rows_total",
			Help:      help("Registry lines skipped because they could not be split into fields."),
		}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casualty",
			Name:      "notify_errors_total",
			Help:      help("Snapshot notifications that failed to publish."),
		}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "casualty",
			Name:      "refresh_running",
			Help:      help("1 when the periodic refresher is active, 0 when shut down."),
		}),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "casualty",
			Name:      "refresh_failures_total",
			Help:      help("Refresh cycles that failed and were retried with backoff."),
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "casualty",
			Name:      "refresh_duration_seconds",
			Help:      help("Time to complete a successful refresh cycle in seconds."),
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
