package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// archive build and query surfaces.
type Metrics struct {
	RowsRead          prometheus.Counter
	RowsMalformed     prometheus.Counter
	StormsBuilt       prometheus.Counter
	StormsFailed      prometheus.Counter
	DuplicatesDropped prometheus.Counter
	BuildDuration     prometheus.Histogram

	// Current collection size, refreshed on every build or load.
	CollectionStorms       prometheus.Gauge
	CollectionObservations prometheus.Gauge

	StoreDuration   *prometheus.HistogramVec // labels: backend={sql,docdir}, op={save,load}
	RequestDuration *prometheus.HistogramVec // labels: route, code
}

// NewMetrics creates and registers all archive metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_archive",
			Name:      "rows_read_total",
			Help:      "Total archive rows read from the source file.",
		}),
		RowsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_archive",
			Name:      "rows_malformed_total",
			Help:      "Total rows rejected during parsing.",
		}),
		StormsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_archive",
			Name:      "storms_built_total",
			Help:      "Total storms merged and assembled successfully.",
		}),
		StormsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_archive",
			Name:      "storms_failed_total",
			Help:      "Total storms rejected for identity conflicts or corrupt tracks.",
		}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_archive",
			Name:      "duplicate_storms_dropped_total",
			Help:      "Total rereported storms dropped in favor of a longer record.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_archive",
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete rows-to-collection build.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),
		CollectionStorms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_archive",
			Name:      "collection_storms",
			Help:      "Storms in the currently served collection.",
		}),
		CollectionObservations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_archive",
			Name:      "collection_observations",
			Help:      "Observations across the currently served collection.",
		}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storm_archive",
			Name:      "store_duration_seconds",
			Help:      "Duration of persistence operations by backend.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}, []string{"backend", "op"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storm_archive",
			Name:      "request_duration_seconds",
			Help:      "HTTP API request duration by route and status code.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "code"}),
	}

	prometheus.MustRegister(
		m.RowsRead,
		m.RowsMalformed,
		m.StormsBuilt,
		m.StormsFailed,
		m.DuplicatesDropped,
		m.BuildDuration,
		m.CollectionStorms,
		m.CollectionObservations,
		m.StoreDuration,
		m.RequestDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsRead:               prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_archive", Name: "rows_read_total"}),
		RowsMalformed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_archive", Name: "rows_malformed_total"}),
		StormsBuilt:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_archive", Name: "storms_built_total"}),
		StormsFailed:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_archive", Name: "storms_failed_total"}),
		DuplicatesDropped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "storm_archive", Name: "duplicate_storms_dropped_total"}),
		BuildDuration:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "storm_archive", Name: "build_duration_seconds"}),
		CollectionStorms:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_archive", Name: "collection_storms"}),
		CollectionObservations: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "storm_archive", Name: "collection_observations"}),
		StoreDuration:          prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "storm_archive", Name: "store_duration_seconds"}, []string{"backend", "op"}),
		RequestDuration:        prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "storm_archive", Name: "request_duration_seconds"}, []string{"route", "code"}),
	}
}
