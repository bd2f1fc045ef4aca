package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "radon_etl"

// Metrics holds the Prometheus collectors for one cleaning run. They are
// exported as a node-exporter textfile, not served over HTTP.
type Metrics struct {
	RowsRead        *prometheus.CounterVec // labels: table={sites,counties}
	RowsDropped     *prometheus.CounterVec // labels: reason={unmatched,duplicate,missing_county}
	RowsLoaded      *prometheus.CounterVec // labels: sink
	RunDuration     prometheus.Histogram
	RunFailures     prometheus.Counter
	LastSuccessTime prometheus.Gauge

	gatherer prometheus.Gatherer
}

func newCollectors() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Rows read from each input table.",
		}, []string{"table"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Site rows filtered out by the transform, by reason.",
		}, []string{"reason"}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Cleaned rows written to each sink.",
		}, []string{"sink"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Runs aborted by an error.",
		}),
		LastSuccessTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsRead,
		m.RowsDropped,
		m.RowsLoaded,
		m.RunDuration,
		m.RunFailures,
		m.LastSuccessTime,
	}
}

// NewMetrics creates all run metrics on a private registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	m.gatherer = reg
	return m
}

// Gatherer exposes the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// WriteTextfile writes the current metric values in the text exposition
// format. The file is written to a temporary name and renamed, so a
// collector never reads a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
