package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Calculation outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid" // rejected input: out of range, bad test data, unparsable request
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors for saturation and aeration calculations.
type Metrics struct {
	Calculations        *prometheus.CounterVec   // labels: operation, outcome={success,invalid,error}
	CalculationDuration *prometheus.HistogramVec // labels: operation
	TableCells          prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Calculations,
		m.CalculationDuration,
		m.TableCells,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aquaox",
			Name:      "calculations_total",
			Help:      "Calculations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		CalculationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aquaox",
			Name:      "calculation_duration_seconds",
			Help:      "Calculation latency in seconds.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.1, 1},
		}, []string{"operation"}),
		TableCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aquaox",
			Name:      "table_cells",
			Help:      "Number of cells in the loaded saturation table.",
		}),
	}
}

// Record counts one calculation and observes its duration.
func (m *Metrics) Record(operation, outcome string, elapsed time.Duration) {
	m.Calculations.WithLabelValues(operation, outcome).Inc()
	m.CalculationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
