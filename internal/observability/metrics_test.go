package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Metrics_Record(t *testing.T) {
	m := NewMetricsForTesting()

	m.Record("saturation", OutcomeSuccess, time.Millisecond)
	m.Record("saturation", OutcomeSuccess, time.Millisecond)
	m.Record("saturation", OutcomeInvalid, time.Millisecond)
	m.Record("aeration", OutcomeError, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Calculations.WithLabelValues("saturation", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues("saturation", OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues("aeration", OutcomeError)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.CalculationDuration))
}

func Test_NewMetrics_RegistersDefault(t *testing.T) {
	reg := prometheus.NewRegistry()
	orig := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = reg
	t.Cleanup(func() { prometheus.DefaultRegisterer = orig })

	m := NewMetrics()
	m.TableCells.Set(3321)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "aquaox_table_cells")
	assert.Equal(t, 3321.0, testutil.ToFloat64(m.TableCells))
}
