package aquaox

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ShrimpPond_EstimateSOTR(t *testing.T) {
	pond := NewShrimpPond(pondTable(t))

	// 7.2 mg/L * 0.001 * 1000 m³ * 0.9 = 6.480000000000001
	sotr, err := pond.EstimateSOTR(28, 5, 1000)
	require.NoError(t, err)
	assert.Equal(t, 6.48, sotr)

	sotr, err = pond.BasicSOTR(28, 5, 1000, 1)
	require.NoError(t, err)
	assert.Equal(t, 7.2, sotr)

	// 7.0 * 0.001 * 1234 * 0.8 = 6.9104
	sotr, err = pond.BasicSOTR(10, 10, 1234, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 6.91, sotr)
}

// 5.8 * 0.001 * 100 * 0.5 is stored as 0.28999999999999998 and truncates to 0.28.
func Test_ShrimpPond_BasicSOTR_TruncatesBinaryValue(t *testing.T) {
	data := make([][]float64, 41)
	for i := range data {
		data[i] = make([]float64, 81)
		for j := range data[i] {
			data[i][j] = 5.8
		}
	}
	table, err := NewSaturationTable(data, 1, 0.5, "mg/L")
	require.NoError(t, err)

	sotr, err := NewShrimpPond(table).BasicSOTR(30, 20, 100, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.28, sotr)
}

func Test_ShrimpPond_EstimateSOTR_OutOfRange(t *testing.T) {
	pond := NewShrimpPond(pondTable(t))

	_, err := pond.EstimateSOTR(45, 10, 1000)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = pond.EstimateSOTR(20, -1, 1000)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func Test_ShrimpPond_AerationMetrics(t *testing.T) {
	pond := NewShrimpPond(pondTable(t))

	m, err := pond.AerationMetrics(AerationTest{
		Temperature: 20,
		Salinity:    5,
		Horsepower:  2,
		Volume:      1000,
		T10:         1.5,
		T70:         21.5,
		KWhPrice:    0.5,
		AeratorID:   "pentairr Paddlewheel",
	})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, m.Volume)
	assert.Equal(t, 9.09, m.Cs)
	assert.Equal(t, 3.0, m.KLaT)
	assert.Equal(t, 3.0, m.KLa20)
	assert.Equal(t, 1.49, m.PowerKW)
	assert.Equal(t, 27.27, m.SOTR)
	assert.Equal(t, 18.3, m.SAE)
	assert.Equal(t, 0.02, m.CostPerKgO2)
	assert.Equal(t, "Pentair Paddlewheel", m.AeratorID)
	assert.False(t, m.CostUnbounded())
}

func Test_ShrimpPond_AerationMetrics_TemperatureCorrection(t *testing.T) {
	pond := NewShrimpPond(pondTable(t))

	m, err := pond.AerationMetrics(AerationTest{
		Temperature: 28,
		Salinity:    5,
		Horsepower:  3,
		Volume:      1000,
		T10:         2,
		T70:         12,
		KWhPrice:    1.2,
		AeratorID:   "Sagar",
	})
	require.NoError(t, err)

	// Cs is read at the test temperature, SOTR uses Cs at 20 °C.
	assert.Equal(t, 7.2, m.Cs)
	assert.Equal(t, 6.0, m.KLaT)
	assert.InDelta(t, 4.963083675318165, m.KLa20, 1e-12)
	assert.Equal(t, 2.23, m.PowerKW)
	assert.Equal(t, 45.11, m.SOTR)
	assert.Equal(t, 20.22, m.SAE)
	assert.Equal(t, 0.05, m.CostPerKgO2)
	assert.Equal(t, "Sagar Unknown", m.AeratorID)
}

func Test_ShrimpPond_AerationMetrics_InvalidTestData(t *testing.T) {
	pond := NewShrimpPond(pondTable(t))

	for _, t70 := range []float64{5, 4} {
		_, err := pond.AerationMetrics(AerationTest{
			Temperature: 20, Salinity: 5, Horsepower: 2, Volume: 1000,
			T10: 5, T70: t70, KWhPrice: 0.1,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTestData))
	}
}

// Range errors come from the saturation lookups and take precedence over bad timings.
func Test_ShrimpPond_AerationMetrics_OutOfRangeFirst(t *testing.T) {
	pond := NewShrimpPond(pondTable(t))

	_, err := pond.AerationMetrics(AerationTest{
		Temperature: 20, Salinity: 41, Horsepower: 2, Volume: 1000,
		T10: 5, T70: 5, KWhPrice: 0.1,
	})
	assert.True(t, errors.Is(err, ErrOutOfRange))
	assert.False(t, errors.Is(err, ErrInvalidTestData))
}

func Test_ShrimpPond_AerationMetrics_ZeroPower(t *testing.T) {
	pond := NewShrimpPond(pondTable(t))

	m, err := pond.AerationMetrics(AerationTest{
		Temperature: 20, Salinity: 5, Horsepower: 0, Volume: 1000,
		T10: 1.5, T70: 21.5, KWhPrice: 0.1, AeratorID: "",
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.PowerKW)
	assert.Equal(t, 27.27, m.SOTR)
	assert.Equal(t, 0.0, m.SAE)
	assert.True(t, math.IsInf(m.CostPerKgO2, 1))
	assert.True(t, m.CostUnbounded())
	assert.Equal(t, "Generic Unknown", m.AeratorID)

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Nil(t, doc["cost_per_kg_o2"])
	assert.Contains(t, doc, "cost_per_kg_o2")
	assert.Equal(t, true, doc["cost_unbounded"])
	assert.Equal(t, 27.27, doc["sotr_kg_o2_h"])
}

func Test_AerationMetrics_MarshalJSON(t *testing.T) {
	m := AerationMetrics{
		Volume: 1000, Cs: 9.09, KLaT: 3, KLa20: 3, SOTR: 27.27, SAE: 18.3,
		CostPerKgO2: 0.02, PowerKW: 1.49, AeratorID: "Pentair Paddlewheel",
	}
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"pond_volume_m3": 1000,
		"cs_mg_l": 9.09,
		"kla_t_per_h": 3,
		"kla20_per_h": 3,
		"sotr_kg_o2_h": 27.27,
		"sae_kg_o2_kwh": 18.3,
		"cost_per_kg_o2": 0.02,
		"cost_unbounded": false,
		"power_kw": 1.49,
		"normalized_aerator_id": "Pentair Paddlewheel"
	}`, string(raw))
}

func Test_NominalSOTR(t *testing.T) {
	sotr, ok := NominalSOTR("generic Paddlewheel", 3.5)
	assert.True(t, ok)
	assert.Equal(t, 6.3, sotr)

	_, ok = NominalSOTR("Pentair Paddlewheel", 2)
	assert.False(t, ok)
}

func Test_IdealVolume(t *testing.T) {
	assert.Equal(t, 40.0, IdealVolume(2))
	assert.Equal(t, 70.0, IdealVolume(3))
	assert.Equal(t, 125.0, IdealVolume(5))
	assert.Equal(t, 25.0, IdealVolume(1))
}

func Test_IdealHorsepower(t *testing.T) {
	cases := []struct {
		volume float64
		want   int
	}{
		{0, 2},
		{40, 2},
		{40.1, 3},
		{70, 3},
		{70.1, 2},
		{100, 4},
		{125, 5},
		{149, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IdealHorsepower(tc.volume), "volume %g", tc.volume)
	}
}

// The two sizing rules are not inverses of each other.
func Test_Sizing_NotInverse(t *testing.T) {
	assert.Equal(t, 70.0, IdealVolume(float64(IdealHorsepower(50))))
	assert.Equal(t, 40.0, IdealVolume(float64(IdealHorsepower(10))))
}
