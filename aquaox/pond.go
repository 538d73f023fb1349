package aquaox

import (
	"encoding/json"
	"math"
)

//--------------------------------------
// Paddlewheel aeration of shrimp ponds
//--------------------------------------

const (
	// DefaultEfficiency is the transfer efficiency assumed by EstimateSOTR.
	DefaultEfficiency = 0.9

	// HorsepowerToKilowatt converts rated aerator horsepower to kW.
	HorsepowerToKilowatt = 0.746

	// ReferenceTemperature is the standard condition for SOTR (°C).
	ReferenceTemperature = 20.0

	// Theta is the per-degree temperature correction factor for kLa.
	Theta = 1.024

	// mg/L to kg/m³
	concentrationToMass = 0.001
)

// nominalSOTRPerHP is the catalogue transfer rate of known aerator models (kg O₂/h per hp).
var nominalSOTRPerHP = map[string]float64{
	"Generic Paddlewheel": 1.8,
}

// ShrimpPond derives oxygen transfer metrics for a paddlewheel-aerated pond from a
// saturation lookup. It holds no mutable state.
type ShrimpPond struct {
	lookup SaturationLookup
}

// NewShrimpPond builds a calculator over the given lookup.
func NewShrimpPond(lookup SaturationLookup) *ShrimpPond {
	return &ShrimpPond{lookup: lookup}
}

// Saturation returns the oxygen saturation concentration at temperature (°C) and salinity (ppt).
func (p *ShrimpPond) Saturation(temperature, salinity float64) (float64, error) {
	return p.lookup.Saturation(temperature, salinity)
}

// BasicSOTR is a first-order oxygen transfer estimate without timed test data:
// saturation (kg/m³) × volume (m³) × efficiency, truncated to two decimals.
func (p *ShrimpPond) BasicSOTR(temperature, salinity, volume, efficiency float64) (float64, error) {
	saturation, err := p.lookup.Saturation(temperature, salinity)
	if err != nil {
		return 0, err
	}
	return truncate2(saturation * concentrationToMass * volume * efficiency), nil
}

// EstimateSOTR is BasicSOTR at DefaultEfficiency.
func (p *ShrimpPond) EstimateSOTR(temperature, salinity, volume float64) (float64, error) {
	return p.BasicSOTR(temperature, salinity, volume, DefaultEfficiency)
}

// AerationTest is one timed re-aeration test of an aerator in a pond.
type AerationTest struct {
	Temperature float64 `json:"temperature"` // water temperature (°C)
	Salinity    float64 `json:"salinity"`    // salinity (ppt)
	Horsepower  float64 `json:"hp"`          // rated aerator power (hp)
	Volume      float64 `json:"volume"`      // pond volume (m³)
	T10         float64 `json:"t10"`         // time to 10% deficit recovery (min)
	T70         float64 `json:"t70"`         // time to 70% deficit recovery (min)
	KWhPrice    float64 `json:"kwh_price"`   // electricity price (currency/kWh)
	AeratorID   string  `json:"aerator_id"`  // "<brand> <type>"
}

// AerationMetrics is the result of an AerationTest.
type AerationMetrics struct {
	Volume      float64 // pond volume (m³)
	Cs          float64 // saturation at test temperature (mg/L)
	KLaT        float64 // mass-transfer coefficient at test temperature (h⁻¹)
	KLa20       float64 // mass-transfer coefficient at 20 °C (h⁻¹)
	SOTR        float64 // standard oxygen transfer rate (kg O₂/h)
	SAE         float64 // standard aeration efficiency (kg O₂/kWh)
	CostPerKgO2 float64 // electricity cost per kg O₂, +Inf when SAE is 0
	PowerKW     float64 // rated power (kW)
	AeratorID   string  // aerator identifier with canonical brand
}

// CostUnbounded reports whether no oxygen is transferred per kWh, leaving the cost infinite.
func (m AerationMetrics) CostUnbounded() bool {
	return math.IsInf(m.CostPerKgO2, 1)
}

// MarshalJSON encodes an unbounded cost as null with cost_unbounded set.
func (m AerationMetrics) MarshalJSON() ([]byte, error) {
	var cost *float64
	if !m.CostUnbounded() {
		cost = &m.CostPerKgO2
	}
	return json.Marshal(struct {
		Volume        float64  `json:"pond_volume_m3"`
		Cs            float64  `json:"cs_mg_l"`
		KLaT          float64  `json:"kla_t_per_h"`
		KLa20         float64  `json:"kla20_per_h"`
		SOTR          float64  `json:"sotr_kg_o2_h"`
		SAE           float64  `json:"sae_kg_o2_kwh"`
		CostPerKgO2   *float64 `json:"cost_per_kg_o2"`
		CostUnbounded bool     `json:"cost_unbounded"`
		PowerKW       float64  `json:"power_kw"`
		AeratorID     string   `json:"normalized_aerator_id"`
	}{
		Volume:        m.Volume,
		Cs:            m.Cs,
		KLaT:          m.KLaT,
		KLa20:         m.KLa20,
		SOTR:          m.SOTR,
		SAE:           m.SAE,
		CostPerKgO2:   cost,
		CostUnbounded: m.CostUnbounded(),
		PowerKW:       m.PowerKW,
		AeratorID:     m.AeratorID,
	})
}

// AerationMetrics derives SOTR, SAE and cost per kg O₂ from a t10→t70 re-aeration test.
//
// The observed kLa is 1 / ((t70 - t10) / 60) h⁻¹, corrected to 20 °C with
// kLa20 = kLaT × 1.024^(20 - T). SOTR = kLa20 × Cs20 (kg/m³) × volume.
// SOTR, SAE, cost and power are truncated to two decimals.
func (p *ShrimpPond) AerationMetrics(test AerationTest) (AerationMetrics, error) {
	aeratorID := NormalizeAeratorID(test.AeratorID)

	powerKW := truncate2(test.Horsepower * HorsepowerToKilowatt)

	cs, err := p.lookup.Saturation(test.Temperature, test.Salinity)
	if err != nil {
		return AerationMetrics{}, err
	}
	cs20, err := p.lookup.Saturation(ReferenceTemperature, test.Salinity)
	if err != nil {
		return AerationMetrics{}, err
	}
	cs20Mass := cs20 * concentrationToMass

	if !(test.T70 > test.T10) {
		return AerationMetrics{}, &InvalidTestDataError{T10: test.T10, T70: test.T70}
	}
	klaT := 1.0 / ((test.T70 - test.T10) / 60)
	kla20 := klaT * math.Pow(Theta, ReferenceTemperature-test.Temperature)

	sotr := truncate2(kla20 * cs20Mass * test.Volume)

	var sae float64
	if powerKW > 0 {
		sae = sotr / powerKW
	}
	sae = truncate2(sae)

	cost := math.Inf(1)
	if sae > 0 {
		cost = test.KWhPrice / sae
	}
	cost = truncate2(cost)

	return AerationMetrics{
		Volume:      test.Volume,
		Cs:          cs,
		KLaT:        klaT,
		KLa20:       kla20,
		SOTR:        sotr,
		SAE:         sae,
		CostPerKgO2: cost,
		PowerKW:     powerKW,
		AeratorID:   aeratorID,
	}, nil
}

// NominalSOTR returns the catalogue transfer rate of an aerator model at hp,
// truncated to two decimals. ok is false for models without a catalogue rating.
func NominalSOTR(aeratorID string, hp float64) (sotr float64, ok bool) {
	rate, ok := nominalSOTRPerHP[NormalizeAeratorID(aeratorID)]
	if !ok {
		return 0, false
	}
	return truncate2(rate * hp), true
}

// IdealVolume is the pond volume (m³) one aerator of hp horsepower is sized for.
// It is not the inverse of IdealHorsepower.
func IdealVolume(hp float64) float64 {
	switch hp {
	case 2:
		return 40
	case 3:
		return 70
	default:
		return hp * 25
	}
}

// IdealHorsepower is the aerator rating (hp) recommended for a pond volume (m³).
// It is not the inverse of IdealVolume: IdealVolume(IdealHorsepower(50)) is 70.
func IdealHorsepower(volume float64) int {
	switch {
	case volume <= 40:
		return 2
	case volume <= 70:
		return 3
	default:
		return max(2, int(math.Floor(volume/25)))
	}
}
