package aquaox

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//--------------------------------------
// Oxygen saturation table
//--------------------------------------

const (
	// MinTableInput and MaxTableInput bound both temperature (°C) and salinity (ppt).
	MinTableInput = 0.0
	MaxTableInput = 40.0
)

// SaturationLookup returns the oxygen saturation concentration at a temperature (°C)
// and salinity (ppt).
type SaturationLookup interface {
	Saturation(temperature, salinity float64) (float64, error)
}

// SaturationTable is a loaded-once saturation matrix indexed by integer temperature
// (rows) and discretized salinity (columns). It is never mutated after construction
// and is safe for concurrent lookups.
type SaturationTable struct {
	values   *mat.Dense
	tempStep float64 // temperature axis step (°C), informational
	salStep  float64 // salinity axis step (ppt)
	unit     string  // concentration unit, e.g. "mg/L"
}

var _ SaturationLookup = (*SaturationTable)(nil)

// NewSaturationTable copies data into a new table. data[t][s] is the concentration at
// integer temperature t and salinity index s. Every row must have the same length.
func NewSaturationTable(data [][]float64, temperatureStep, salinityStep float64, unit string) (*SaturationTable, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, &DataFormatError{Err: fmt.Errorf("empty saturation matrix")}
	}
	if !(salinityStep > 0) || math.IsInf(salinityStep, 0) {
		return nil, &DataFormatError{Err: fmt.Errorf("salinity step must be positive, got %g", salinityStep)}
	}

	cols := len(data[0])
	raw := make([]float64, 0, len(data)*cols)
	for i, row := range data {
		if len(row) != cols {
			return nil, &DataFormatError{Err: fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)}
		}
		raw = append(raw, row...)
	}

	return &SaturationTable{
		values:   mat.NewDense(len(data), cols, raw),
		tempStep: temperatureStep,
		salStep:  salinityStep,
		unit:     unit,
	}, nil
}

func (t *SaturationTable) TemperatureStep() float64 { return t.tempStep }
func (t *SaturationTable) SalinityStep() float64    { return t.salStep }
func (t *SaturationTable) Unit() string             { return t.unit }

// Dims returns the number of temperature rows and salinity columns.
func (t *SaturationTable) Dims() (rows, cols int) { return t.values.Dims() }

// TemperatureIndex maps a temperature to its table row by rounding half to even,
// so 20.5 selects row 20 and 21.5 selects row 22.
func TemperatureIndex(temperature float64) int {
	return int(math.RoundToEven(temperature))
}

// SalinityIndex maps a salinity to its table column: floor(salinity / step).
func (t *SaturationTable) SalinityIndex(salinity float64) int {
	return int(math.Floor(salinity / t.salStep))
}

// Saturation returns the stored concentration of the cell selected by temperature and
// salinity. No interpolation is performed between cells.
func (t *SaturationTable) Saturation(temperature, salinity float64) (float64, error) {
	if err := checkTableRange(temperature, salinity); err != nil {
		return 0, err
	}

	row := TemperatureIndex(temperature)
	col := t.SalinityIndex(salinity)
	rows, cols := t.values.Dims()
	if row >= rows || col >= cols {
		return 0, &TableBoundsError{
			Temperature: temperature,
			Salinity:    salinity,
			Row:         row,
			Col:         col,
			Rows:        rows,
			Cols:        cols,
		}
	}
	return t.values.At(row, col), nil
}

// CheckCoverage verifies that every temperature and salinity in the table domain
// maps onto a cell.
func (t *SaturationTable) CheckCoverage() error {
	rows, cols := t.values.Dims()
	if need := TemperatureIndex(MaxTableInput) + 1; rows < need {
		return &DataFormatError{Err: fmt.Errorf("table has %d temperature rows, need %d", rows, need)}
	}
	if need := t.SalinityIndex(MaxTableInput) + 1; cols < need {
		return &DataFormatError{Err: fmt.Errorf("table has %d salinity columns, need %d for step %g", cols, need, t.salStep)}
	}
	return nil
}

// TableSummary describes a loaded table.
type TableSummary struct {
	Rows            int
	Cols            int
	Unit            string
	TemperatureStep float64
	SalinityStep    float64
	Min             float64 // lowest concentration in the table
	Max             float64 // highest concentration in the table
}

// Summary reports the table shape and concentration range.
func (t *SaturationTable) Summary() TableSummary {
	rows, cols := t.values.Dims()
	data := t.values.RawMatrix().Data
	return TableSummary{
		Rows:            rows,
		Cols:            cols,
		Unit:            t.unit,
		TemperatureStep: t.tempStep,
		SalinityStep:    t.salStep,
		Min:             floats.Min(data),
		Max:             floats.Max(data),
	}
}

// checkTableRange validates both lookup arguments before any index is computed.
func checkTableRange(temperature, salinity float64) error {
	var bad []string
	if !inTableRange(temperature) {
		bad = append(bad, "temperature")
	}
	if !inTableRange(salinity) {
		bad = append(bad, "salinity")
	}
	if bad == nil {
		return nil
	}
	return &OutOfRangeError{
		Temperature: temperature,
		Salinity:    salinity,
		Arguments:   bad,
		Min:         MinTableInput,
		Max:         MaxTableInput,
	}
}

func inTableRange(v float64) bool {
	return MinTableInput <= v && v <= MaxTableInput
}
