package aquaox

import (
	"math"

	"github.com/shopspring/decimal"
)

// truncate2 cuts x toward zero after the second decimal place. Every reported
// quantity goes through it; results are compared at fixed precision, so it must
// never round.
//
// The cut is applied to the binary value: 0.29 is stored as 0.28999999999999998,
// so truncate2(0.29) is 0.28. Infinities and NaN are returned unchanged.
func truncate2(x float64) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	cents := math.Trunc(x * 100)
	if math.IsInf(cents, 0) {
		return x
	}
	v, _ := decimal.NewFromFloat(cents).Shift(-2).Float64()
	return v
}
