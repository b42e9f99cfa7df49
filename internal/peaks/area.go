package peaks

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// RangeError reports an integration interval that is not inside the
// spectrum's wavelength domain.
type RangeError struct {
	A, B     float64 // requested interval
	Min, Max float64 // domain
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("interval [%g, %g] outside wavelength domain [%g, %g]", e.A, e.B, e.Min, e.Max)
}

// Area integrates intensities over the points whose wavelength lies in
// [a, b] using the trapezoidal rule. wavelengths must be ascending. Fewer
// than two points in range give zero area. Both bounds must lie within the
// domain, otherwise a *RangeError is returned.
func Area(wavelengths, intensities []float64, a, b float64) (float64, error) {
	if len(wavelengths) == 0 {
		return 0, &RangeError{A: a, B: b, Min: math.NaN(), Max: math.NaN()}
	}
	lo, hi := floats.Min(wavelengths), floats.Max(wavelengths)
	if !inside(a, lo, hi) || !inside(b, lo, hi) {
		return 0, &RangeError{A: a, B: b, Min: lo, Max: hi}
	}

	start := sort.SearchFloat64s(wavelengths, a)
	end := sort.Search(len(wavelengths), func(i int) bool { return wavelengths[i] > b })
	if end-start < 2 {
		return 0, nil
	}
	return integrate.Trapezoidal(wavelengths[start:end], intensities[start:end]), nil
}

func inside(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
