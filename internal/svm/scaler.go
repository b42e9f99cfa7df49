package svm

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler standardises each feature to zero mean and unit variance using the
// population standard deviation. Constant features keep a scale of 1.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler learns per-column mean and scale from x.
func FitScaler(x mat.Matrix) (*Scaler, error) {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return nil, dimErrorf("cannot fit scaler on a %dx%d matrix", r, c)
	}

	s := &Scaler{Mean: make([]float64, c), Scale: make([]float64, c)}
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[j] = mean
		s.Scale[j] = 1
		if !isConstant(mean, variance, r) {
			s.Scale[j] = math.Sqrt(variance)
		}
	}
	return s, nil
}

// isConstant treats a variance within accumulated rounding error of zero as
// zero.
func isConstant(mean, variance float64, n int) bool {
	const eps = 0x1p-52
	nf := float64(n)
	bound := nf*eps*variance + (nf*mean*eps)*(nf*mean*eps)
	return variance <= bound
}

// Features returns the number of columns the scaler was fitted on.
func (s *Scaler) Features() int { return len(s.Mean) }

// Transform returns a standardised copy of x.
func (s *Scaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	r, c := x.Dims()
	if c != s.Features() {
		return nil, dimErrorf("scaler fitted on %d features, got %d", s.Features(), c)
	}
	if r == 0 {
		return nil, dimErrorf("no rows to transform")
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, x)
	return out, nil
}

// TransformRow standardises a single feature vector.
func (s *Scaler) TransformRow(row []float64) ([]float64, error) {
	if len(row) != s.Features() {
		return nil, dimErrorf("scaler fitted on %d features, got %d", s.Features(), len(row))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}
