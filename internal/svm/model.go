package svm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Params configures Fit.
type Params struct {
	C       float64 // box constraint on the dual coefficients
	Gamma   string  // GammaAuto, GammaScale or a positive number
	Tol     float64 // stopping tolerance on the KKT gap
	MaxIter int
}

// DefaultParams matches libsvm's C-SVC defaults with gamma set to "auto".
func DefaultParams() Params {
	return Params{C: 1, Gamma: GammaAuto, Tol: 1e-3, MaxIter: 10000000}
}

// Validate checks that p can be used by Fit.
func (p Params) Validate() error {
	if !(p.C > 0) || math.IsInf(p.C, 0) {
		return fmt.Errorf("C must be positive and finite, got %g", p.C)
	}
	if !(p.Tol > 0) || math.IsInf(p.Tol, 0) {
		return fmt.Errorf("tolerance must be positive and finite, got %g", p.Tol)
	}
	if p.MaxIter <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", p.MaxIter)
	}
	return nil
}

// Model is a fitted classifier. It is not modified after Fit returns.
type Model struct {
	Kernel  RBF
	Classes [2]float64 // negative, positive
	Rho     float64

	features int
	support  [][]float64
	coef     []float64 // alpha_i * y_i for each support vector
	iter     int
}

// Fit trains a classifier on the rows of x. labels must hold exactly two
// distinct values and one entry per row.
func Fit(x mat.Matrix, labels []float64, p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r, c := x.Dims()
	if r != len(labels) {
		return nil, dimErrorf("%d rows but %d labels", r, len(labels))
	}
	if r == 0 || c == 0 {
		return nil, dimErrorf("cannot fit a %dx%d matrix", r, c)
	}
	classes, err := twoClasses(labels)
	if err != nil {
		return nil, err
	}
	gamma, err := ResolveGamma(p.Gamma, x)
	if err != nil {
		return nil, err
	}

	y := make([]float64, r)
	for i, l := range labels {
		y[i] = -1
		if l == classes[1] {
			y[i] = 1
		}
	}

	k := RBF{Gamma: gamma}
	s := newSolver(gram(k, x), y, p.C, p.Tol)
	iter := s.solve(p.MaxIter)

	m := &Model{Kernel: k, Classes: classes, Rho: s.rho(), features: c, iter: iter}
	for i, a := range s.alpha {
		if a == 0 {
			continue
		}
		m.support = append(m.support, mat.Row(nil, i, x))
		m.coef = append(m.coef, a*y[i])
	}
	return m, nil
}

func twoClasses(labels []float64) ([2]float64, error) {
	seen := make(map[float64]struct{})
	for _, l := range labels {
		if math.IsNaN(l) {
			return [2]float64{}, dimErrorf("label is NaN")
		}
		seen[l] = struct{}{}
	}
	if len(seen) != 2 {
		return [2]float64{}, dimErrorf("need exactly 2 distinct labels, got %d", len(seen))
	}
	var cls []float64
	for l := range seen {
		cls = append(cls, l)
	}
	sort.Float64s(cls)
	return [2]float64{cls[0], cls[1]}, nil
}

// Features returns the number of features the model was fitted on.
func (m *Model) Features() int { return m.features }

// SupportVectors returns the number of support vectors.
func (m *Model) SupportVectors() int { return len(m.support) }

// Iterations returns the number of solver steps Fit took.
func (m *Model) Iterations() int { return m.iter }

// Decision returns the signed decision value for one feature vector. A
// positive value predicts Classes[1]. It panics if len(v) does not match the
// fitted feature count.
func (m *Model) Decision(v []float64) float64 {
	if len(v) != m.Features() {
		panic(dimErrorf("model fitted on %d features, got %d", m.Features(), len(v)))
	}
	var sum float64
	for i, sv := range m.support {
		sum += m.coef[i] * m.Kernel.Eval(sv, v)
	}
	return sum - m.Rho
}

// DecisionFunction returns the decision value of every row of x.
func (m *Model) DecisionFunction(x mat.Matrix) ([]float64, error) {
	r, c := x.Dims()
	if c != m.Features() {
		return nil, dimErrorf("model fitted on %d features, got %d", m.Features(), c)
	}
	out := make([]float64, r)
	row := make([]float64, c)
	for i := range out {
		out[i] = m.Decision(mat.Row(row, i, x))
	}
	return out, nil
}

// Predict returns the predicted label of every row of x.
func (m *Model) Predict(x mat.Matrix) ([]float64, error) {
	scores, err := m.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = m.label(s)
	}
	return out, nil
}

func (m *Model) label(score float64) float64 {
	if score > 0 {
		return m.Classes[1]
	}
	return m.Classes[0]
}

// Score returns the fraction of rows of x whose predicted label equals the
// matching entry of labels.
func (m *Model) Score(x mat.Matrix, labels []float64) (float64, error) {
	r, _ := x.Dims()
	if r != len(labels) {
		return 0, dimErrorf("%d rows but %d labels", r, len(labels))
	}
	pred, err := m.Predict(x)
	if err != nil {
		return 0, err
	}
	return Accuracy(pred, labels), nil
}

// Accuracy returns the fraction of equal entries in pred and want, which
// must have the same length. It is zero for empty input.
func Accuracy(pred, want []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	hits := make([]float64, len(pred))
	for i := range pred {
		if pred[i] == want[i] {
			hits[i] = 1
		}
	}
	return stat.Mean(hits, nil)
}
