package svm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Kernel width heuristics accepted by ResolveGamma.
const (
	GammaAuto  = "auto"  // 1 / n_features
	GammaScale = "scale" // 1 / (n_features * var(x))
)

// RBF is the Gaussian kernel exp(-gamma * |a-b|^2).
type RBF struct {
	Gamma float64
}

// Eval returns the kernel value for two vectors of equal length.
func (k RBF) Eval(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return math.Exp(-k.Gamma * d * d)
}

// ResolveGamma turns a gamma setting into a kernel width for x. The setting
// is GammaAuto, GammaScale, or a positive number. An empty setting means
// GammaAuto.
func ResolveGamma(setting string, x mat.Matrix) (float64, error) {
	r, c := x.Dims()
	if c == 0 {
		return 0, dimErrorf("cannot derive gamma for zero features")
	}
	switch strings.ToLower(strings.TrimSpace(setting)) {
	case "", GammaAuto:
		return 1 / float64(c), nil
	case GammaScale:
		all := make([]float64, 0, r*c)
		row := make([]float64, c)
		for i := 0; i < r; i++ {
			all = append(all, mat.Row(row, i, x)...)
		}
		_, v := stat.PopMeanVariance(all, nil)
		if v == 0 {
			return 1, nil
		}
		return 1 / (float64(c) * v), nil
	}
	g, err := strconv.ParseFloat(setting, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid gamma %q: want %q, %q or a number", setting, GammaAuto, GammaScale)
	}
	if !(g > 0) || math.IsInf(g, 0) {
		return 0, fmt.Errorf("gamma must be positive and finite, got %g", g)
	}
	return g, nil
}

// gram returns the symmetric kernel matrix of the rows of x.
func gram(k RBF, x mat.Matrix) *mat.SymDense {
	n, c := x.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(make([]float64, c), i, x)
	}
	g := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		g.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			g.SetSym(i, j, k.Eval(rows[i], rows[j]))
		}
	}
	return g
}
