package svm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/spectro.report/internal/monitoring"
)

// tau replaces a non-positive curvature in the two-variable subproblem.
const tau = 1e-12

// solver holds the dual problem
//
//	min 0.5 a'Qa - e'a  subject to  0 <= a_i <= C, y'a = 0
//
// with Q_ij = y_i y_j K_ij.
type solver struct {
	k     *mat.SymDense
	y     []float64 // +1 or -1
	c     float64
	eps   float64
	alpha []float64
	grad  []float64 // gradient of the objective, Qa - e
}

func newSolver(k *mat.SymDense, y []float64, c, eps float64) *solver {
	n := len(y)
	s := &solver{
		k:     k,
		y:     y,
		c:     c,
		eps:   eps,
		alpha: make([]float64, n),
		grad:  make([]float64, n),
	}
	for i := range s.grad {
		s.grad[i] = -1
	}
	return s
}

func (s *solver) q(i, j int) float64 {
	return s.y[i] * s.y[j] * s.k.At(i, j)
}

func (s *solver) atUpper(i int) bool { return s.alpha[i] >= s.c }
func (s *solver) atLower(i int) bool { return s.alpha[i] <= 0 }

// selectPair returns the maximal violating pair chosen with second order
// information, or ok=false once the KKT gap is below eps.
func (s *solver) selectPair() (i, j int, ok bool) {
	gmax, gmax2 := math.Inf(-1), math.Inf(-1)
	i = -1
	for t := range s.y {
		if s.y[t] > 0 {
			if !s.atUpper(t) && -s.grad[t] >= gmax {
				gmax, i = -s.grad[t], t
			}
		} else if !s.atLower(t) && s.grad[t] >= gmax {
			gmax, i = s.grad[t], t
		}
	}

	j = -1
	best := math.Inf(1)
	for t := range s.y {
		var diff float64
		if s.y[t] > 0 {
			if s.atLower(t) {
				continue
			}
			diff = gmax + s.grad[t]
			gmax2 = math.Max(gmax2, s.grad[t])
		} else {
			if s.atUpper(t) {
				continue
			}
			diff = gmax - s.grad[t]
			gmax2 = math.Max(gmax2, -s.grad[t])
		}
		if i < 0 || diff <= 0 {
			continue
		}
		quad := s.k.At(i, i) + s.k.At(t, t) - 2*s.k.At(i, t)
		if quad <= 0 {
			quad = tau
		}
		if obj := -diff * diff / quad; obj <= best {
			best, j = obj, t
		}
	}

	if gmax+gmax2 < s.eps || j < 0 {
		return 0, 0, false
	}
	return i, j, true
}

// step solves the two-variable subproblem for i and j analytically and
// updates the gradient.
func (s *solver) step(i, j int) {
	c := s.c
	ai, aj := s.alpha[i], s.alpha[j]
	qij := s.q(i, j)

	if s.y[i] != s.y[j] {
		quad := s.k.At(i, i) + s.k.At(j, j) + 2*qij
		if quad <= 0 {
			quad = tau
		}
		delta := (-s.grad[i] - s.grad[j]) / quad
		diff := ai - aj
		ai += delta
		aj += delta
		if diff > 0 {
			if aj < 0 {
				aj, ai = 0, diff
			}
		} else if ai < 0 {
			ai, aj = 0, -diff
		}
		if diff > 0 {
			if ai > c {
				ai, aj = c, c-diff
			}
		} else if aj > c {
			aj, ai = c, c+diff
		}
	} else {
		quad := s.k.At(i, i) + s.k.At(j, j) - 2*qij
		if quad <= 0 {
			quad = tau
		}
		delta := (s.grad[i] - s.grad[j]) / quad
		sum := ai + aj
		ai -= delta
		aj += delta
		if sum > c {
			if ai > c {
				ai, aj = c, sum-c
			}
		} else if aj < 0 {
			aj, ai = 0, sum
		}
		if sum > c {
			if aj > c {
				aj, ai = c, sum-c
			}
		} else if ai < 0 {
			ai, aj = 0, sum
		}
	}

	di, dj := ai-s.alpha[i], aj-s.alpha[j]
	s.alpha[i], s.alpha[j] = ai, aj
	for t := range s.grad {
		s.grad[t] += s.q(i, t)*di + s.q(j, t)*dj
	}
}

// solve runs SMO until convergence or maxIter steps and returns the number
// of steps taken.
func (s *solver) solve(maxIter int) int {
	for iter := 0; iter < maxIter; iter++ {
		i, j, ok := s.selectPair()
		if !ok {
			return iter
		}
		s.step(i, j)
	}
	monitoring.Warnf("svm: reached max iterations (%d) before convergence", maxIter)
	return maxIter
}

// rho returns the bias term: the mean of y_i*grad_i over free vectors, or
// the midpoint of the feasible interval when no vector is free.
func (s *solver) rho() float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	var sumFree float64
	var nFree int
	for i, y := range s.y {
		yg := y * s.grad[i]
		switch {
		case s.atUpper(i):
			if y < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case s.atLower(i):
			if y > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			nFree++
			sumFree += yg
		}
	}
	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}
