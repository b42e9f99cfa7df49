package peaks

import (
	"math"
	"sort"
)

// DetectParams are the filters applied to candidate local maxima.
type DetectParams struct {
	HeightMin     float64 // inclusive
	ProminenceMin float64 // inclusive
	MinSeparation int     // samples; values <= 1 disable the filter
}

// Peak is a detected local maximum.
type Peak struct {
	Index      int
	Height     float64
	Prominence float64
}

// Find returns the peaks of x that pass p, in ascending index order.
func Find(x []float64, p DetectParams) []Peak {
	candidates := LocalMaxima(x)

	kept := candidates[:0]
	for _, i := range candidates {
		if x[i] >= p.HeightMin {
			kept = append(kept, i)
		}
	}

	kept = selectBySeparation(x, kept, p.MinSeparation)

	prom := Prominences(x, kept)
	peaks := make([]Peak, 0, len(kept))
	for n, i := range kept {
		if prom[n] >= p.ProminenceMin {
			peaks = append(peaks, Peak{Index: i, Height: x[i], Prominence: prom[n]})
		}
	}
	return peaks
}

// LocalMaxima returns the indices of samples strictly higher than their
// neighbours. A flat top reports the midpoint of the plateau, rounded down.
// The first and last samples are never maxima.
func LocalMaxima(x []float64) []int {
	var out []int
	last := len(x) - 1
	for i := 1; i < last; i++ {
		if !(x[i-1] < x[i]) {
			continue
		}
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			out = append(out, (i+ahead-1)/2)
			i = ahead
		}
	}
	return out
}

// Prominences returns, for each index in idx, the height of x[idx] above the
// higher of its two bases. A base is the lowest sample between the peak and
// the nearest strictly higher sample on that side, or the edge of x.
func Prominences(x []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for n, p := range idx {
		top := x[p]

		leftMin := top
		for i := p; i >= 0 && x[i] <= top; i-- {
			leftMin = math.Min(leftMin, x[i])
		}
		rightMin := top
		for i := p; i < len(x) && x[i] <= top; i++ {
			rightMin = math.Min(rightMin, x[i])
		}

		out[n] = top - math.Max(leftMin, rightMin)
	}
	return out
}

// selectBySeparation greedily keeps the highest peaks, dropping any peak
// closer than distance samples to one already kept. Equal heights resolve to
// the lower index. Output stays in ascending index order.
func selectBySeparation(x []float64, idx []int, distance int) []int {
	if distance <= 1 || len(idx) < 2 {
		return idx
	}

	order := make([]int, len(idx))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[idx[order[a]]] > x[idx[order[b]]]
	})

	keep := make([]bool, len(idx))
	for i := range keep {
		keep[i] = true
	}
	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && idx[j]-idx[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(idx) && idx[k]-idx[j] < distance; k++ {
			keep[k] = false
		}
	}

	out := make([]int, 0, len(idx))
	for i, k := range keep {
		if k {
			out = append(out, idx[i])
		}
	}
	return out
}
