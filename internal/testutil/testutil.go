// Package testutil provides shared test utilities and fixtures.
//
// This package centralises synthetic spectra and float comparisons so the
// analysis packages test against the same shapes.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/spectro.report/internal/spectrum"
)

// Line is one Gaussian emission line in a synthetic spectrum.
type Line struct {
	Center float64
	Height float64
	Width  float64 // standard deviation, in wavelength units
}

// Axis returns an evenly spaced wavelength axis from start to stop inclusive.
func Axis(start, stop, step float64) []float64 {
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// GaussianIntensities evaluates the sum of lines at every wavelength.
func GaussianIntensities(wavelengths []float64, lines []Line) []float64 {
	out := make([]float64, len(wavelengths))
	for i, w := range wavelengths {
		for _, l := range lines {
			d := (w - l.Center) / l.Width
			out[i] += l.Height * math.Exp(-0.5*d*d)
		}
	}
	return out
}

// GaussianSpectrum builds a spectrum on Axis(start, stop, step) holding the
// given lines. It fails the test if the spectrum cannot be constructed.
func GaussianSpectrum(t testing.TB, start, stop, step float64, lines []Line) spectrum.Spectrum {
	t.Helper()
	w := Axis(start, stop, step)
	s, err := spectrum.New(w, GaussianIntensities(w, lines))
	if err != nil {
		t.Fatalf("GaussianSpectrum: %v", err)
	}
	return s
}

// Ramp returns n values start, start+1, ... as a stand-in intensity trace.
func Ramp(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

// AssertFloatsInDelta fails the test if got and want differ in length or in
// any element by more than delta.
func AssertFloatsInDelta(t testing.TB, want, got []float64, delta float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > delta {
			t.Errorf("[%d] = %g, want %g (±%g)", i, got[i], want[i], delta)
		}
	}
}
