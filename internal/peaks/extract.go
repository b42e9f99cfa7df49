package peaks

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/spectro.report/internal/spectrum"
)

// Params configures Extract.
type Params struct {
	Floor           float64 // intensities below this are raised to it
	HeightMin       float64
	ProminenceMin   float64
	MinSeparation   int     // samples
	RegionHalfWidth float64 // wavelength units on each side of a peak
}

// DefaultParams returns the settings used for the reference sample set.
func DefaultParams() Params {
	return Params{
		Floor:           0,
		HeightMin:       5000,
		ProminenceMin:   3000,
		MinSeparation:   15,
		RegionHalfWidth: 1,
	}
}

// Validate checks that p can be used by Extract.
func (p Params) Validate() error {
	for name, v := range map[string]float64{
		"floor":            p.Floor,
		"height_min":       p.HeightMin,
		"prominence_min":   p.ProminenceMin,
		"region_halfwidth": p.RegionHalfWidth,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite, got %g", name, v)
		}
	}
	if p.MinSeparation < 0 {
		return fmt.Errorf("min_separation must be non-negative, got %d", p.MinSeparation)
	}
	if p.RegionHalfWidth < 0 {
		return fmt.Errorf("region_halfwidth must be non-negative, got %g", p.RegionHalfWidth)
	}
	return nil
}

func (p Params) detect() DetectParams {
	return DetectParams{HeightMin: p.HeightMin, ProminenceMin: p.ProminenceMin, MinSeparation: p.MinSeparation}
}

// Record is one quantified peak.
type Record struct {
	Wavelength   float64 `json:"wavelength"`
	MaxIntensity float64 `json:"max_intensity"`
	Area         float64 `json:"area"`
}

// Table holds the peaks of one spectrum in ascending wavelength order.
type Table []Record

// Failure is a detected peak that could not be quantified.
type Failure struct {
	Index      int
	Wavelength float64
	Err        error
}

func (f Failure) Error() string {
	return fmt.Sprintf("peak at %g (index %d): %v", f.Wavelength, f.Index, f.Err)
}

// Clamp returns a copy of x with every value below floor replaced by floor.
func Clamp(x []float64, floor float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Max(v, floor)
	}
	return out
}

// Extract detects and quantifies the peaks of s. Peaks whose region fails
// to integrate are returned as failures and left out of the table.
func Extract(s spectrum.Spectrum, p Params) (Table, []Failure, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	wavelengths := s.Wavelengths()
	intensities := Clamp(s.Intensities(), p.Floor)
	lo, hi := s.Domain()

	var (
		table    Table
		failures []Failure
	)
	for _, pk := range Find(intensities, p.detect()) {
		w := wavelengths[pk.Index]
		a := math.Max(lo, w-p.RegionHalfWidth)
		b := math.Min(hi, w+p.RegionHalfWidth)

		area, err := Area(wavelengths, intensities, a, b)
		if err != nil {
			failures = append(failures, Failure{Index: pk.Index, Wavelength: w, Err: err})
			continue
		}
		table = append(table, Record{Wavelength: w, MaxIntensity: intensities[pk.Index], Area: area})
	}
	return table, failures, nil
}

// ExtractArrays is Extract over raw arrays. It fails if the arrays do not
// form a valid spectrum.
func ExtractArrays(wavelengths, intensities []float64, p Params) (Table, []Failure, error) {
	s, err := spectrum.New(wavelengths, intensities)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid spectrum: %w", err)
	}
	return Extract(s, p)
}

// IsRangeError reports whether err is, or wraps, a *RangeError.
func IsRangeError(err error) bool {
	var re *RangeError
	return errors.As(err, &re)
}
