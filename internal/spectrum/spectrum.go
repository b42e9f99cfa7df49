package spectrum

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when a spectrum would have no points.
var ErrEmpty = errors.New("spectrum has no points")

// Spectrum is an ordered wavelength/intensity trace.
type Spectrum struct {
	wavelengths []float64
	intensities []float64
}

// New validates and copies the two arrays into a Spectrum. Wavelengths must
// be strictly ascending and both arrays must have the same, non-zero length.
func New(wavelengths, intensities []float64) (Spectrum, error) {
	if len(wavelengths) != len(intensities) {
		return Spectrum{}, fmt.Errorf("wavelength/intensity length mismatch: %d != %d", len(wavelengths), len(intensities))
	}
	if len(wavelengths) == 0 {
		return Spectrum{}, ErrEmpty
	}
	for i := 1; i < len(wavelengths); i++ {
		if !(wavelengths[i] > wavelengths[i-1]) {
			return Spectrum{}, fmt.Errorf("wavelengths not strictly ascending at index %d (%g after %g)", i, wavelengths[i], wavelengths[i-1])
		}
	}

	w := make([]float64, len(wavelengths))
	copy(w, wavelengths)
	in := make([]float64, len(intensities))
	copy(in, intensities)
	return Spectrum{wavelengths: w, intensities: in}, nil
}

// Len returns the number of points.
func (s Spectrum) Len() int { return len(s.wavelengths) }

// Wavelengths returns a copy of the wavelength axis.
func (s Spectrum) Wavelengths() []float64 {
	out := make([]float64, len(s.wavelengths))
	copy(out, s.wavelengths)
	return out
}

// Intensities returns a copy of the intensity values.
func (s Spectrum) Intensities() []float64 {
	out := make([]float64, len(s.intensities))
	copy(out, s.intensities)
	return out
}

// Domain returns the first and last wavelength.
func (s Spectrum) Domain() (lo, hi float64) {
	if len(s.wavelengths) == 0 {
		return 0, 0
	}
	return s.wavelengths[0], s.wavelengths[len(s.wavelengths)-1]
}

// At returns the i-th point.
func (s Spectrum) At(i int) (wavelength, intensity float64) {
	return s.wavelengths[i], s.intensities[i]
}
