// Package normalize brings spectra of different lengths to a common length so
// they can be stacked into a sample matrix.
//
// Longer spectra are truncated and shorter ones are right-padded with zeros.
// No resampling or interpolation takes place: the column index of the
// result is the sample index of the input, not a wavelength.
package normalize

import (
	"errors"
	"fmt"
)

// EmptyInputError is returned when there are no spectra to take a length
// from.
type EmptyInputError struct{}

func (EmptyInputError) Error() string { return "normalize: no spectra to normalize" }

// ErrEmptyInput is the canonical EmptyInputError value.
var ErrEmptyInput error = EmptyInputError{}

// MinLength returns the length of the shortest spectrum.
func MinLength(spectra [][]float64) (int, error) {
	if len(spectra) == 0 {
		return 0, ErrEmptyInput
	}
	n := len(spectra[0])
	for _, s := range spectra[1:] {
		if len(s) < n {
			n = len(s)
		}
	}
	return n, nil
}

// Length returns a copy of spectra with every row cut or zero-padded to
// target values. A target of zero or less selects MinLength, so no row is
// padded. Row order is preserved.
func Length(spectra [][]float64, target int) ([][]float64, error) {
	if len(spectra) == 0 {
		return nil, ErrEmptyInput
	}
	if target <= 0 {
		var err error
		if target, err = MinLength(spectra); err != nil {
			return nil, err
		}
	}

	out := make([][]float64, len(spectra))
	for i, s := range spectra {
		row, err := Row(s, target)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// Row cuts or pads one spectrum to n values.
func Row(s []float64, n int) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("normalize: negative length %d", n)
	}
	row := make([]float64, n)
	copy(row, s)
	return row, nil
}

// IsEmptyInput reports whether err is, or wraps, an EmptyInputError.
func IsEmptyInput(err error) bool {
	var e EmptyInputError
	return errors.As(err, &e)
}
