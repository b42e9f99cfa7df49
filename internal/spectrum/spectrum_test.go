package spectrum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		w, i    []float64
		wantErr bool
	}{
		{name: "single point", w: []float64{500}, i: []float64{1}},
		{name: "ascending", w: []float64{1, 2, 3}, i: []float64{0, 5, 0}},
		{name: "empty", w: nil, i: nil, wantErr: true},
		{name: "length mismatch", w: []float64{1, 2}, i: []float64{1}, wantErr: true},
		{name: "repeated wavelength", w: []float64{1, 2, 2}, i: []float64{1, 1, 1}, wantErr: true},
		{name: "descending", w: []float64{3, 2, 1}, i: []float64{1, 1, 1}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := New(tt.w, tt.i)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.w), s.Len())
		})
	}
}

func TestSpectrumIsImmutable(t *testing.T) {
	t.Parallel()

	w := []float64{1, 2, 3}
	in := []float64{4, 5, 6}
	s, err := New(w, in)
	require.NoError(t, err)

	w[0] = 100
	in[0] = 100
	got := s.Intensities()
	got[1] = -1

	assert.Equal(t, []float64{1, 2, 3}, s.Wavelengths())
	assert.Equal(t, []float64{4, 5, 6}, s.Intensities())

	lo, hi := s.Domain()
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 3.0, hi)

	wl, v := s.At(2)
	assert.Equal(t, 3.0, wl)
	assert.Equal(t, 6.0, v)
}
