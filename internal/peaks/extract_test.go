package peaks

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spectro.report/internal/spectrum"
	"github.com/banshee-data/spectro.report/internal/testutil"
)

func TestExtractArrays_SinglePeak(t *testing.T) {
	t.Parallel()

	p := Params{HeightMin: 4, ProminenceMin: 3, MinSeparation: 1, RegionHalfWidth: 1}
	table, failures, err := ExtractArrays(
		[]float64{0, 1, 2, 3, 4, 5},
		[]float64{0, 1, 5, 9, 5, 1},
		p,
	)
	require.NoError(t, err)
	assert.Empty(t, failures)

	want := Table{{Wavelength: 3, MaxIntensity: 9, Area: 14}}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_FloorClamp(t *testing.T) {
	t.Parallel()

	// Negative artefacts around the peak are raised to the floor before the
	// area is measured.
	p := Params{Floor: 0, HeightMin: 1, RegionHalfWidth: 2}
	table, _, err := ExtractArrays(
		[]float64{0, 1, 2, 3, 4},
		[]float64{-50, -10, 4, -10, -50},
		p,
	)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, 2.0, table[0].Wavelength)
	assert.Equal(t, 4.0, table[0].MaxIntensity)
	assert.InDelta(t, 4.0, table[0].Area, 1e-12)
}

func TestExtract_BoundaryRegionIsClipped(t *testing.T) {
	t.Parallel()

	p := Params{HeightMin: 1, RegionHalfWidth: 10}
	table, failures, err := ExtractArrays(
		[]float64{100, 101, 102},
		[]float64{0, 2, 0},
		p,
	)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, table, 1)
	assert.InDelta(t, 2.0, table[0].Area, 1e-12)
}

func TestExtract_NoPeaks(t *testing.T) {
	t.Parallel()

	table, failures, err := ExtractArrays([]float64{1, 2, 3}, []float64{1, 1, 1}, DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, table)
	assert.Empty(t, failures)
}

func TestExtract_GaussianMixture(t *testing.T) {
	t.Parallel()

	s := testutil.GaussianSpectrum(t, 400, 700, 0.5, []testutil.Line{
		{Center: 450, Height: 20000, Width: 2},
		{Center: 532, Height: 12000, Width: 3},
		{Center: 610, Height: 2000, Width: 2}, // below height_min
	})

	table, failures, err := Extract(s, DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, table, 2)

	opt := cmpopts.EquateApprox(0, 1e-9)
	if !cmp.Equal(450.0, table[0].Wavelength, opt) || !cmp.Equal(532.0, table[1].Wavelength, opt) {
		t.Fatalf("unexpected peak wavelengths: %+v", table)
	}
	assert.InDelta(t, 20000, table[0].MaxIntensity, 1e-6)
	assert.Less(t, table[0].Wavelength, table[1].Wavelength)
	for _, r := range table {
		assert.Greater(t, r.Area, 0.0)
	}
}

func TestExtract_InvalidParams(t *testing.T) {
	t.Parallel()

	s, err := spectrum.New([]float64{1, 2, 3}, []float64{0, 1, 0})
	require.NoError(t, err)

	for _, p := range []Params{
		{RegionHalfWidth: -1},
		{MinSeparation: -2},
		{HeightMin: math.NaN()},
		{Floor: math.Inf(-1)},
	} {
		_, _, err := Extract(s, p)
		assert.Error(t, err, "%+v", p)
	}

	_, _, err = ExtractArrays([]float64{2, 1}, []float64{0, 0}, DefaultParams())
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	t.Parallel()

	in := []float64{-3, 0, 2, -0.5}
	got := Clamp(in, 0)
	assert.Equal(t, []float64{0, 0, 2, 0}, got)
	assert.Equal(t, -3.0, in[0], "input must not be modified")
}

func TestFailureError(t *testing.T) {
	t.Parallel()

	f := Failure{Index: 4, Wavelength: 512.5, Err: &RangeError{A: 1, B: 2, Min: 3, Max: 4}}
	assert.Contains(t, f.Error(), "512.5")
	assert.True(t, IsRangeError(f.Err))
}
