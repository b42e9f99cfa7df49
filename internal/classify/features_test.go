package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/spectrum"
)

func TestFeature(t *testing.T) {
	t.Parallel()

	table := peaks.Table{
		{Wavelength: 500, MaxIntensity: 9000, Area: 120},
		{Wavelength: 600, MaxIntensity: 7000, Area: 80},
	}

	f, err := ParseFeature("")
	require.NoError(t, err)
	assert.Equal(t, FeatureMaxIntensity, f)

	got, err := f.FromTable(table)
	require.NoError(t, err)
	assert.Equal(t, []float64{9000, 7000}, got)

	got, err = FeatureArea.FromTable(table)
	require.NoError(t, err)
	assert.Equal(t, []float64{120, 80}, got)

	_, err = FeatureIntensity.FromTable(table)
	assert.Error(t, err)

	s, err := spectrum.New([]float64{1, 2}, []float64{3, 4})
	require.NoError(t, err)
	got, err = FeatureIntensity.FromSpectrum(s)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, got)
	_, err = FeatureArea.FromSpectrum(s)
	assert.Error(t, err)

	_, err = ParseFeature("height")
	assert.Error(t, err)
}
