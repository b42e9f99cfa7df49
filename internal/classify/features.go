package classify

import (
	"fmt"
	"strings"

	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/spectrum"
)

// Feature names the per-sample values used as the feature vector.
type Feature string

const (
	FeatureMaxIntensity Feature = "max_intensity" // peak table maximum intensities
	FeatureArea         Feature = "area"          // peak table areas
	FeatureIntensity    Feature = "intensity"     // the raw spectrum
)

// ParseFeature validates a feature name. An empty name selects
// FeatureMaxIntensity.
func ParseFeature(s string) (Feature, error) {
	switch f := Feature(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FeatureMaxIntensity, nil
	case FeatureMaxIntensity, FeatureArea, FeatureIntensity:
		return f, nil
	}
	return "", fmt.Errorf("unknown feature %q: want %q, %q or %q", s, FeatureMaxIntensity, FeatureArea, FeatureIntensity)
}

// FromTable returns one column of a peak table in peak order.
func (f Feature) FromTable(t peaks.Table) ([]float64, error) {
	if f != FeatureMaxIntensity && f != FeatureArea {
		return nil, fmt.Errorf("feature %q is not a peak table column", f)
	}
	out := make([]float64, len(t))
	for i, r := range t {
		if f == FeatureArea {
			out[i] = r.Area
		} else {
			out[i] = r.MaxIntensity
		}
	}
	return out, nil
}

// FromSpectrum returns the intensity trace of s.
func (f Feature) FromSpectrum(s spectrum.Spectrum) ([]float64, error) {
	if f != FeatureIntensity {
		return nil, fmt.Errorf("feature %q is not read from a spectrum", f)
	}
	return s.Intensities(), nil
}
