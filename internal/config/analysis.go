package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/spectro.report/internal/aggregate"
	"github.com/banshee-data/spectro.report/internal/classify"
	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/spectrum"
	"github.com/banshee-data/spectro.report/internal/svm"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig holds every tunable of the extract, aggregate and classify
// steps. Nil fields fall back to the defaults returned by the Get* methods,
// so partial files are safe.
type AnalysisConfig struct {
	// Trace reader
	HeaderLines      *int    `json:"header_lines,omitempty" yaml:"header_lines,omitempty"`
	WavelengthColumn *int    `json:"wavelength_column,omitempty" yaml:"wavelength_column,omitempty"`
	IntensityColumn  *int    `json:"intensity_column,omitempty" yaml:"intensity_column,omitempty"`
	Encoding         *string `json:"encoding,omitempty" yaml:"encoding,omitempty"`

	// Peak extraction
	Floor           *float64 `json:"floor,omitempty" yaml:"floor,omitempty"`
	HeightMin       *float64 `json:"height_min,omitempty" yaml:"height_min,omitempty"`
	ProminenceMin   *float64 `json:"prominence_min,omitempty" yaml:"prominence_min,omitempty"`
	MinSeparation   *int     `json:"min_separation,omitempty" yaml:"min_separation,omitempty"`
	RegionHalfWidth *float64 `json:"region_halfwidth,omitempty" yaml:"region_halfwidth,omitempty"`

	// Aggregation
	BucketSize *float64 `json:"bucket_size,omitempty" yaml:"bucket_size,omitempty"`

	// Classification
	TargetLength *int     `json:"target_length,omitempty" yaml:"target_length,omitempty"` // 0 = shortest sample
	SVMC         *float64 `json:"svm_c,omitempty" yaml:"svm_c,omitempty"`
	Gamma        *string  `json:"gamma,omitempty" yaml:"gamma,omitempty"`
	Tol          *float64 `json:"tol,omitempty" yaml:"tol,omitempty"`
	MaxIter      *int     `json:"max_iter,omitempty" yaml:"max_iter,omitempty"`
	Feature      *string  `json:"feature,omitempty" yaml:"feature,omitempty"`

	// Orchestration
	Workers *int `json:"workers,omitempty" yaml:"workers,omitempty"` // 0 = NumCPU
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConfig returns an AnalysisConfig with all fields set to nil.
func EmptyConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultConfig returns an AnalysisConfig with every field set to its
// default.
func DefaultConfig() *AnalysisConfig {
	ro := spectrum.DefaultReadOptions()
	pp := peaks.DefaultParams()
	sp := svm.DefaultParams()
	return &AnalysisConfig{
		HeaderLines:      ptrInt(ro.HeaderLines),
		WavelengthColumn: ptrInt(ro.WavelengthColumn),
		IntensityColumn:  ptrInt(ro.IntensityColumn),
		Encoding:         ptrString(ro.Encoding),
		Floor:            ptrFloat64(pp.Floor),
		HeightMin:        ptrFloat64(pp.HeightMin),
		ProminenceMin:    ptrFloat64(pp.ProminenceMin),
		MinSeparation:    ptrInt(pp.MinSeparation),
		RegionHalfWidth:  ptrFloat64(pp.RegionHalfWidth),
		BucketSize:       ptrFloat64(aggregate.DefaultBucketSize),
		TargetLength:     ptrInt(0),
		SVMC:             ptrFloat64(sp.C),
		Gamma:            ptrString(sp.Gamma),
		Tol:              ptrFloat64(sp.Tol),
		MaxIter:          ptrInt(sp.MaxIter),
		Feature:          ptrString(string(classify.FeatureMaxIntensity)),
		Workers:          ptrInt(0),
	}
}

// LoadConfig loads an AnalysisConfig from a .json, .yaml or .yml file of at
// most 1MB and validates it.
func LoadConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents up to the repository
// root. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *AnalysisConfig) Validate() error {
	for name, v := range map[string]*int{
		"header_lines":      c.HeaderLines,
		"wavelength_column": c.WavelengthColumn,
		"intensity_column":  c.IntensityColumn,
		"min_separation":    c.MinSeparation,
		"target_length":     c.TargetLength,
		"workers":           c.Workers,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *v)
		}
	}
	if c.WavelengthColumn != nil && c.IntensityColumn != nil && *c.WavelengthColumn == *c.IntensityColumn {
		return fmt.Errorf("wavelength_column and intensity_column must differ, both are %d", *c.WavelengthColumn)
	}
	if c.Encoding != nil {
		switch strings.ToLower(*c.Encoding) {
		case spectrum.EncodingUTF8, "utf8", spectrum.EncodingLatin1, "iso-8859-1", "iso8859-1":
		default:
			return fmt.Errorf("encoding must be %q or %q, got %q", spectrum.EncodingUTF8, spectrum.EncodingLatin1, *c.Encoding)
		}
	}
	if c.BucketSize != nil && !(*c.BucketSize > 0) {
		return fmt.Errorf("bucket_size must be positive, got %g", *c.BucketSize)
	}
	if c.MaxIter != nil && *c.MaxIter <= 0 {
		return fmt.Errorf("max_iter must be positive, got %d", *c.MaxIter)
	}
	if c.Gamma != nil {
		if err := validateGamma(*c.Gamma); err != nil {
			return err
		}
	}
	if c.Feature != nil {
		if _, err := classify.ParseFeature(*c.Feature); err != nil {
			return err
		}
	}
	if err := c.PeakParams().Validate(); err != nil {
		return err
	}
	return c.SVMParams().Validate()
}

func validateGamma(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", svm.GammaAuto, svm.GammaScale:
		return nil
	}
	g, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("gamma must be %q, %q or a number, got %q", svm.GammaAuto, svm.GammaScale, s)
	}
	if !(g > 0) || math.IsInf(g, 0) {
		return fmt.Errorf("gamma must be positive and finite, got %g", g)
	}
	return nil
}

// GetHeaderLines returns the header_lines value or the default.
func (c *AnalysisConfig) GetHeaderLines() int {
	if c.HeaderLines == nil {
		return spectrum.DefaultReadOptions().HeaderLines
	}
	return *c.HeaderLines
}

// GetWavelengthColumn returns the wavelength_column value or the default.
func (c *AnalysisConfig) GetWavelengthColumn() int {
	if c.WavelengthColumn == nil {
		return spectrum.DefaultReadOptions().WavelengthColumn
	}
	return *c.WavelengthColumn
}

// GetIntensityColumn returns the intensity_column value or the default.
func (c *AnalysisConfig) GetIntensityColumn() int {
	if c.IntensityColumn == nil {
		return spectrum.DefaultReadOptions().IntensityColumn
	}
	return *c.IntensityColumn
}

// GetEncoding returns the encoding value or the default.
func (c *AnalysisConfig) GetEncoding() string {
	if c.Encoding == nil || *c.Encoding == "" {
		return spectrum.DefaultReadOptions().Encoding
	}
	return strings.ToLower(*c.Encoding)
}

// GetFloor returns the floor value or the default.
func (c *AnalysisConfig) GetFloor() float64 {
	if c.Floor == nil {
		return peaks.DefaultParams().Floor
	}
	return *c.Floor
}

// GetHeightMin returns the height_min value or the default.
func (c *AnalysisConfig) GetHeightMin() float64 {
	if c.HeightMin == nil {
		return peaks.DefaultParams().HeightMin
	}
	return *c.HeightMin
}

// GetProminenceMin returns the prominence_min value or the default.
func (c *AnalysisConfig) GetProminenceMin() float64 {
	if c.ProminenceMin == nil {
		return peaks.DefaultParams().ProminenceMin
	}
	return *c.ProminenceMin
}

// GetMinSeparation returns the min_separation value or the default.
func (c *AnalysisConfig) GetMinSeparation() int {
	if c.MinSeparation == nil {
		return peaks.DefaultParams().MinSeparation
	}
	return *c.MinSeparation
}

// GetRegionHalfWidth returns the region_halfwidth value or the default.
func (c *AnalysisConfig) GetRegionHalfWidth() float64 {
	if c.RegionHalfWidth == nil {
		return peaks.DefaultParams().RegionHalfWidth
	}
	return *c.RegionHalfWidth
}

// GetBucketSize returns the bucket_size value or the default.
func (c *AnalysisConfig) GetBucketSize() float64 {
	if c.BucketSize == nil {
		return aggregate.DefaultBucketSize
	}
	return *c.BucketSize
}

// GetTargetLength returns the target_length value; 0 selects the shortest
// sample.
func (c *AnalysisConfig) GetTargetLength() int {
	if c.TargetLength == nil {
		return 0
	}
	return *c.TargetLength
}

// GetFeature returns the feature value or the default.
func (c *AnalysisConfig) GetFeature() classify.Feature {
	if c.Feature == nil {
		return classify.FeatureMaxIntensity
	}
	f, err := classify.ParseFeature(*c.Feature)
	if err != nil {
		return classify.FeatureMaxIntensity
	}
	return f
}

// GetWorkers returns the number of extraction workers, resolving 0 to the
// number of CPUs.
func (c *AnalysisConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.NumCPU()
	}
	return *c.Workers
}

// ReadOptions returns the trace reader settings.
func (c *AnalysisConfig) ReadOptions() spectrum.ReadOptions {
	return spectrum.ReadOptions{
		HeaderLines:      c.GetHeaderLines(),
		WavelengthColumn: c.GetWavelengthColumn(),
		IntensityColumn:  c.GetIntensityColumn(),
		Encoding:         c.GetEncoding(),
	}
}

// PeakParams returns the extraction settings.
func (c *AnalysisConfig) PeakParams() peaks.Params {
	return peaks.Params{
		Floor:           c.GetFloor(),
		HeightMin:       c.GetHeightMin(),
		ProminenceMin:   c.GetProminenceMin(),
		MinSeparation:   c.GetMinSeparation(),
		RegionHalfWidth: c.GetRegionHalfWidth(),
	}
}

// SVMParams returns the classifier settings.
func (c *AnalysisConfig) SVMParams() svm.Params {
	p := svm.DefaultParams()
	if c.SVMC != nil {
		p.C = *c.SVMC
	}
	if c.Gamma != nil && *c.Gamma != "" {
		p.Gamma = *c.Gamma
	}
	if c.Tol != nil {
		p.Tol = *c.Tol
	}
	if c.MaxIter != nil {
		p.MaxIter = *c.MaxIter
	}
	return p
}
