// Package aggregate averages peak measurements across many samples by
// wavelength bucket.
//
// Accumulation is a sum/count reduction held in an Accumulator value, so
// partial results built from disjoint sets of tables can be merged in any
// order before the means are taken.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/spectro.report/internal/monitoring"
	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/peaktable"
)

// DefaultBucketSize groups peaks to the nearest 10 wavelength units.
const DefaultBucketSize = 10.0

// Row is the mean of every record that fell into one bucket.
type Row struct {
	Bucket        float64 `json:"bucket"`
	MeanIntensity float64 `json:"mean_intensity"`
	MeanArea      float64 `json:"mean_area"`
	Count         int     `json:"count"`
}

// Bucket rounds w to the nearest multiple of size. Halfway values round to
// the even multiple.
func Bucket(w, size float64) float64 {
	return float64(bucketKey(w, size)) * size
}

func bucketKey(w, size float64) int64 {
	return int64(math.RoundToEven(w / size))
}

type sums struct {
	intensity float64
	area      float64
	n         int
}

// Accumulator collects per-bucket sums. The zero value is not usable; call
// NewAccumulator.
type Accumulator struct {
	size    float64
	buckets map[int64]*sums
}

// NewAccumulator returns an empty accumulator for the given bucket size.
func NewAccumulator(size float64) (*Accumulator, error) {
	if !(size > 0) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("bucket size must be positive and finite, got %g", size)
	}
	return &Accumulator{size: size, buckets: make(map[int64]*sums)}, nil
}

// BucketSize returns the accumulator's bucket width.
func (a *Accumulator) BucketSize() float64 { return a.size }

// AddRecord adds one record. Records with a non-finite field are ignored and
// false is returned.
func (a *Accumulator) AddRecord(r peaks.Record) bool {
	if !finite(r.Wavelength) || !finite(r.MaxIntensity) || !finite(r.Area) {
		return false
	}
	k := bucketKey(r.Wavelength, a.size)
	s, ok := a.buckets[k]
	if !ok {
		s = &sums{}
		a.buckets[k] = s
	}
	s.intensity += r.MaxIntensity
	s.area += r.Area
	s.n++
	return true
}

// Add adds every record of t and returns how many were ignored.
func (a *Accumulator) Add(t peaks.Table) (ignored int) {
	for _, r := range t {
		if !a.AddRecord(r) {
			ignored++
		}
	}
	return ignored
}

// Merge folds b into a. Both must use the same bucket size.
func (a *Accumulator) Merge(b *Accumulator) error {
	if a.size != b.size {
		return fmt.Errorf("cannot merge accumulators with bucket sizes %g and %g", a.size, b.size)
	}
	for k, bs := range b.buckets {
		s, ok := a.buckets[k]
		if !ok {
			s = &sums{}
			a.buckets[k] = s
		}
		s.intensity += bs.intensity
		s.area += bs.area
		s.n += bs.n
	}
	return nil
}

// Rows returns the per-bucket means in ascending bucket order.
func (a *Accumulator) Rows() []Row {
	keys := make([]int64, 0, len(a.buckets))
	for k := range a.buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		s := a.buckets[k]
		n := float64(s.n)
		rows = append(rows, Row{
			Bucket:        float64(k) * a.size,
			MeanIntensity: s.intensity / n,
			MeanArea:      s.area / n,
			Count:         s.n,
		})
	}
	return rows
}

// Aggregate buckets every record of every table and returns the means.
func Aggregate(tables []peaks.Table, size float64) ([]Row, error) {
	acc, err := NewAccumulator(size)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		acc.Add(t)
	}
	return acc.Rows(), nil
}

// Summary is the result of aggregating a batch of loaded tables.
type Summary struct {
	Rows          []Row
	TablesUsed    int
	TablesEmpty   int // sources with no content, skipped silently
	TablesSkipped int // sources rejected with an error
	RowsSkipped   int
}

// Run aggregates loaded tables. Empty sources are skipped, sources that
// failed to load are skipped with a warning, and dropped rows are counted.
func Run(results []peaktable.Result, size float64) (Summary, error) {
	var sum Summary
	acc, err := NewAccumulator(size)
	if err != nil {
		return sum, err
	}

	for _, res := range results {
		sum.RowsSkipped += res.SkippedRows
		switch {
		case errors.Is(res.Err, peaktable.ErrEmptyTable):
			monitoring.Logf("%s is empty and was skipped", res.Source)
			sum.TablesEmpty++
			continue
		case res.Err != nil:
			monitoring.Warnf("skipping table %s: %v", res.Source, res.Err)
			sum.TablesSkipped++
			continue
		}
		sum.RowsSkipped += acc.Add(res.Table)
		sum.TablesUsed++
	}

	sum.Rows = acc.Rows()
	return sum, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
