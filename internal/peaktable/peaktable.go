// Package peaktable persists peak tables as CSV and reads them back for
// aggregation. The reader is lenient per row and strict per table: a bad row
// is dropped, a table without the required columns is rejected whole.
package peaktable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/spectro.report/internal/monitoring"
	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/spectrum"
)

// Canonical column names.
const (
	ColWavelength   = "wavelength"
	ColMaxIntensity = "max_intensity"
	ColArea         = "area"
)

// Suffix is appended to a sample's file stem to name its peak table.
const Suffix = "_peaks.csv"

// aliases maps accepted header spellings to canonical names, including the
// headers written by the legacy analysis scripts.
var aliases = map[string]string{
	"wavelength":               ColWavelength,
	"wavelength (nm)":          ColWavelength,
	"comprimento de onda (nm)": ColWavelength,
	"max_intensity":            ColMaxIntensity,
	"max intensity":            ColMaxIntensity,
	"intensidade máxima":       ColMaxIntensity,
	"area":                     ColArea,
	"peak area":                ColArea,
	"área do pico":             ColArea,
}

var required = []string{ColWavelength, ColMaxIntensity, ColArea}

// ErrEmptyTable is returned for a source with no content at all. Callers
// skip such sources without treating them as failures.
var ErrEmptyTable = errors.New("peak table is empty")

// ValidationError reports a table that lacks required columns.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("peak table missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ReadStats counts rows kept and dropped by Read.
type ReadStats struct {
	Rows        int
	SkippedRows int
	FirstError  error
}

// Write emits t as CSV with the canonical header.
func Write(w io.Writer, t peaks.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(required); err != nil {
		return err
	}
	for _, r := range t {
		if err := cw.Write([]string{formatFloat(r.Wavelength), formatFloat(r.MaxIntensity), formatFloat(r.Area)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes t to path, creating parent directories.
func WriteFile(path string, t peaks.Table) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create table directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create peak table: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, t)
}

// Read parses a peak table. A header with no rows is a valid empty table.
// Rows with missing or non-numeric fields are dropped and counted.
func Read(r io.Reader) (peaks.Table, ReadStats, error) {
	var stats ReadStats

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, ErrEmptyTable
	}
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, stats, err
	}

	table := peaks.Table{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, stats, fmt.Errorf("failed to read peak table: %w", err)
			}
			stats.skip(&spectrum.ParseError{Line: perr.Line, Field: "record", Err: perr.Err})
			continue
		}
		if isBlank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)

		var vals [3]float64
		var rowErr error
		for i, name := range required {
			vals[i], rowErr = parseCell(rec, cols[name], line, name)
			if rowErr != nil {
				break
			}
		}
		if rowErr != nil {
			stats.skip(rowErr)
			continue
		}

		table = append(table, peaks.Record{Wavelength: vals[0], MaxIntensity: vals[1], Area: vals[2]})
		stats.Rows++
	}
	return table, stats, nil
}

func (s *ReadStats) skip(err error) {
	s.SkippedRows++
	if s.FirstError == nil {
		s.FirstError = err
	}
}

// Result is the outcome of loading one persisted table.
type Result struct {
	Source      string
	Table       peaks.Table
	SkippedRows int
	Err         error
}

// ReadFile loads the table at path. The error, if any, is carried in the
// Result so a batch can decide whether to continue.
func ReadFile(path string) Result {
	res := Result{Source: path}
	f, err := os.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()

	table, stats, err := Read(f)
	res.Table = table
	res.SkippedRows = stats.SkippedRows
	res.Err = err
	if err == nil && stats.SkippedRows > 0 {
		monitoring.Warnf("%s: dropped %d malformed rows (first: %v)", path, stats.SkippedRows, stats.FirstError)
	}
	return res
}

// ReadTree loads every .csv file below root in lexical path order.
func ReadTree(root string) ([]Result, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(paths)

	out := make([]Result, 0, len(paths))
	for _, p := range paths {
		out = append(out, ReadFile(p))
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(required))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if name, ok := aliases[key]; ok {
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}

	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	return cols, nil
}

func parseCell(rec []string, col, line int, name string) (float64, error) {
	if col >= len(rec) || strings.TrimSpace(rec[col]) == "" {
		return 0, &spectrum.ParseError{Line: line, Field: name, Err: errors.New("missing value")}
	}
	raw := strings.TrimSpace(rec[col])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &spectrum.ParseError{Line: line, Field: name, Value: raw, Err: errors.Unwrap(err)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &spectrum.ParseError{Line: line, Field: name, Value: raw, Err: errors.New("non-finite value")}
	}
	return v, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
