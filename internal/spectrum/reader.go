package spectrum

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/banshee-data/spectro.report/internal/monitoring"
)

// Supported trace encodings.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin1"
)

// ReadOptions describes the layout of a raw trace export.
type ReadOptions struct {
	HeaderLines      int    // lines skipped before the first data row, column names included
	WavelengthColumn int    // 0-based whitespace-separated column
	IntensityColumn  int    // 0-based whitespace-separated column
	Encoding         string // EncodingUTF8 or EncodingLatin1
}

// DefaultReadOptions matches the spectrometer exports the analysis was built
// around: 41 lines of instrument metadata followed by one column-name row,
// wavelength in column 0 and the processed intensity in column 2, latin1
// encoded.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		HeaderLines:      42,
		WavelengthColumn: 0,
		IntensityColumn:  2,
		Encoding:         EncodingLatin1,
	}
}

// ReadStats reports what the reader kept and dropped.
type ReadStats struct {
	Rows        int
	SkippedRows int
	FirstError  *ParseError
}

// ReadTrace parses a whitespace separated trace. Rows that are too short or
// hold non-numeric or non-finite values are dropped and counted. The
// resulting wavelengths must be strictly ascending.
func ReadTrace(r io.Reader, opts ReadOptions) (Spectrum, ReadStats, error) {
	var stats ReadStats
	if opts.WavelengthColumn < 0 || opts.IntensityColumn < 0 {
		return Spectrum{}, stats, fmt.Errorf("negative column index (wavelength=%d, intensity=%d)", opts.WavelengthColumn, opts.IntensityColumn)
	}

	src, err := decoder(r, opts.Encoding)
	if err != nil {
		return Spectrum{}, stats, err
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var wavelengths, intensities []float64
	line := 0
	for scanner.Scan() {
		line++
		if line <= opts.HeaderLines {
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		w, perr := parseField(fields, opts.WavelengthColumn, line, "wavelength")
		if perr == nil {
			var in float64
			in, perr = parseField(fields, opts.IntensityColumn, line, "intensity")
			if perr == nil {
				wavelengths = append(wavelengths, w)
				intensities = append(intensities, in)
				stats.Rows++
				continue
			}
		}

		stats.SkippedRows++
		if stats.FirstError == nil {
			stats.FirstError = perr
		}
	}
	if err := scanner.Err(); err != nil {
		return Spectrum{}, stats, fmt.Errorf("failed to scan trace: %w", err)
	}

	spec, err := New(wavelengths, intensities)
	if err != nil {
		return Spectrum{}, stats, err
	}
	return spec, stats, nil
}

// ReadTraceFile opens path and calls ReadTrace. Dropped rows are reported
// through monitoring.Warnf.
func ReadTraceFile(path string, opts ReadOptions) (Spectrum, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Spectrum{}, ReadStats{}, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	spec, stats, err := ReadTrace(f, opts)
	if err != nil {
		return Spectrum{}, stats, fmt.Errorf("%s: %w", path, err)
	}
	if stats.SkippedRows > 0 {
		monitoring.Warnf("%s: dropped %d malformed rows (first: %v)", path, stats.SkippedRows, stats.FirstError)
	}
	return spec, stats, nil
}

func parseField(fields []string, col, line int, name string) (float64, *ParseError) {
	if col >= len(fields) {
		return 0, &ParseError{Line: line, Field: name, Err: fmt.Errorf("row has %d columns, need %d", len(fields), col+1)}
	}
	v, err := strconv.ParseFloat(fields[col], 64)
	if err != nil {
		return 0, &ParseError{Line: line, Field: name, Value: fields[col], Err: errors.Unwrap(err)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Line: line, Field: name, Value: fields[col], Err: errors.New("non-finite value")}
	}
	return v, nil
}

func decoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8, "utf8":
		return r, nil
	case EncodingLatin1, "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported trace encoding %q", encoding)
	}
}
