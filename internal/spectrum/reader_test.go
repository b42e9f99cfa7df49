package spectrum

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTrace(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"Data from instrument",
		"Integration time: 100ms",
		"400.0  12  10",
		"401.0  14  -3",
		"",
		"402.0  x   9",
		"403.0  15",
		"404.0  16  NaN",
		"405.0  17  11",
		">>>>>End Spectral Data<<<<<",
	}, "\n")

	opts := ReadOptions{HeaderLines: 2, WavelengthColumn: 0, IntensityColumn: 2, Encoding: EncodingUTF8}
	s, stats, err := ReadTrace(strings.NewReader(input), opts)
	require.NoError(t, err)

	assert.Equal(t, []float64{400, 401, 402, 405}, s.Wavelengths())
	assert.Equal(t, []float64{10, -3, 9, 11}, s.Intensities())
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 3, stats.SkippedRows)

	require.NotNil(t, stats.FirstError)
	assert.Equal(t, 7, stats.FirstError.Line)
	assert.Equal(t, "intensity", stats.FirstError.Field)
}

func TestReadTrace_DefaultLayoutSkipsColumnNames(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 41; i++ {
		b.WriteString("Metadata line " + strconv.Itoa(i) + "\n")
	}
	b.WriteString("Wavelength\tDark\tIntensity\n")
	b.WriteString("400.5\t1\t20\n")
	b.WriteString("401.5\t1\t22\n")

	s, stats, err := ReadTrace(strings.NewReader(b.String()), DefaultReadOptions())
	require.NoError(t, err)
	assert.Equal(t, []float64{400.5, 401.5}, s.Wavelengths())
	assert.Equal(t, []float64{20, 22}, s.Intensities())
	assert.Equal(t, 0, stats.SkippedRows)
	assert.Nil(t, stats.FirstError)
}

func TestReadTrace_ParseErrorUnwraps(t *testing.T) {
	t.Parallel()

	input := "1 2\nabc 3\n"
	_, stats, err := ReadTrace(strings.NewReader(input), ReadOptions{IntensityColumn: 1})
	require.NoError(t, err)
	require.NotNil(t, stats.FirstError)
	assert.True(t, errors.Is(stats.FirstError, strconv.ErrSyntax))

	var perr *ParseError
	assert.True(t, errors.As(error(stats.FirstError), &perr))
	assert.Contains(t, perr.Error(), `"abc"`)
}

func TestReadTrace_Latin1Header(t *testing.T) {
	t.Parallel()

	// Header holds a raw 0xE9 byte, as written by the instrument software.
	var buf bytes.Buffer
	buf.Write([]byte("Intensidade M\xe9dia\n"))
	buf.WriteString("10 1 2\n11 1 3\n")

	s, _, err := ReadTrace(&buf, ReadOptions{HeaderLines: 1, IntensityColumn: 2, Encoding: EncodingLatin1})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, s.Intensities())
}

func TestReadTrace_Errors(t *testing.T) {
	t.Parallel()

	t.Run("no rows", func(t *testing.T) {
		_, _, err := ReadTrace(strings.NewReader("header\n"), ReadOptions{HeaderLines: 1})
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("unsorted", func(t *testing.T) {
		_, _, err := ReadTrace(strings.NewReader("2 1\n1 1\n"), ReadOptions{IntensityColumn: 1})
		assert.Error(t, err)
	})

	t.Run("bad encoding", func(t *testing.T) {
		_, _, err := ReadTrace(strings.NewReader("1 1\n"), ReadOptions{Encoding: "ebcdic"})
		assert.Error(t, err)
	})

	t.Run("negative column", func(t *testing.T) {
		_, _, err := ReadTrace(strings.NewReader("1 1\n"), ReadOptions{IntensityColumn: -1})
		assert.Error(t, err)
	})
}

func TestReadTraceFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("h\n1 0 5\n2 0 6\n"), 0o644))

	s, stats, err := ReadTraceFile(path, ReadOptions{HeaderLines: 1, IntensityColumn: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Zero(t, stats.SkippedRows)

	_, _, err = ReadTraceFile(filepath.Join(dir, "missing.txt"), DefaultReadOptions())
	assert.Error(t, err)
}
