package peaktable

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/spectrum"
)

func TestWriteRead(t *testing.T) {
	t.Parallel()

	table := peaks.Table{
		{Wavelength: 450.5, MaxIntensity: 20000, Area: 1234.25},
		{Wavelength: 532, MaxIntensity: 12000.125, Area: 0},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table))
	assert.True(t, strings.HasPrefix(buf.String(), "wavelength,max_intensity,area\n"))

	got, stats, err := Read(&buf)
	require.NoError(t, err)
	assert.Zero(t, stats.SkippedRows)
	if diff := cmp.Diff(table, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_LegacyHeaders(t *testing.T) {
	t.Parallel()

	in := "Comprimento de Onda (nm),Intensidade Máxima,Área do Pico\n" +
		"656.3,9000,120.5\n"
	got, _, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, peaks.Table{{Wavelength: 656.3, MaxIntensity: 9000, Area: 120.5}}, got)
}

func TestRead_ReorderedColumnsAndBOM(t *testing.T) {
	t.Parallel()

	in := "\ufeffarea, wavelength ,extra,max_intensity\n" +
		"3,500,x,7\n"
	got, _, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, peaks.Table{{Wavelength: 500, MaxIntensity: 7, Area: 3}}, got)
}

func TestRead_DropsMalformedRows(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"wavelength,max_intensity,area",
		"500,10,1",
		"abc,10,1",
		"510,,1",
		"520,10",
		"530,NaN,1",
		",,",
		"540,20,2",
	}, "\n") + "\n"

	got, stats, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, peaks.Table{
		{Wavelength: 500, MaxIntensity: 10, Area: 1},
		{Wavelength: 540, MaxIntensity: 20, Area: 2},
	}, got)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 4, stats.SkippedRows)

	var perr *spectrum.ParseError
	require.True(t, errors.As(stats.FirstError, &perr))
	assert.Equal(t, 3, perr.Line)
	assert.Equal(t, ColWavelength, perr.Field)
}

func TestRead_TableErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		_, _, err := Read(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyTable)
	})

	t.Run("header only", func(t *testing.T) {
		got, stats, err := Read(strings.NewReader("wavelength,max_intensity,area\n"))
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Zero(t, stats.Rows)
	})

	t.Run("missing column", func(t *testing.T) {
		_, _, err := Read(strings.NewReader("wavelength,area\n1,2\n"))
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, []string{ColMaxIntensity}, verr.Missing)
		assert.Contains(t, verr.Error(), "max_intensity")
	})
}

func TestReadFileAndTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	good := filepath.Join(root, "2", "a"+Suffix)
	require.NoError(t, WriteFile(good, peaks.Table{{Wavelength: 1, MaxIntensity: 2, Area: 3}}))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "1", "empty.csv"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2", "bad.csv"), []byte("foo,bar\n1,2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2", "notes.txt"), []byte("ignored"), 0o644))

	results, err := ReadTree(root)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.ErrorIs(t, results[0].Err, ErrEmptyTable)
	assert.Equal(t, good, results[1].Source)
	assert.NoError(t, results[1].Err)
	assert.Len(t, results[1].Table, 1)

	var verr *ValidationError
	assert.True(t, errors.As(results[2].Err, &verr))

	missing := ReadFile(filepath.Join(root, "nope.csv"))
	assert.Error(t, missing.Err)

	_, err = ReadTree(filepath.Join(root, "does-not-exist"))
	assert.Error(t, err)
}
