package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spectro.report/internal/monitoring"
	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/spectrum"
	"github.com/banshee-data/spectro.report/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func syntheticSources(t *testing.T, n int) []Source {
	t.Helper()
	var out []Source
	for i := 0; i < n; i++ {
		s := testutil.GaussianSpectrum(t, 400, 700, 0.5, []testutil.Line{
			{Center: 450 + float64(i), Height: 20000, Width: 1.5},
			{Center: 600 - float64(i), Height: 9000 + 100*float64(i), Width: 2},
		})
		out = append(out, StaticSource(fmt.Sprintf("s%02d", i), s))
	}
	return out
}

func TestExtractAll_MatchesSequential(t *testing.T) {
	t.Parallel()

	sources := syntheticSources(t, 24)
	p := peaks.DefaultParams()

	got, err := ExtractAll(context.Background(), sources, p, 4)
	require.NoError(t, err)
	require.Len(t, got, len(sources))

	for i, src := range sources {
		s, _, err := src.Load()
		require.NoError(t, err)
		want, _, err := peaks.Extract(s, p)
		require.NoError(t, err)

		assert.Equal(t, i, got[i].Index)
		assert.Equal(t, src.ID, got[i].Source)
		assert.True(t, got[i].OK())
		if diff := cmp.Diff(want, got[i].Table); diff != "" {
			t.Errorf("source %s table mismatch (-want +got):\n%s", src.ID, diff)
		}
		require.Len(t, got[i].Table, 2)
	}
	assert.Len(t, Tables(got), len(sources))
}

func TestExtractAll_PerSourceErrors(t *testing.T) {
	t.Parallel()

	good := syntheticSources(t, 2)
	bad := Source{ID: "broken", Load: func() (spectrum.Spectrum, spectrum.ReadStats, error) {
		return spectrum.Spectrum{}, spectrum.ReadStats{SkippedRows: 3}, errors.New("unreadable")
	}}
	sources := []Source{good[0], bad, good[1]}

	got, err := ExtractAll(context.Background(), sources, peaks.DefaultParams(), 0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.True(t, got[0].OK())
	assert.False(t, got[1].OK())
	assert.Equal(t, "broken", got[1].Source)
	assert.Equal(t, 3, got[1].SkippedRows)
	assert.True(t, got[2].OK())
	assert.Len(t, Tables(got), 2)
}

func TestExtractAll_InvalidParams(t *testing.T) {
	t.Parallel()

	p := peaks.DefaultParams()
	p.MinSeparation = -1
	_, err := ExtractAll(context.Background(), syntheticSources(t, 1), p, 1)
	assert.Error(t, err)
}

func TestExtractAll_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExtractAll(ctx, syntheticSources(t, 3), peaks.DefaultParams(), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSourceAndTraceFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2"), 0o755))

	var b strings.Builder
	b.WriteString("header\n")
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "%d\t0\t%d\n", i, []int{0, 1, 5, 9, 5, 1}[i])
	}
	path := filepath.Join(root, "2", "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.csv"), []byte("x"), 0o644))

	files, err := TraceFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)

	opts := spectrum.DefaultReadOptions()
	opts.HeaderLines = 1
	p := peaks.Params{HeightMin: 4, ProminenceMin: 3, MinSeparation: 1, RegionHalfWidth: 1}

	got, err := ExtractAll(context.Background(), []Source{FileSource(path, opts)}, p, 2)
	require.NoError(t, err)
	require.True(t, got[0].OK(), "%v", got[0].Err)
	assert.Equal(t, peaks.Table{{Wavelength: 3, MaxIntensity: 9, Area: 14}}, got[0].Table)
}
