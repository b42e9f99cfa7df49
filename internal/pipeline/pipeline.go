// Package pipeline runs peak extraction over many spectra concurrently.
//
// Spectra share no state, so each source is loaded and extracted by its own
// worker. Results are stored by source index rather than completion order,
// which keeps the output identical to a sequential run.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/spectro.report/internal/monitoring"
	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/spectrum"
)

// TraceExt is the file extension of raw instrument traces.
const TraceExt = ".txt"

// Source produces one spectrum on demand.
type Source struct {
	ID   string
	Load func() (spectrum.Spectrum, spectrum.ReadStats, error)
}

// FileSource reads the trace at path with opts.
func FileSource(path string, opts spectrum.ReadOptions) Source {
	return Source{
		ID: path,
		Load: func() (spectrum.Spectrum, spectrum.ReadStats, error) {
			return spectrum.ReadTraceFile(path, opts)
		},
	}
}

// StaticSource wraps an already loaded spectrum.
func StaticSource(id string, s spectrum.Spectrum) Source {
	return Source{
		ID: id,
		Load: func() (spectrum.Spectrum, spectrum.ReadStats, error) {
			return s, spectrum.ReadStats{Rows: s.Len()}, nil
		},
	}
}

// TraceFiles returns every trace file below root in lexical path order.
func TraceFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), TraceExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Result is the outcome for one source. When Err is set the source could
// not be loaded or extracted and Table is nil.
type Result struct {
	Index       int
	Source      string
	Spectrum    spectrum.Spectrum
	Table       peaks.Table
	Failures    []peaks.Failure
	SkippedRows int
	Err         error
}

// OK reports whether the source was extracted.
func (r Result) OK() bool { return r.Err == nil }

// ExtractAll loads and extracts every source using at most workers
// goroutines (NumCPU when workers <= 0). Per-source failures are carried in
// the results; the returned error is only set for invalid params or a
// cancelled context.
func ExtractAll(ctx context.Context, sources []Source, p peaks.Params, workers int) ([]Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		i, src := i, src
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = extractOne(i, src, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func extractOne(i int, src Source, p peaks.Params) Result {
	res := Result{Index: i, Source: src.ID}
	s, stats, err := src.Load()
	res.SkippedRows = stats.SkippedRows
	if err != nil {
		res.Err = err
		monitoring.Warnf("skipping %s: %v", src.ID, err)
		return res
	}
	res.Spectrum = s

	table, failures, err := peaks.Extract(s, p)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", src.ID, err)
		return res
	}
	for _, f := range failures {
		monitoring.Warnf("%s: skipped %v", src.ID, f)
	}
	res.Table = table
	res.Failures = failures
	return res
}

// Tables returns the tables of the successful results, in source order.
func Tables(results []Result) []peaks.Table {
	var out []peaks.Table
	for _, r := range results {
		if r.OK() {
			out = append(out, r.Table)
		}
	}
	return out
}
