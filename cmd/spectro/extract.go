package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/spectro.report/internal/db"
	"github.com/banshee-data/spectro.report/internal/monitoring"
	"github.com/banshee-data/spectro.report/internal/peaktable"
	"github.com/banshee-data/spectro.report/internal/pipeline"
	"github.com/banshee-data/spectro.report/internal/report"
	"github.com/banshee-data/spectro.report/internal/security"
)

// trace is a trace file and the root it was found under.
type trace struct {
	root, path string
}

// outputPath mirrors the trace's position below its root under dir.
func (t trace) outputPath(dir string) (string, error) {
	rel, err := filepath.Rel(t.root, t.path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(t.path)
	}
	return security.OutputPath(dir, strings.TrimSuffix(rel, filepath.Ext(rel))+peaktable.Suffix)
}

func collectTraces(paths []string) ([]trace, error) {
	var out []trace
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, trace{root: filepath.Dir(p), path: p})
			continue
		}
		files, err := pipeline.TraceFiles(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			out = append(out, trace{root: p, path: f})
		}
	}
	return out, nil
}

func runExtract(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("extract", stderr)
	var common commonFlags
	common.register(fs)
	outDir := fs.String("out", "", "directory for peak tables; tables are not written when empty")
	group := fs.String("group", "", "sample group recorded with each table in the database")
	intoRun := fs.String("into-run", "", "add the tables to this existing extract run instead of starting a new one")
	printTables := fs.Bool("print-tables", false, "also write every extracted peak table to stdout")
	workers := fs.Int("workers", 0, "concurrent extractions (0 = config value or NumCPU)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "extract: at least one trace file or directory is required")
		fs.Usage()
		return errUsage
	}
	if *intoRun != "" && common.dbPath == "" {
		return fmt.Errorf("extract: -into-run requires -db")
	}

	cfg, format, err := common.load()
	if err != nil {
		return err
	}
	if isSet(fs, "workers") {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	traces, err := collectTraces(fs.Args())
	if err != nil {
		return err
	}
	if len(traces) == 0 {
		return fmt.Errorf("no %s trace files found", pipeline.TraceExt)
	}

	sources := make([]pipeline.Source, len(traces))
	for i, t := range traces {
		sources[i] = pipeline.FileSource(t.path, cfg.ReadOptions())
	}
	monitoring.Logf("extracting peaks from %d traces with %d workers", len(sources), cfg.GetWorkers())
	results, err := pipeline.ExtractAll(ctx, sources, cfg.PeakParams(), cfg.GetWorkers())
	if err != nil {
		return err
	}

	if *outDir != "" {
		for i, r := range results {
			if !r.OK() {
				continue
			}
			path, err := traces[i].outputPath(*outDir)
			if err != nil {
				return err
			}
			if err := peaktable.WriteFile(path, r.Table); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
		}
	}

	store, err := common.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		runID, err := storeExtraction(store, cfg, *intoRun, *group, results)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "extract run: %s\n", runID)
	}

	if err := report.WriteExtract(stdout, results, format); err != nil {
		return err
	}
	if *printTables {
		for _, r := range results {
			if !r.OK() {
				continue
			}
			fmt.Fprintf(stdout, "\n# %s\n", r.Source)
			if err := report.WritePeakTable(stdout, r.Table, format); err != nil {
				return err
			}
		}
	}
	return nil
}

// storeExtraction records the successful tables under a new extract run, or
// under intoRun when it names an existing one, and returns the run ID.
func storeExtraction(store *db.DB, params any, intoRun, group string, results []pipeline.Result) (string, error) {
	var runID string
	if intoRun != "" {
		run, err := store.GetRun(intoRun)
		if err != nil {
			return "", err
		}
		if run.Kind != db.RunExtract {
			return "", fmt.Errorf("run %s is a %s run, not %s", run.ID, run.Kind, db.RunExtract)
		}
		runID = run.ID
	} else {
		run, err := store.CreateRun(db.RunExtract, params)
		if err != nil {
			return "", err
		}
		runID = run.ID
	}

	stored := 0
	for _, r := range results {
		if !r.OK() {
			continue
		}
		if _, err := store.InsertPeakTable(runID, r.Source, group, r.Table, r.SkippedRows); err != nil {
			return "", err
		}
		stored++
	}
	monitoring.Logf("stored %d %q peak tables under run %s", stored, group, runID)
	return runID, nil
}
