package main

import (
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/spectro.report/internal/aggregate"
	"github.com/banshee-data/spectro.report/internal/db"
	"github.com/banshee-data/spectro.report/internal/monitoring"
	"github.com/banshee-data/spectro.report/internal/peaktable"
	"github.com/banshee-data/spectro.report/internal/report"
)

func runAggregate(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("aggregate", stderr)
	var common commonFlags
	common.register(fs)
	bucket := fs.Float64("bucket", 0, "bucket width in nm (0 = config value)")
	fromRun := fs.String("run", "", "aggregate the peak tables of this extract run from -db instead of files")
	group := fs.String("group", "", "sample group to select with -run and to record the result under")
	outPath := fs.String("out", "", "write the aggregate CSV to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, format, err := common.load()
	if err != nil {
		return err
	}
	if isSet(fs, "bucket") {
		cfg.BucketSize = bucket
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := common.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	var results []peaktable.Result
	switch {
	case *fromRun != "":
		if store == nil {
			return fmt.Errorf("aggregate: -run requires -db")
		}
		tables, err := store.PeakTables(*fromRun, *group)
		if err != nil {
			return err
		}
		results = db.Results(tables)
	case fs.NArg() == 1:
		results, err = peaktable.ReadTree(fs.Arg(0))
		if err != nil {
			return err
		}
	default:
		fmt.Fprintln(stderr, "aggregate: exactly one peak table directory, or -run with -db, is required")
		fs.Usage()
		return errUsage
	}

	summary, err := aggregate.Run(results, cfg.GetBucketSize())
	if err != nil {
		return err
	}

	if store != nil {
		run, err := store.CreateRun(db.RunAggregate, map[string]any{
			"bucket_size": cfg.GetBucketSize(),
			"source_run":  *fromRun,
			"group":       *group,
		})
		if err != nil {
			return err
		}
		if err := store.InsertAggregate(run.ID, *group, summary.Rows); err != nil {
			return err
		}
		monitoring.Logf("stored %d buckets under run %s", len(summary.Rows), run.ID)
	}

	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		if err := report.WriteAggregate(f, summary.Rows, report.FormatCSV); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		return report.WriteAggregateSummary(stdout, summary)
	}

	if err := report.WriteAggregate(stdout, summary.Rows, format); err != nil {
		return err
	}
	return report.WriteAggregateSummary(stderr, summary)
}
