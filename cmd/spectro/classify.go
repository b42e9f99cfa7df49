package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/spectro.report/internal/classify"
	"github.com/banshee-data/spectro.report/internal/config"
	"github.com/banshee-data/spectro.report/internal/db"
	"github.com/banshee-data/spectro.report/internal/monitoring"
	"github.com/banshee-data/spectro.report/internal/peaktable"
	"github.com/banshee-data/spectro.report/internal/pipeline"
	"github.com/banshee-data/spectro.report/internal/report"
	"github.com/banshee-data/spectro.report/internal/spectrum"
)

func runClassify(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("classify", stderr)
	var common commonFlags
	common.register(fs)
	withoutDir := fs.String("without", "", "directory of the group labelled 0")
	withDir := fs.String("with", "", "directory of the group labelled 1")
	fromRun := fs.String("run", "", "read both groups from this extract run in -db (groups \"without\" and \"with\")")
	feature := fs.String("feature", "", "max_intensity, area (peak tables) or intensity (traces); empty = config value")
	target := fs.Int("target", 0, "features per sample (0 = config value, which defaults to the shortest sample)")
	gamma := fs.String("gamma", "", "RBF gamma: auto, scale or a positive number; empty = config value")
	show := fs.String("show", "", "print the stored classification run with this ID from -db instead of fitting")
	group := fs.String("group", "", "with -show, list only the scores of this group (without or with)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, format, err := common.load()
	if err != nil {
		return err
	}
	if isSet(fs, "feature") {
		cfg.Feature = feature
	}
	if isSet(fs, "target") {
		cfg.TargetLength = target
	}
	if isSet(fs, "gamma") {
		cfg.Gamma = gamma
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

	if *show != "" {
		if store == nil {
			return fmt.Errorf("classify: -show requires -db")
		}
		return showClassification(store, *show, *group, format, stdout)
	}

	var without, with []classify.Sample
	switch {
	case *fromRun != "":
		if store == nil {
			return fmt.Errorf("classify: -run requires -db")
		}
		if cfg.GetFeature() == classify.FeatureIntensity {
			return fmt.Errorf("classify: feature %q needs trace directories, not a stored run", classify.FeatureIntensity)
		}
		if without, err = storedSamples(store, *fromRun, classify.Without, cfg.GetFeature()); err != nil {
			return err
		}
		if with, err = storedSamples(store, *fromRun, classify.With, cfg.GetFeature()); err != nil {
			return err
		}
	case *withoutDir != "" && *withDir != "":
		if without, err = loadSamples(*withoutDir, cfg); err != nil {
			return err
		}
		if with, err = loadSamples(*withDir, cfg); err != nil {
			return err
		}
	default:
		fmt.Fprintln(stderr, "classify: -without and -with directories, or -run with -db, are required")
		fs.Usage()
		return errUsage
	}

	rep, err := classify.Run(classify.GroupSamples(without, with), cfg.GetTargetLength(), cfg.SVMParams())
	if err != nil {
		return err
	}

	if store != nil {
		run, err := store.CreateRun(db.RunClassify, map[string]any{
			"feature":       cfg.GetFeature(),
			"target_length": rep.TargetLength,
			"svm":           cfg.SVMParams(),
			"source_run":    *fromRun,
		})
		if err != nil {
			return err
		}
		if err := store.InsertClassification(run.ID, rep); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "classify run: %s\n", run.ID)
	}

	return report.WriteClassification(stdout, rep, format)
}

// showClassification prints a stored run, optionally keeping only the
// scores of one group.
func showClassification(store *db.DB, runID, group string, format report.Format, stdout io.Writer) error {
	rep, err := store.Classification(runID)
	if err != nil {
		return err
	}
	if group != "" {
		label, err := classify.ParseLabel(group)
		if err != nil {
			return err
		}
		kept := rep.Scores[:0]
		for _, s := range rep.Scores {
			if s.Label == label {
				kept = append(kept, s)
			}
		}
		rep.Scores = kept
	}
	return report.WriteClassification(stdout, rep, format)
}

// loadSamples reads one group from dir: peak tables for the peak table
// features, traces for the intensity feature. Unusable files are skipped.
func loadSamples(dir string, cfg *config.AnalysisConfig) ([]classify.Sample, error) {
	feature := cfg.GetFeature()
	var out []classify.Sample

	if feature == classify.FeatureIntensity {
		files, err := pipeline.TraceFiles(dir)
		if err != nil {
			return nil, err
		}
		for _, path := range files {
			s, _, err := spectrum.ReadTraceFile(path, cfg.ReadOptions())
			if err != nil {
				monitoring.Warnf("skipping %s: %v", path, err)
				continue
			}
			x, err := feature.FromSpectrum(s)
			if err != nil {
				return nil, err
			}
			out = append(out, classify.Sample{ID: path, Features: x})
		}
	} else {
		results, err := peaktable.ReadTree(dir)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			switch {
			case errors.Is(r.Err, peaktable.ErrEmptyTable):
				monitoring.Logf("%s is empty and was skipped", r.Source)
				continue
			case r.Err != nil:
				monitoring.Warnf("skipping table %s: %v", r.Source, r.Err)
				continue
			}
			x, err := feature.FromTable(r.Table)
			if err != nil {
				return nil, err
			}
			out = append(out, classify.Sample{ID: r.Source, Features: x})
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no usable samples in %s", dir)
	}
	return out, nil
}

func storedSamples(store *db.DB, runID string, group classify.Label, feature classify.Feature) ([]classify.Sample, error) {
	tables, err := store.PeakTables(runID, group.String())
	if err != nil {
		return nil, err
	}
	var out []classify.Sample
	for _, st := range tables {
		if len(st.Table) == 0 {
			monitoring.Logf("%s is empty and was skipped", st.Source)
			continue
		}
		x, err := feature.FromTable(st.Table)
		if err != nil {
			return nil, err
		}
		out = append(out, classify.Sample{ID: st.Source, Features: x})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("run %s has no usable %q samples", runID, group)
	}
	return out, nil
}
