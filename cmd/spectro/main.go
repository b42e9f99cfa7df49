// Command spectro extracts emission peaks from spectrometer traces,
// aggregates peak tables by wavelength bucket, and trains a two-group
// classifier over per-sample features.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/spectro.report/internal/config"
	"github.com/banshee-data/spectro.report/internal/db"
	"github.com/banshee-data/spectro.report/internal/report"
	"github.com/banshee-data/spectro.report/internal/version"
)

const defaultDBFile = "spectro.db"

// errUsage is returned after usage has been printed.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("spectro: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "extract":
		return runExtract(ctx, rest, stdout, stderr)
	case "aggregate":
		return runAggregate(rest, stdout, stderr)
	case "classify":
		return runClassify(rest, stdout, stderr)
	case "migrate":
		return runMigrate(rest, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version.String())
		return nil
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
	usage(stderr)
	return errUsage
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: spectro <command> [flags] [paths]

Commands:
  extract     find peaks in trace files and write one peak table per trace
  aggregate   average peak tables into wavelength buckets
  classify    train a classifier on two sample groups and score every sample
  migrate     manage the results database schema (see 'spectro migrate help')
  version     print build information

Run 'spectro <command> -h' for command flags.
`)
}

// commonFlags are shared by the analysis commands.
type commonFlags struct {
	configPath string
	dbPath     string
	format     string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "analysis config file (.json, .yaml or .yml); defaults apply when empty")
	fs.StringVar(&c.dbPath, "db", "", "SQLite database to record the run in; nothing is stored when empty")
	fs.StringVar(&c.format, "format", "text", "output format: text, csv or json")
}

func (c *commonFlags) load() (*config.AnalysisConfig, report.Format, error) {
	format, err := report.ParseFormat(c.format)
	if err != nil {
		return nil, "", err
	}
	if c.configPath == "" {
		return config.EmptyConfig(), format, nil
	}
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return nil, "", err
	}
	return cfg, format, nil
}

// openStore opens and migrates the database, or returns nil when no path
// was given.
func (c *commonFlags) openStore() (*db.DB, error) {
	if c.dbPath == "" {
		return nil, nil
	}
	store, err := db.NewDB(c.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// isSet reports whether the named flag was given on the command line.
func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runMigrate(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("migrate", stderr)
	dbPath := fs.String("db", defaultDBFile, "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), *dbPath, stdout)
}
