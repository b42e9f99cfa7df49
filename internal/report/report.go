// Package report renders extraction, aggregation and classification results
// as text, CSV or JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/banshee-data/spectro.report/internal/aggregate"
	"github.com/banshee-data/spectro.report/internal/classify"
	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/peaktable"
	"github.com/banshee-data/spectro.report/internal/pipeline"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. An empty name selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output %q", s)
}

// AggregateHeader is the column order of aggregate CSV output.
var AggregateHeader = []string{"bucket", "mean_intensity", "mean_area", "count"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WritePeakTable writes one peak table. CSV output is the peak table file
// format.
func WritePeakTable(w io.Writer, t peaks.Table, f Format) error {
	switch f {
	case FormatJSON:
		if t == nil {
			t = peaks.Table{}
		}
		return writeJSON(w, t)
	case FormatCSV:
		return peaktable.Write(w, t)
	case FormatText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WAVELENGTH\tMAX INTENSITY\tAREA")
		for _, r := range t {
			fmt.Fprintf(tw, "%g\t%.2f\t%.4f\n", r.Wavelength, r.MaxIntensity, r.Area)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unsupported output %q", f)
}

// WriteAggregate writes bucket rows. Text and CSV share the same columns.
func WriteAggregate(w io.Writer, rows []aggregate.Row, f Format) error {
	switch f {
	case FormatJSON:
		if rows == nil {
			rows = []aggregate.Row{}
		}
		return writeJSON(w, rows)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(AggregateHeader); err != nil {
			return err
		}
		for _, r := range rows {
			rec := []string{formatFloat(r.Bucket), formatFloat(r.MeanIntensity), formatFloat(r.MeanArea), strconv.Itoa(r.Count)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BUCKET\tMEAN INTENSITY\tMEAN AREA\tCOUNT")
		for _, r := range rows {
			fmt.Fprintf(tw, "%g\t%.2f\t%.4f\t%d\n", r.Bucket, r.MeanIntensity, r.MeanArea, r.Count)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unsupported output %q", f)
}

// WriteAggregateSummary writes the table counts of an aggregation run.
func WriteAggregateSummary(w io.Writer, s aggregate.Summary) error {
	_, err := fmt.Fprintf(w, "tables used: %d, empty: %d, skipped: %d, rows skipped: %d, buckets: %d\n",
		s.TablesUsed, s.TablesEmpty, s.TablesSkipped, s.RowsSkipped, len(s.Rows))
	return err
}

type extractLine struct {
	Source      string `json:"source"`
	Peaks       int    `json:"peaks"`
	Failures    int    `json:"failures"`
	SkippedRows int    `json:"skipped_rows"`
	Error       string `json:"error,omitempty"`
}

// WriteExtract writes one line per extraction result in source order.
func WriteExtract(w io.Writer, results []pipeline.Result, f Format) error {
	lines := make([]extractLine, len(results))
	for i, r := range results {
		lines[i] = extractLine{
			Source:      r.Source,
			Peaks:       len(r.Table),
			Failures:    len(r.Failures),
			SkippedRows: r.SkippedRows,
		}
		if r.Err != nil {
			lines[i].Error = r.Err.Error()
		}
	}

	switch f {
	case FormatJSON:
		return writeJSON(w, lines)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"source", "peaks", "failures", "skipped_rows", "error"}); err != nil {
			return err
		}
		for _, l := range lines {
			rec := []string{l.Source, strconv.Itoa(l.Peaks), strconv.Itoa(l.Failures), strconv.Itoa(l.SkippedRows), l.Error}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SOURCE\tPEAKS\tFAILURES\tSKIPPED ROWS\tERROR")
		for _, l := range lines {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", l.Source, l.Peaks, l.Failures, l.SkippedRows, l.Error)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unsupported output %q", f)
}

// WriteClassification writes the training accuracy and one line per sample.
func WriteClassification(w io.Writer, rep *classify.Report, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, rep)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"id", "group", "decision", "predicted"}); err != nil {
			return err
		}
		for _, s := range rep.Scores {
			if err := cw.Write([]string{s.ID, s.Label.String(), formatFloat(s.Decision), s.Predicted.String()}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatText:
		fmt.Fprintf(w, "samples: %d without, %d with, %d features each\n", rep.Without, rep.With, rep.TargetLength)
		fmt.Fprintf(w, "gamma: %g, support vectors: %d, iterations: %d\n", rep.Gamma, rep.SupportVectors, rep.Iterations)
		fmt.Fprintf(w, "training accuracy: %.2f%%\n", rep.TrainingAccuracy*100)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tGROUP\tDECISION\tPREDICTED")
		for _, s := range rep.Scores {
			fmt.Fprintf(tw, "%s\t%s\t%.6f\t%s\n", s.ID, s.Label.String(), s.Decision, s.Predicted.String())
		}
		return tw.Flush()
	}
	return fmt.Errorf("unsupported output %q", f)
}
