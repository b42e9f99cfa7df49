package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/peaktable"
)

// StoredTable is a peak table persisted for one sample.
type StoredTable struct {
	SampleID    string
	RunID       string
	Source      string
	Group       string
	SkippedRows int
	Table       peaks.Table
	CreatedAt   time.Time
}

// InsertPeakTable stores the table extracted from source under runID and
// returns the new sample ID. Records keep their order.
func (db *DB) InsertPeakTable(runID, source, group string, table peaks.Table, skippedRows int) (string, error) {
	sampleID := uuid.NewString()
	created := unixNanos(db.now())

	err := db.retryOnBusy(func() error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			INSERT INTO samples (sample_id, run_id, source, sample_group, peak_count, skipped_rows, created_unix_nanos)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sampleID, runID, source, group, len(table), skippedRows, created,
		); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO peak_records (sample_id, seq, wavelength, max_intensity, area) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, r := range table {
			if _, err := stmt.Exec(sampleID, i, r.Wavelength, r.MaxIntensity, r.Area); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", fmt.Errorf("failed to store peak table for %s: %w", source, err)
	}
	return sampleID, nil
}

// PeakTables loads the tables stored under runID, ordered by source. An
// empty runID matches every run and an empty group matches every group.
func (db *DB) PeakTables(runID, group string) ([]StoredTable, error) {
	rows, err := db.Query(`
		SELECT s.sample_id, s.run_id, s.source, s.sample_group, s.skipped_rows, s.created_unix_nanos,
		       p.wavelength, p.max_intensity, p.area
		FROM samples s
		LEFT JOIN peak_records p ON p.sample_id = s.sample_id
		WHERE (? = '' OR s.run_id = ?) AND (? = '' OR s.sample_group = ?)
		ORDER BY s.source, s.created_unix_nanos, s.sample_id, p.seq`,
		runID, runID, group, group)
	if err != nil {
		return nil, fmt.Errorf("failed to query peak tables: %w", err)
	}
	defer rows.Close()

	var out []StoredTable
	for rows.Next() {
		var (
			st               StoredTable
			nanos            int64
			w, intensity, ar sql.NullFloat64
		)
		if err := rows.Scan(&st.SampleID, &st.RunID, &st.Source, &st.Group, &st.SkippedRows, &nanos, &w, &intensity, &ar); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].SampleID != st.SampleID {
			st.CreatedAt = fromUnixNanos(nanos)
			out = append(out, st)
		}
		if w.Valid {
			last := &out[len(out)-1]
			last.Table = append(last.Table, peaks.Record{Wavelength: w.Float64, MaxIntensity: intensity.Float64, Area: ar.Float64})
		}
	}
	return out, rows.Err()
}

// Results converts stored tables into the form read from peak table files,
// so aggregation treats both sources alike. Tables without records are
// reported as empty.
func Results(tables []StoredTable) []peaktable.Result {
	out := make([]peaktable.Result, len(tables))
	for i, st := range tables {
		out[i] = peaktable.Result{Source: st.Source, Table: st.Table, SkippedRows: st.SkippedRows}
		if len(st.Table) == 0 {
			out[i].Err = peaktable.ErrEmptyTable
		}
	}
	return out
}
