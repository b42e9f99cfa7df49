package db

import (
	"fmt"

	"github.com/banshee-data/spectro.report/internal/aggregate"
)

// InsertAggregate stores the aggregate rows computed for group under runID.
func (db *DB) InsertAggregate(runID, group string, rows []aggregate.Row) error {
	err := db.retryOnBusy(func() error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO aggregate_rows (run_id, sample_group, bucket, mean_intensity, mean_area, record_count)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.Exec(runID, group, r.Bucket, r.MeanIntensity, r.MeanArea, r.Count); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("failed to store aggregate for run %s: %w", runID, err)
	}
	return nil
}

// AggregateRows loads the rows stored for group under runID in ascending
// bucket order.
func (db *DB) AggregateRows(runID, group string) ([]aggregate.Row, error) {
	rows, err := db.Query(`
		SELECT bucket, mean_intensity, mean_area, record_count
		FROM aggregate_rows
		WHERE run_id = ? AND sample_group = ?
		ORDER BY bucket`, runID, group)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregate rows: %w", err)
	}
	defer rows.Close()

	var out []aggregate.Row
	for rows.Next() {
		var r aggregate.Row
		if err := rows.Scan(&r.Bucket, &r.MeanIntensity, &r.MeanArea, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
