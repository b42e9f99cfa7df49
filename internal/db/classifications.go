package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/spectro.report/internal/classify"
)

// InsertClassification stores a classification report under runID.
func (db *DB) InsertClassification(runID string, rep *classify.Report) error {
	err := db.retryOnBusy(func() error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			INSERT INTO classification_runs (
				run_id, without_count, with_count, target_length,
				training_accuracy, gamma, support_vectors, iterations
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, rep.Without, rep.With, rep.TargetLength,
			rep.TrainingAccuracy, rep.Gamma, rep.SupportVectors, rep.Iterations,
		); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO decision_scores (run_id, seq, sample_ref, label, decision, predicted)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, s := range rep.Scores {
			if _, err := stmt.Exec(runID, i, s.ID, int(s.Label), s.Decision, int(s.Predicted)); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("failed to store classification for run %s: %w", runID, err)
	}
	return nil
}

// Classification loads the report stored under runID. It returns
// ErrNotFound if there is none.
func (db *DB) Classification(runID string) (*classify.Report, error) {
	rep := &classify.Report{}
	err := db.QueryRow(`
		SELECT without_count, with_count, target_length, training_accuracy, gamma, support_vectors, iterations
		FROM classification_runs WHERE run_id = ?`, runID,
	).Scan(&rep.Without, &rep.With, &rep.TargetLength, &rep.TrainingAccuracy, &rep.Gamma, &rep.SupportVectors, &rep.Iterations)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("classification %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load classification %s: %w", runID, err)
	}

	rows, err := db.Query(`
		SELECT sample_ref, label, decision, predicted
		FROM decision_scores WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load decision scores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			s                classify.Score
			label, predicted int
		)
		if err := rows.Scan(&s.ID, &label, &s.Decision, &predicted); err != nil {
			return nil, err
		}
		s.Label, s.Predicted = classify.Label(label), classify.Label(predicted)
		rep.Scores = append(rep.Scores, s)
	}
	return rep, rows.Err()
}
