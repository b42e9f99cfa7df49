package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run kinds.
const (
	RunExtract   = "extract"
	RunAggregate = "aggregate"
	RunClassify  = "classify"
)

// Run is one invocation of an analysis step and the parameters it used.
type Run struct {
	ID        string          `json:"run_id"`
	Kind      string          `json:"kind"`
	Params    json.RawMessage `json:"params"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateRun records a new run. params is stored as JSON and may be nil.
func (db *DB) CreateRun(kind string, params interface{}) (*Run, error) {
	raw := json.RawMessage("{}")
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode run params: %w", err)
		}
		raw = b
	}

	run := &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Params:    raw,
		CreatedAt: fromUnixNanos(unixNanos(db.now())),
	}
	err := db.retryOnBusy(func() error {
		_, err := db.Exec(
			`INSERT INTO analysis_runs (run_id, kind, params_json, created_unix_nanos) VALUES (?, ?, ?, ?)`,
			run.ID, run.Kind, string(run.Params), unixNanos(run.CreatedAt),
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s run: %w", kind, err)
	}
	return run, nil
}

// GetRun loads a run by ID. It returns ErrNotFound if there is none.
func (db *DB) GetRun(id string) (*Run, error) {
	var (
		run    Run
		params string
		nanos  int64
	)
	err := db.QueryRow(
		`SELECT run_id, kind, params_json, created_unix_nanos FROM analysis_runs WHERE run_id = ?`, id,
	).Scan(&run.ID, &run.Kind, &params, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	run.Params = json.RawMessage(params)
	run.CreatedAt = fromUnixNanos(nanos)
	return &run, nil
}

// ListRuns returns the runs of the given kind, newest first. An empty kind
// lists every run.
func (db *DB) ListRuns(kind string) ([]Run, error) {
	rows, err := db.Query(`
		SELECT run_id, kind, params_json, created_unix_nanos
		FROM analysis_runs
		WHERE ? = '' OR kind = ?
		ORDER BY created_unix_nanos DESC, run_id`, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run    Run
			params string
			nanos  int64
		)
		if err := rows.Scan(&run.ID, &run.Kind, &params, &nanos); err != nil {
			return nil, err
		}
		run.Params = json.RawMessage(params)
		run.CreatedAt = fromUnixNanos(nanos)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
