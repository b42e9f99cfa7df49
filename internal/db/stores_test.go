package db

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spectro.report/internal/aggregate"
	"github.com/banshee-data/spectro.report/internal/classify"
	"github.com/banshee-data/spectro.report/internal/peaks"
	"github.com/banshee-data/spectro.report/internal/peaktable"
	"github.com/banshee-data/spectro.report/internal/timeutil"
)

func TestRuns(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	clock := timeutil.NewManual(start)
	db.SetClock(clock)

	first, err := db.CreateRun(RunExtract, map[string]float64{"height_min": 5000})
	require.NoError(t, err)
	assert.Equal(t, start, first.CreatedAt)

	clock.Advance(time.Second)
	second, err := db.CreateRun(RunClassify, nil)
	require.NoError(t, err)

	got, err := db.GetRun(first.ID)
	require.NoError(t, err)
	assert.Equal(t, RunExtract, got.Kind)
	assert.Equal(t, start, got.CreatedAt)
	var params map[string]float64
	require.NoError(t, json.Unmarshal(got.Params, &params))
	assert.Equal(t, 5000.0, params["height_min"])

	all, err := db.ListRuns("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	only, err := db.ListRuns(RunExtract)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, first.ID, only[0].ID)

	_, err = db.GetRun("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = db.CreateRun("nonsense", nil)
	assert.Error(t, err, "kind is constrained by the schema")
}

func TestPeakTables(t *testing.T) {
	db := setupTestDB(t)
	run, err := db.CreateRun(RunExtract, nil)
	require.NoError(t, err)

	tableB := peaks.Table{
		{Wavelength: 410.5, MaxIntensity: 8000, Area: 120.25},
		{Wavelength: 656.3, MaxIntensity: 21000, Area: 410},
	}
	tableA := peaks.Table{{Wavelength: 589, MaxIntensity: 6000, Area: 33}}

	_, err = db.InsertPeakTable(run.ID, "samples/2/b.txt", "with", tableB, 1)
	require.NoError(t, err)
	_, err = db.InsertPeakTable(run.ID, "samples/1/a.txt", "without", tableA, 0)
	require.NoError(t, err)
	_, err = db.InsertPeakTable(run.ID, "samples/1/flat.txt", "without", nil, 0)
	require.NoError(t, err)

	all, err := db.PeakTables(run.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "samples/1/a.txt", all[0].Source)
	assert.Equal(t, "samples/1/flat.txt", all[1].Source)
	assert.Empty(t, all[1].Table)
	if diff := cmp.Diff(tableB, all[2].Table); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, all[2].SkippedRows)
	assert.Equal(t, "with", all[2].Group)

	with, err := db.PeakTables("", "with")
	require.NoError(t, err)
	require.Len(t, with, 1)
	assert.Equal(t, run.ID, with[0].RunID)

	results := Results(all)
	assert.ErrorIs(t, results[1].Err, peaktable.ErrEmptyTable)
	assert.NoError(t, results[0].Err)

	sum, err := aggregate.Run(results, aggregate.DefaultBucketSize)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TablesUsed)
	assert.Equal(t, 1, sum.TablesEmpty)
	assert.Equal(t, 1, sum.RowsSkipped)

	_, err = db.InsertPeakTable("no-such-run", "x.txt", "", tableA, 0)
	assert.Error(t, err, "foreign key to analysis_runs")
}

func TestAggregateRows(t *testing.T) {
	db := setupTestDB(t)
	run, err := db.CreateRun(RunAggregate, nil)
	require.NoError(t, err)

	rows := []aggregate.Row{
		{Bucket: 660, MeanIntensity: 20500, MeanArea: 400, Count: 2},
		{Bucket: 410, MeanIntensity: 8000, MeanArea: 120.25, Count: 1},
	}
	require.NoError(t, db.InsertAggregate(run.ID, "with", rows))

	got, err := db.AggregateRows(run.ID, "with")
	require.NoError(t, err)
	assert.Equal(t, []aggregate.Row{rows[1], rows[0]}, got)

	none, err := db.AggregateRows(run.ID, "without")
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.Error(t, db.InsertAggregate(run.ID, "with", rows[:1]), "duplicate bucket")
}

func TestClassification(t *testing.T) {
	db := setupTestDB(t)
	run, err := db.CreateRun(RunClassify, nil)
	require.NoError(t, err)

	rep := &classify.Report{
		Without:          1,
		With:             1,
		TargetLength:     3,
		TrainingAccuracy: 1,
		Gamma:            1.0 / 3,
		SupportVectors:   2,
		Iterations:       1,
		Scores: []classify.Score{
			{ID: "a", Label: classify.Without, Decision: -0.99, Predicted: classify.Without},
			{ID: "b", Label: classify.With, Decision: 1.01, Predicted: classify.With},
		},
	}
	require.NoError(t, db.InsertClassification(run.ID, rep))

	got, err := db.Classification(run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(rep, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	_, err = db.Classification("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
