package recorder

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IVSolver/internal/model"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "db", "ivsolver.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func batch() (*model.BatchSummary, []model.Solution) {
	tr := model.Trade{
		ID: "0", Spot: 0.5434, Strike: 0.7103, Rate: -0.0045, YearsToExpiry: 0.836, MarketPrice: 0.0979,
		OptionType: model.OptionCall, UnderlyingType: model.UnderlyingStock, ModelType: model.ModelBlackScholes,
	}
	bad := tr
	bad.ID = "1"
	solutions := []model.Solution{
		{Trade: tr, ImpliedVolatility: 0.7587, Iterations: 9},
		{Trade: bad, ImpliedVolatility: math.NaN()},
	}
	summary := &model.BatchSummary{
		Source:    "input.csv",
		Output:    "output.csv",
		StartedAt: time.UnixMilli(1_700_000_000_000),
		Duration:  1500 * time.Millisecond,
	}
	for i := range solutions {
		summary.Add(&solutions[i])
	}
	return summary, solutions
}

func TestRecordAndLoadRun(t *testing.T) {
	r := openTemp(t)

	_, err := r.LastRun()
	assert.ErrorIs(t, err, ErrNoRuns)

	summary, solutions := batch()
	id, err := r.RecordRun(summary, solutions)
	require.NoError(t, err)
	assert.Positive(t, id)

	last, err := r.LastRun()
	require.NoError(t, err)
	assert.Equal(t, id, last.ID)
	assert.Equal(t, "input.csv", last.Source)
	assert.Equal(t, 2, last.Total)
	assert.Equal(t, 1, last.NaNCount)
	assert.Equal(t, 9, last.Iterations)
	assert.Equal(t, summary.Duration, last.Duration)
	assert.True(t, summary.StartedAt.Equal(last.StartedAt))

	stored, err := r.RunSolutions(id)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "0", stored[0].ID)
	assert.Equal(t, 0.7587, stored[0].ImpliedVolatility)
	assert.Equal(t, model.ModelBlackScholes, stored[0].ModelType)
	assert.True(t, math.IsNaN(stored[1].ImpliedVolatility))
}

func TestLastRunIsMostRecent(t *testing.T) {
	r := openTemp(t)
	summary, solutions := batch()

	_, err := r.RecordRun(summary, solutions)
	require.NoError(t, err)
	summary.Source = "second.csv"
	second, err := r.RecordRun(summary, solutions[:1])
	require.NoError(t, err)

	last, err := r.LastRun()
	require.NoError(t, err)
	assert.Equal(t, second, last.ID)
	assert.Equal(t, "second.csv", last.Source)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	summary, solutions := batch()
	_, err := r.RecordRun(summary, solutions)
	assert.NoError(t, err)
	_, err = r.LastRun()
	assert.ErrorIs(t, err, ErrNoRuns)
	assert.NoError(t, r.Close())
}
