package recorder

import (
	"errors"

	"IVSolver/internal/model"
)

// ErrNoRuns is returned when no batch has been recorded yet.
var ErrNoRuns = errors.New("no batch runs recorded")

// Run is a stored batch summary.
type Run struct {
	ID int64
	model.BatchSummary
}

// Recorder persists batch history for later analysis.
type Recorder interface {
	RecordRun(summary *model.BatchSummary, solutions []model.Solution) (int64, error)
	LastRun() (*Run, error)
	RunSolutions(runID int64) ([]model.Solution, error)
	Close() error
}
