package recorder

import "IVSolver/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *model.BatchSummary, _ []model.Solution) (int64, error) {
	return 0, nil
}
func (n *NoopRecorder) LastRun() (*Run, error)                         { return nil, ErrNoRuns }
func (n *NoopRecorder) RunSolutions(_ int64) ([]model.Solution, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                   { return nil }
