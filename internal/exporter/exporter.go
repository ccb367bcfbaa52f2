// Package exporter writes solved trades as CSV.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"IVSolver/internal/model"
)

// Write emits the header and one row per solution, returning how many
// solutions carry a NaN volatility.
func Write(w io.Writer, solutions []model.Solution) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.OutputHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	nanCount := 0
	for i := range solutions {
		if !solutions[i].Solved() {
			nanCount++
		}
		if err := cw.Write(solutions[i].Row()); err != nil {
			return nanCount, fmt.Errorf("write row %s: %w", solutions[i].ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nanCount, fmt.Errorf("flush csv: %w", err)
	}
	return nanCount, nil
}

// WriteFile writes solutions to path, creating parent directories as needed.
func WriteFile(path string, solutions []model.Solution) (int, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	n, err := Write(f, solutions)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	return n, err
}
