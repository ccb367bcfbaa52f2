package rootfind

import "math"

// DefaultLadder is the sequence of increasing bracket bounds tried when no
// ladder is configured.
var DefaultLadder = []float64{1e-7, 1, 2, 5, 10, 100, 1000}

// SolveLadder walks consecutive pairs of bounds and solves on the first pair
// whose function values differ in sign. Bounds must be increasing. The search
// gives up immediately when f at the first bound is positive or NaN, since f is
// assumed increasing and no later pair can bracket a root.
func SolveLadder(f Func, bounds []float64, opts Options) Result {
	none := Result{Root: math.NaN()}
	if len(bounds) < 2 {
		return none
	}
	fLo := f(bounds[0])
	if fLo > 0 || math.IsNaN(fLo) {
		return none
	}
	for i := 1; i < len(bounds); i++ {
		fHi := f(bounds[i])
		if fLo*fHi <= 0 {
			return solve(f, bounds[i-1], bounds[i], opts)
		}
		fLo = fHi
	}
	return none
}

// SolveWithLadder is SolveLadder reduced to the root.
func SolveWithLadder(f Func, bounds []float64, opts Options) float64 {
	return SolveLadder(f, bounds, opts).Root
}
