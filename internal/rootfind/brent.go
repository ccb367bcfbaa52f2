package rootfind

import "math"

// Func is a continuous scalar function whose root is sought.
type Func func(x float64) float64

// Options bounds a single root search.
type Options struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultOptions returns 50 iterations and a 1e-8 bracket tolerance.
func DefaultOptions() Options {
	return Options{MaxIterations: 50, Tolerance: 1e-8}
}

// Result describes the outcome of a root search.
// Root is NaN when the bracket did not contain a sign change.
type Result struct {
	Root      float64
	Steps     int
	Lower     float64
	Upper     float64
	Fallbacks int // steps where an interpolation formula hit ErrZeroDenominator
}

// Found reports whether Root holds a usable value.
func (r Result) Found() bool {
	return !math.IsNaN(r.Root)
}

// brent is the running state of one search. b is always the best estimate,
// c the previous b and d the b before that.
type brent struct {
	a, b, c, d    float64
	fa, fb, fc    float64
	usedBisection bool
}

// Solve finds a root of f between a and b, returning the estimate and the
// number of iterations taken. It returns NaN and 0 when f(a) and f(b) share a sign.
// Iteration counts are not comparable with other Brent-Dekker implementations,
// which may order the interpolation bracket and pick the best estimate differently.
func Solve(f Func, a, b float64, opts Options) (float64, int) {
	res := solve(f, a, b, opts)
	return res.Root, res.Steps
}

func solve(f Func, a, b float64, opts Options) Result {
	res := Result{Root: math.NaN(), Lower: a, Upper: b}
	fa, fb := f(a), f(b)
	if fa*fb > 0 {
		return res
	}

	st := brent{a: a, b: b, fa: fa, fb: fb, usedBisection: true}
	st.swapIfBetter()
	st.c, st.fc = st.a, st.fa
	st.d = st.c

	for res.Steps < opts.MaxIterations &&
		math.Abs(st.b-st.a) > opts.Tolerance &&
		st.fb != 0.0 && st.fc != 0.0 {
		if st.step(f, opts.Tolerance) {
			res.Fallbacks++
		}
		res.Steps++
	}

	res.Root = st.b
	return res
}

// step performs one iteration and reports whether an interpolation was degenerate.
func (st *brent) step(f Func, tol float64) bool {
	var (
		s          float64
		err        error
		degenerate bool
	)
	if st.fa != st.fc && st.fb != st.fc {
		s, err = InverseQuadraticInterpolation(st.a, st.b, st.c, st.fa, st.fb, st.fc)
		if err != nil {
			degenerate = true
			s, err = Secant(st.a, st.b, st.fa, st.fb)
		}
	} else {
		s, err = Secant(st.a, st.b, st.fa, st.fb)
	}
	if err != nil {
		degenerate = true
	}

	if err != nil || st.needsBisection(s, tol) {
		s = Bisection(st.a, st.b)
		st.usedBisection = true
	} else {
		st.usedBisection = false
	}

	fs := f(s)
	st.d = st.c
	st.c, st.fc = st.b, st.fb

	if st.fa*fs < 0 {
		st.b, st.fb = s, fs
	} else {
		st.a, st.fa = s, fs
	}
	st.swapIfBetter()
	return degenerate
}

func (st *brent) needsBisection(s, tol float64) bool {
	lo, hi := (3*st.a+st.b)/4, st.b
	if lo > hi {
		lo, hi = hi, lo
	}
	switch {
	case !(lo < s && s < hi):
		return true
	case st.usedBisection && math.Abs(s-st.b) >= math.Abs(st.b-st.c)/2:
		return true
	case !st.usedBisection && math.Abs(s-st.b) >= math.Abs(st.c-st.d)/2:
		return true
	case st.usedBisection && math.Abs(st.b-st.c) < tol:
		return true
	case !st.usedBisection && math.Abs(st.c-st.d) < tol:
		return true
	}
	return false
}

// swapIfBetter keeps b as the point with the smallest residual.
func (st *brent) swapIfBetter() {
	if math.Abs(st.fa) < math.Abs(st.fb) {
		st.a, st.b = st.b, st.a
		st.fa, st.fb = st.fb, st.fa
	}
}
