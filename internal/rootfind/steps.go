// Package rootfind implements a bracketed Brent-Dekker root finder and a
// ladder search that widens the bracket until the function changes sign.
package rootfind

import "errors"

// ErrZeroDenominator is returned by an interpolation step whose formula would divide by zero.
var ErrZeroDenominator = errors.New("interpolation denominator is zero")

// InverseQuadraticInterpolation fits x as a quadratic in f through (a,fa), (b,fb), (c,fc)
// and returns its value at f = 0.
func InverseQuadraticInterpolation(a, b, c, fa, fb, fc float64) (float64, error) {
	denA := (fa - fb) * (fa - fc)
	denB := (fb - fa) * (fb - fc)
	denC := (fc - fa) * (fc - fb)
	if denA == 0 || denB == 0 || denC == 0 {
		return 0, ErrZeroDenominator
	}
	return a*fb*fc/denA + b*fa*fc/denB + c*fb*fa/denC, nil
}

// Secant returns the zero of the line through (a,fa) and (b,fb).
func Secant(a, b, fa, fb float64) (float64, error) {
	if fb == fa {
		return 0, ErrZeroDenominator
	}
	return b - fb*(b-a)/(fb-fa), nil
}

// Bisection returns the midpoint of a and b.
func Bisection(a, b float64) float64 {
	return (a + b) / 2.0
}
