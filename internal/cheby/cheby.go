// Package cheby implements the Chebyshev polynomial primitive used to
// compress sampled ephemeris quantities: a least-squares fit of a sampled
// scalar signal onto the Chebyshev basis over an interval, and fast
// evaluation of a coefficient set (with optional first derivative) at any
// point inside that interval.
package cheby

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Fit computes nCoeff Chebyshev coefficients approximating the samples
// (times[i], values[i]) over the interval [tStart, tEnd], and returns the
// coefficients together with the maximum absolute residual between the
// fitted polynomial and the input samples.
//
// The fit is an unweighted least-squares solve on the Chebyshev basis
// evaluated at the (possibly unequally spaced) sample times.
func Fit(times, values []float64, tStart, tEnd float64, nCoeff int) ([]float64, float64, error) {
	n := len(times)
	if n == 0 || n != len(values) {
		return nil, 0, fmt.Errorf("cheby: need matching samples, got %d times and %d values", n, len(values))
	}
	if nCoeff < 1 {
		return nil, 0, fmt.Errorf("cheby: nCoeff must be >= 1, got %d", nCoeff)
	}
	if nCoeff > n {
		return nil, 0, fmt.Errorf("cheby: nCoeff %d exceeds sample count %d", nCoeff, n)
	}
	if tEnd <= tStart {
		return nil, 0, fmt.Errorf("cheby: bad interval [%v, %v]", tStart, tEnd)
	}

	// Design matrix: basis[i][j] = T_j(x_i) with x the sample time mapped
	// onto [-1, 1].
	a := mat.NewDense(n, nCoeff, nil)
	for i, t := range times {
		x := scale(t, tStart, tEnd)
		tPrev, tCur := 1.0, x
		for j := 0; j < nCoeff; j++ {
			switch j {
			case 0:
				a.Set(i, j, 1)
			case 1:
				a.Set(i, j, x)
			default:
				tPrev, tCur = tCur, 2*x*tCur-tPrev
				a.Set(i, j, tCur)
			}
		}
	}
	b := mat.NewVecDense(n, nil)
	for i, v := range values {
		b.SetVec(i, v)
	}

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return nil, 0, fmt.Errorf("cheby: least-squares solve failed: %w", err)
	}

	coeffs := make([]float64, nCoeff)
	for j := range coeffs {
		coeffs[j] = sol.AtVec(j)
	}

	maxResid := 0.0
	for i, t := range times {
		v, _ := Eval(coeffs, tStart, tEnd, t, false)
		if r := abs(v - values[i]); r > maxResid {
			maxResid = r
		}
	}
	return coeffs, maxResid, nil
}

// Eval evaluates a Chebyshev coefficient set over [tStart, tEnd] at time t.
// When wantDeriv is true the second return value is the first derivative
// with respect to t (per time unit, not per unit of the scaled variable);
// otherwise it is zero.
func Eval(coeffs []float64, tStart, tEnd, t float64, wantDeriv bool) (float64, float64) {
	if len(coeffs) == 0 {
		return 0, 0
	}
	x := scale(t, tStart, tEnd)

	// Direct recurrence over T_j and T'_j. The series are short (<= 14
	// terms) so Clenshaw buys nothing here, and carrying the derivative
	// recurrence alongside keeps value and rate consistent.
	val := coeffs[0]
	deriv := 0.0
	tPrev, tCur := 1.0, x
	dPrev, dCur := 0.0, 1.0
	for j := 1; j < len(coeffs); j++ {
		if j > 1 {
			tPrev, tCur = tCur, 2*x*tCur-tPrev
			dPrev, dCur = dCur, 2*tPrev+2*x*dCur-dPrev
		}
		val += coeffs[j] * tCur
		if wantDeriv {
			deriv += coeffs[j] * dCur
		}
	}
	if wantDeriv {
		// d/dt = d/dx * dx/dt.
		deriv *= 2.0 / (tEnd - tStart)
	}
	return val, deriv
}

// scale maps t in [tStart, tEnd] onto the canonical interval [-1, 1].
func scale(t, tStart, tEnd float64) float64 {
	return (2*t - tStart - tEnd) / (tEnd - tStart)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
