package cheby

import (
	"math"
	"testing"
)

func sampleTimes(tStart, tEnd float64, n int) []float64 {
	times := make([]float64, n)
	step := (tEnd - tStart) / float64(n-1)
	for i := range times {
		times[i] = tStart + float64(i)*step
	}
	return times
}

func TestFitReproducesCubic(t *testing.T) {
	f := func(x float64) float64 { return 2 - 3*x + 0.5*x*x*x }
	tStart, tEnd := 100.0, 102.0
	times := sampleTimes(tStart, tEnd, 65)
	values := make([]float64, len(times))
	for i, x := range times {
		values[i] = f(x)
	}

	coeffs, maxResid, err := Fit(times, values, tStart, tEnd, 4)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if maxResid > 1e-9 {
		t.Errorf("cubic fit residual = %g, want ~0", maxResid)
	}
	for _, q := range []float64{100.0, 100.37, 101.5, 102.0} {
		got, _ := Eval(coeffs, tStart, tEnd, q, false)
		if math.Abs(got-f(q)) > 1e-9 {
			t.Errorf("Eval(%v) = %v, want %v", q, got, f(q))
		}
	}
}

func TestFitSinusoidRoundTrip(t *testing.T) {
	// A slow sinusoid over a two-day window, like a well-behaved RA track.
	f := func(x float64) float64 { return 15.0 + 0.4*math.Sin(2*math.Pi*(x-59000)/30.0) }
	tStart, tEnd := 59000.0, 59002.0
	times := sampleTimes(tStart, tEnd, 65)
	values := make([]float64, len(times))
	for i, x := range times {
		values[i] = f(x)
	}

	coeffs, maxResid, err := Fit(times, values, tStart, tEnd, 14)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if maxResid > 1e-12 {
		t.Errorf("sinusoid fit residual = %g, want < 1e-12", maxResid)
	}
	// Round trip: the fitted polynomial reproduces the original samples.
	for i, x := range times {
		got, _ := Eval(coeffs, tStart, tEnd, x, false)
		if math.Abs(got-values[i]) > 1e-12 {
			t.Errorf("round trip at %v: got %v, want %v", x, got, values[i])
		}
	}
}

func TestEvalDerivative(t *testing.T) {
	// f(x) = x^2 over [0, 4]: derivative is 2x everywhere in the interval.
	f := func(x float64) float64 { return x * x }
	times := sampleTimes(0, 4, 33)
	values := make([]float64, len(times))
	for i, x := range times {
		values[i] = f(x)
	}
	coeffs, _, err := Fit(times, values, 0, 4, 3)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for _, q := range []float64{0, 0.5, 1.3, 2.0, 4.0} {
		val, deriv := Eval(coeffs, 0, 4, q, true)
		if math.Abs(val-f(q)) > 1e-9 {
			t.Errorf("Eval(%v) value = %v, want %v", q, val, f(q))
		}
		if math.Abs(deriv-2*q) > 1e-9 {
			t.Errorf("Eval(%v) derivative = %v, want %v", q, deriv, 2*q)
		}
	}
}

func TestEvalDerivativeOfSine(t *testing.T) {
	omega := 2 * math.Pi / 10.0
	f := func(x float64) float64 { return math.Sin(omega * x) }
	times := sampleTimes(0, 2, 65)
	values := make([]float64, len(times))
	for i, x := range times {
		values[i] = f(x)
	}
	coeffs, _, err := Fit(times, values, 0, 2, 14)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for _, q := range []float64{0.1, 0.9, 1.7} {
		_, deriv := Eval(coeffs, 0, 2, q, true)
		want := omega * math.Cos(omega*q)
		if math.Abs(deriv-want) > 1e-8 {
			t.Errorf("derivative at %v = %v, want %v", q, deriv, want)
		}
	}
}

func TestFitDeterministic(t *testing.T) {
	times := sampleTimes(0, 1, 65)
	values := make([]float64, len(times))
	for i, x := range times {
		values[i] = math.Exp(x)
	}
	a, ra, err := Fit(times, values, 0, 1, 8)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	b, rb, err := Fit(times, values, 0, 1, 8)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if ra != rb {
		t.Errorf("residuals differ across identical fits: %v vs %v", ra, rb)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("coefficient %d differs across identical fits: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestFitInputValidation(t *testing.T) {
	times := sampleTimes(0, 1, 8)
	values := make([]float64, 8)

	if _, _, err := Fit(times, values[:4], 0, 1, 3); err == nil {
		t.Error("expected error for mismatched sample lengths")
	}
	if _, _, err := Fit(times, values, 0, 1, 0); err == nil {
		t.Error("expected error for nCoeff=0")
	}
	if _, _, err := Fit(times, values, 0, 1, 9); err == nil {
		t.Error("expected error for nCoeff > sample count")
	}
	if _, _, err := Fit(times, values, 1, 1, 3); err == nil {
		t.Error("expected error for empty interval")
	}
}

func TestEvalEmptyCoeffs(t *testing.T) {
	val, deriv := Eval(nil, 0, 1, 0.5, true)
	if val != 0 || deriv != 0 {
		t.Errorf("Eval(nil) = %v, %v, want 0, 0", val, deriv)
	}
}
