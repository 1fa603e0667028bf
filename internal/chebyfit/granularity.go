// Package chebyfit drives the adaptive Chebyshev fitting pipeline: it picks
// a sampling granularity per object from its angular speed, fits every
// tracked quantity window by window against the ephemeris oracle, and
// shrinks the granularity until the positional residual meets tolerance.
package chebyfit

import "math"

// NGran is the fixed number of sample intervals per fit window; every
// window is sampled at NGran+1 oracle points regardless of speed regime, so
// Length is always NGran * Timestep.
const NGran = 64

// Granularity is the per-object sampling state threaded through the
// refinement loop: the oracle sampling cadence and the candidate window
// length, both in days. It is passed and returned by value so the loop
// stays pure and safe to run per object in parallel.
type Granularity struct {
	Timestep float64 // days between oracle samples
	Length   float64 // candidate window length, days
	Attempts int     // refinements applied to the current window
}

// InitialGranularity maps an object's angular speed (degrees/day) to a
// starting granularity. Each speed band halves the timestep of the one
// before it, so slow main-belt-like objects get two-day windows sampled
// every 1/32 day while the fastest movers drop to 1/8192 day.
func InitialGranularity(speedDegPerDay float64) Granularity {
	var timestep float64
	switch {
	case speedDegPerDay < 0.8:
		timestep = 1.0 / 32
	case speedDegPerDay < 1.6:
		timestep = 1.0 / 64
	case speedDegPerDay < 3.2:
		timestep = 1.0 / 128
	case speedDegPerDay < 6.4:
		timestep = 1.0 / 256
	case speedDegPerDay < 12.8:
		timestep = 1.0 / 512
	case speedDegPerDay < 25.6:
		timestep = 1.0 / 1024
	case speedDegPerDay < 51.2:
		timestep = 1.0 / 2048
	case speedDegPerDay < 102.4:
		timestep = 1.0 / 4096
	default: // fastest it can go
		timestep = 1.0 / 8192
	}
	return Granularity{Timestep: timestep, Length: NGran * timestep}
}

// Refine shrinks the granularity after a rejected fit. The shrink factor is
// a step function of the positional residual (mas), and both timestep and
// length are halved once more when the object sits poleward of |dec| = 75
// degrees, where coordinate distortion inflates RA residuals. Refine never
// increases granularity; the caller bounds the number of attempts.
func (g Granularity) Refine(residMas, decDeg float64) Granularity {
	factor := 1.0
	switch {
	case residMas > 1000:
		factor = 16
	case residMas > 100:
		factor = 8
	case residMas > 15:
		factor = 6
	case residMas > 5:
		factor = 4
	case residMas > 2:
		factor = 2
	}
	g.Timestep /= factor
	g.Length /= factor
	if math.Abs(decDeg) > 75 {
		g.Timestep /= 2
		g.Length /= 2
	}
	g.Attempts++
	return g
}
