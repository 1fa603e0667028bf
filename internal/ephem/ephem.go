// Package ephem defines the ephemeris oracle boundary: the ground-truth
// generator that supplies sky position, distance, brightness and solar
// elongation for a set of objects at arbitrary times. The fitting pipeline
// only ever talks to the Oracle interface; the packaged implementation is a
// deterministic analytic generator used for fitting runs without an
// external orbit integrator and for tests.
package ephem

import (
	"context"
	"fmt"
)

// Record is one ground-truth sample for one object at one time.
// Times are MJD days (TAI); angles are degrees; Delta is AU.
type Record struct {
	MJD        float64 `json:"mjd"`
	RA         float64 `json:"ra"`         // degrees, [0, 360)
	Dec        float64 `json:"dec"`        // degrees, [-90, 90]
	Delta      float64 `json:"delta"`      // observer distance, AU
	VMag       float64 `json:"vmag"`       // apparent visual magnitude
	Elongation float64 `json:"elongation"` // solar elongation, degrees
}

// Oracle generates ground-truth ephemerides for a set of objects over an
// arbitrary (possibly irregular) time array. Implementations must return
// one Record per requested time, in request order, for every requested
// object id.
type Oracle interface {
	// Generate returns per-object sample series for the given MJD times.
	// Unknown object ids are an error.
	Generate(ctx context.Context, objectIDs []string, times []float64) (map[string][]Record, error)
}

// ObserverConfig carries the observing-site parameters handed to an oracle
// implementation. The defaults match the conventional survey setup: MPC
// observatory code 807 with TAI timestamps, which avoids leap-second
// discontinuities in the fitted signal.
type ObserverConfig struct {
	ObsCode   int    `json:"obscode"`
	TimeScale string `json:"timescale"`
}

// DefaultObserver returns the conventional observer configuration.
func DefaultObserver() ObserverConfig {
	return ObserverConfig{ObsCode: 807, TimeScale: "TAI"}
}

func (o ObserverConfig) String() string {
	return fmt.Sprintf("obscode=%d timescale=%s", o.ObsCode, o.TimeScale)
}
