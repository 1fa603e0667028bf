package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/arclight-data/chebysky/internal/astro"
)

// Orbit is the analytic motion model for one synthetic object: a linear
// sky drift plus slow periodic terms in declination, distance and
// elongation. It is not a dynamical model — it exists to give the fitter a
// smooth, wrap-correct signal with a controllable angular speed.
type Orbit struct {
	ObjectID string  `json:"object_id"`
	Epoch    float64 `json:"epoch"` // MJD reference for all phases

	RA0    float64 `json:"ra0"`     // degrees at epoch
	RARate float64 `json:"ra_rate"` // degrees/day coordinate drift

	Dec0      float64 `json:"dec0"`       // degrees at epoch
	DecAmp    float64 `json:"dec_amp"`    // degrees
	DecPeriod float64 `json:"dec_period"` // days

	Delta0      float64 `json:"delta0"`       // AU at epoch
	DeltaAmp    float64 `json:"delta_amp"`    // AU
	DeltaPeriod float64 `json:"delta_period"` // days

	H float64 `json:"h"` // magnitude baseline

	Elong0      float64 `json:"elong0"`       // degrees
	ElongAmp    float64 `json:"elong_amp"`    // degrees
	ElongPeriod float64 `json:"elong_period"` // days
}

// At returns the ground-truth record for the orbit at MJD t.
func (o Orbit) At(t float64) Record {
	dt := t - o.Epoch

	ra := astro.Wrap360(o.RA0 + o.RARate*dt)
	dec := o.Dec0
	if o.DecPeriod > 0 {
		dec += o.DecAmp * math.Sin(2*math.Pi*dt/o.DecPeriod)
	}
	if dec > 90 {
		dec = 90
	} else if dec < -90 {
		dec = -90
	}

	delta := o.Delta0
	if o.DeltaPeriod > 0 {
		delta += o.DeltaAmp * math.Cos(2*math.Pi*dt/o.DeltaPeriod)
	}
	if delta < 0.05 {
		delta = 0.05
	}

	vmag := o.H + 5*math.Log10(delta)

	elong := o.Elong0
	if o.ElongPeriod > 0 {
		elong += o.ElongAmp * math.Sin(2*math.Pi*dt/o.ElongPeriod)
	}

	return Record{
		MJD:        t,
		RA:         ra,
		Dec:        dec,
		Delta:      delta,
		VMag:       vmag,
		Elongation: elong,
	}
}

// SyntheticOracle serves analytic ephemerides for a fixed object set.
type SyntheticOracle struct {
	observer ObserverConfig
	orbits   map[string]Orbit
}

// NewSyntheticOracle builds an oracle over the given orbits. Duplicate
// object ids are an error.
func NewSyntheticOracle(observer ObserverConfig, orbits []Orbit) (*SyntheticOracle, error) {
	m := make(map[string]Orbit, len(orbits))
	for _, o := range orbits {
		if o.ObjectID == "" {
			return nil, fmt.Errorf("ephem: orbit with empty object_id")
		}
		if _, ok := m[o.ObjectID]; ok {
			return nil, fmt.Errorf("ephem: duplicate object_id %q", o.ObjectID)
		}
		m[o.ObjectID] = o
	}
	return &SyntheticOracle{observer: observer, orbits: m}, nil
}

// ObjectIDs returns the ids served by this oracle, in unspecified order.
func (s *SyntheticOracle) ObjectIDs() []string {
	ids := make([]string, 0, len(s.orbits))
	for id := range s.orbits {
		ids = append(ids, id)
	}
	return ids
}

// Generate implements Oracle. The whole time array for every object is
// produced in one call so callers can batch a full fit window.
func (s *SyntheticOracle) Generate(ctx context.Context, objectIDs []string, times []float64) (map[string][]Record, error) {
	out := make(map[string][]Record, len(objectIDs))
	for _, id := range objectIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		orbit, ok := s.orbits[id]
		if !ok {
			return nil, fmt.Errorf("ephem: unknown object_id %q", id)
		}
		recs := make([]Record, len(times))
		for i, t := range times {
			recs[i] = orbit.At(t)
		}
		out[id] = recs
	}
	return out, nil
}

// LoadOrbits reads a JSON orbit definition file: an array of Orbit records.
func LoadOrbits(path string) ([]Orbit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ephem: read orbits file: %w", err)
	}
	var orbits []Orbit
	if err := json.Unmarshal(data, &orbits); err != nil {
		return nil, fmt.Errorf("ephem: parse orbits file %s: %w", path, err)
	}
	if len(orbits) == 0 {
		return nil, fmt.Errorf("ephem: orbits file %s contains no objects", path)
	}
	return orbits, nil
}

// DemoPopulation returns a small mixed-speed object set handy for local
// runs: a main-belt-like slow mover, a faster near-Earth-like object, a
// wrap-straddling track and a high-declination track.
func DemoPopulation(epoch float64) []Orbit {
	return []Orbit{
		{
			ObjectID: "mba-001", Epoch: epoch,
			RA0: 185.0, RARate: 0.25,
			Dec0: -12.0, DecAmp: 1.5, DecPeriod: 365.0,
			Delta0: 2.4, DeltaAmp: 0.3, DeltaPeriod: 400.0,
			H: 16.2, Elong0: 150.0, ElongAmp: 20.0, ElongPeriod: 365.0,
		},
		{
			ObjectID: "neo-042", Epoch: epoch,
			RA0: 10.0, RARate: 4.8,
			Dec0: 5.0, DecAmp: 8.0, DecPeriod: 60.0,
			Delta0: 0.35, DeltaAmp: 0.1, DeltaPeriod: 90.0,
			H: 21.5, Elong0: 120.0, ElongAmp: 35.0, ElongPeriod: 120.0,
		},
		{
			ObjectID: "wrap-007", Epoch: epoch,
			RA0: 358.5, RARate: 0.6,
			Dec0: 2.0, DecAmp: 1.0, DecPeriod: 200.0,
			Delta0: 1.8, DeltaAmp: 0.2, DeltaPeriod: 300.0,
			H: 18.0, Elong0: 140.0, ElongAmp: 25.0, ElongPeriod: 365.0,
		},
		{
			ObjectID: "polar-113", Epoch: epoch,
			RA0: 75.0, RARate: 0.4,
			Dec0: -80.0, DecAmp: 2.0, DecPeriod: 365.0,
			Delta0: 3.1, DeltaAmp: 0.25, DeltaPeriod: 500.0,
			H: 17.1, Elong0: 110.0, ElongAmp: 15.0, ElongPeriod: 365.0,
		},
	}
}
