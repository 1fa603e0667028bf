package chebyfit

import (
	"context"
	"errors"
	"fmt"

	"github.com/arclight-data/chebysky/internal/astro"
	"github.com/arclight-data/chebysky/internal/cheby"
	"github.com/arclight-data/chebysky/internal/chebyvals"
	"github.com/arclight-data/chebysky/internal/config"
	"github.com/arclight-data/chebysky/internal/ephem"
)

// ErrNoConvergence: the refinement loop hit its iteration cap without
// bringing the fit residual under tolerance. The affected object's window
// is rejected outright rather than stored out of tolerance.
var ErrNoConvergence = errors.New("granularity refinement did not converge")

// speedProbeDt is the baseline (days) for the initial angular speed
// estimate. Short enough that even a fast mover travels well under a
// quarter of the sky between the two probe samples.
const speedProbeDt = 1.0 / 16

// Fitter turns oracle ephemerides into accepted coefficient segments.
type Fitter struct {
	oracle ephem.Oracle
	cfg    *config.TuningConfig
}

// NewFitter builds a fitter over the given oracle and tuning config.
func NewFitter(oracle ephem.Oracle, cfg *config.TuningConfig) *Fitter {
	return &Fitter{oracle: oracle, cfg: cfg}
}

// refineNeeded reports a rejected window: the worst positional residual
// and the extreme declination of the window, which drive the shrink.
type refineNeeded struct {
	residMas float64
	decDeg   float64
}

// EstimateSpeeds estimates each object's angular speed (degrees/day) at the
// start of the fit horizon from two closely spaced oracle samples. One
// batched oracle call covers all objects.
func (f *Fitter) EstimateSpeeds(ctx context.Context, objectIDs []string, mjd float64) (map[string]float64, error) {
	recs, err := f.oracle.Generate(ctx, objectIDs, []float64{mjd, mjd + speedProbeDt})
	if err != nil {
		return nil, fmt.Errorf("speed probe: %w", err)
	}
	speeds := make(map[string]float64, len(objectIDs))
	for _, id := range objectIDs {
		samples := recs[id]
		if len(samples) != 2 {
			return nil, fmt.Errorf("speed probe: oracle returned %d samples for %s, want 2", len(samples), id)
		}
		sep := astro.AngularSeparation(samples[0].RA, samples[0].Dec, samples[1].RA, samples[1].Dec)
		speeds[id] = sep / speedProbeDt
	}
	return speeds, nil
}

// FitObject fits one object across [tStart, tEnd), choosing the initial
// granularity from a speed probe. Returns the accepted segments in time
// order; their intervals tile the horizon exactly.
func (f *Fitter) FitObject(ctx context.Context, objectID string, tStart, tEnd float64) ([]chebyvals.Segment, error) {
	speeds, err := f.EstimateSpeeds(ctx, []string{objectID}, tStart)
	if err != nil {
		return nil, err
	}
	return f.FitObjectFrom(ctx, objectID, tStart, tEnd, InitialGranularity(speeds[objectID]))
}

// FitObjectFrom fits one object across [tStart, tEnd) starting from the
// given granularity. The granularity accepted for each window seeds the
// next window's first attempt; it is never reset to the speed-table value
// mid-horizon.
func (f *Fitter) FitObjectFrom(ctx context.Context, objectID string, tStart, tEnd float64, g Granularity) ([]chebyvals.Segment, error) {
	if tEnd <= tStart {
		return nil, fmt.Errorf("fit horizon [%v, %v) is empty", tStart, tEnd)
	}

	var segs []chebyvals.Segment
	cursor := tStart
	for cursor < tEnd {
		g.Attempts = 0
		for {
			// The final window is clamped so the tiled intervals end
			// exactly at the horizon.
			length := g.Length
			if cursor+length > tEnd {
				length = tEnd - cursor
			}

			seg, refine, err := f.fitWindow(ctx, objectID, cursor, length)
			if err != nil {
				return nil, err
			}
			if refine == nil {
				segs = append(segs, *seg)
				cursor = seg.TEnd
				break
			}
			if g.Attempts >= f.cfg.GetMaxRefineIterations() {
				return nil, fmt.Errorf("%w: object %s window starting %v still at %.3f mas after %d attempts",
					ErrNoConvergence, objectID, cursor, refine.residMas, g.Attempts)
			}
			g = g.Refine(refine.residMas, refine.decDeg)
		}
	}
	return segs, nil
}

// fitWindow samples the oracle across one candidate window and fits every
// tracked quantity. On success it returns the accepted segment; when any
// quantity misses its tolerance it returns the refinement request instead.
func (f *Fitter) fitWindow(ctx context.Context, objectID string, tStart, length float64) (*chebyvals.Segment, *refineNeeded, error) {
	tEnd := tStart + length
	times := make([]float64, NGran+1)
	step := length / NGran
	for i := range times {
		times[i] = tStart + float64(i)*step
	}
	times[NGran] = tEnd

	out, err := f.oracle.Generate(ctx, []string{objectID}, times)
	if err != nil {
		return nil, nil, fmt.Errorf("oracle samples for %s: %w", objectID, err)
	}
	recs := out[objectID]
	if len(recs) != len(times) {
		return nil, nil, fmt.Errorf("oracle returned %d samples for %s, want %d", len(recs), objectID, len(times))
	}

	ra := make([]float64, len(recs))
	dec := make([]float64, len(recs))
	aux := map[chebyvals.Quantity][]float64{
		chebyvals.QuantityDelta:      make([]float64, len(recs)),
		chebyvals.QuantityVMag:       make([]float64, len(recs)),
		chebyvals.QuantityElongation: make([]float64, len(recs)),
	}
	extremeDec := 0.0
	for i, r := range recs {
		ra[i] = r.RA
		dec[i] = r.Dec
		aux[chebyvals.QuantityDelta][i] = r.Delta
		aux[chebyvals.QuantityVMag][i] = r.VMag
		aux[chebyvals.QuantityElongation][i] = r.Elongation
		if abs(r.Dec) > abs(extremeDec) {
			extremeDec = r.Dec
		}
	}

	// Position axes are fitted in the unwrapped RA frame so a window
	// straddling 0/360 stays polynomial-smooth.
	raFrame := astro.UnwrapRA(ra)
	nPos := f.cfg.GetNCoeffPosition()
	raCoef, _, err := cheby.Fit(times, raFrame, tStart, tEnd, nPos)
	if err != nil {
		return nil, nil, fmt.Errorf("ra fit for %s: %w", objectID, err)
	}
	decCoef, _, err := cheby.Fit(times, dec, tStart, tEnd, nPos)
	if err != nil {
		return nil, nil, fmt.Errorf("dec fit for %s: %w", objectID, err)
	}

	// Positional residual is the true angular separation between the
	// fitted and ground-truth sky positions, not the raw coordinate
	// difference: near the poles and across the RA wrap the coordinate
	// difference wildly overstates (or understates) the sky error.
	worstMas := 0.0
	for i, t := range times {
		raHat, _ := cheby.Eval(raCoef, tStart, tEnd, t, false)
		decHat, _ := cheby.Eval(decCoef, tStart, tEnd, t, false)
		sep := astro.SeparationMas(astro.Wrap360(raHat), decHat, ra[i], dec[i])
		if sep > worstMas {
			worstMas = sep
		}
	}
	skyTol := f.cfg.GetSkyToleranceMas()
	if worstMas > skyTol {
		return nil, &refineNeeded{residMas: worstMas, decDeg: extremeDec}, nil
	}

	// Auxiliary quantities use their own (looser) tolerances. A miss is
	// mapped onto the positional residual scale so the same shrink table
	// applies: excess ratio times the sky tolerance.
	nAux := f.cfg.GetNCoeffAux()
	auxTol := map[chebyvals.Quantity]float64{
		chebyvals.QuantityDelta:      f.cfg.GetDeltaToleranceAU(),
		chebyvals.QuantityVMag:       f.cfg.GetVMagToleranceMag(),
		chebyvals.QuantityElongation: f.cfg.GetElongationToleranceDeg(),
	}
	coeffs := map[chebyvals.Quantity][]float64{
		chebyvals.QuantityRA:  raCoef,
		chebyvals.QuantityDec: decCoef,
	}
	for _, q := range []chebyvals.Quantity{chebyvals.QuantityDelta, chebyvals.QuantityVMag, chebyvals.QuantityElongation} {
		c, resid, err := cheby.Fit(times, aux[q], tStart, tEnd, nAux)
		if err != nil {
			return nil, nil, fmt.Errorf("%s fit for %s: %w", q, objectID, err)
		}
		if tol := auxTol[q]; resid > tol {
			return nil, &refineNeeded{residMas: skyTol * (resid / tol), decDeg: extremeDec}, nil
		}
		coeffs[q] = c
	}

	seg := &chebyvals.Segment{
		ObjectID:    objectID,
		TStart:      tStart,
		TEnd:        tEnd,
		Coeffs:      coeffs,
		MeanRA:      astro.Wrap360(raCoef[0]),
		MeanDec:     decCoef[0],
		MaxResidMas: worstMas,
	}
	return seg, nil, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
