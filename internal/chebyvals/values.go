package chebyvals

import (
	"errors"
	"math"

	"github.com/arclight-data/chebysky/internal/astro"
	"github.com/arclight-data/chebysky/internal/cheby"
)

func isOutOfRange(err error) bool { return errors.Is(err, ErrOutOfRange) }

// Ephemeris is a reconstructed ephemeris record: values for every tracked
// quantity plus on-sky rates for the position axes. Rates are degrees/day;
// DRADt is the true angular rate (the coordinate rate scaled by cos dec).
type Ephemeris struct {
	ObjectID string  `json:"object_id"`
	MJD      float64 `json:"mjd"`

	RA     float64 `json:"ra"`      // degrees, [0, 360)
	DRADt  float64 `json:"dradt"`   // degrees/day, on-sky
	Dec    float64 `json:"dec"`     // degrees
	DDecDt float64 `json:"ddecdt"`  // degrees/day

	Delta      float64 `json:"delta"`      // AU
	VMag       float64 `json:"vmag"`
	Elongation float64 `json:"elongation"` // degrees
}

// Evaluator reconstructs ephemerides from a frozen coefficient table.
// It is read-only and safe for concurrent use.
type Evaluator struct {
	table *Table
}

// NewEvaluator wraps a coefficient table for evaluation.
func NewEvaluator(table *Table) *Evaluator {
	return &Evaluator{table: table}
}

// Table exposes the underlying coefficient table (read-only use).
func (e *Evaluator) Table() *Table {
	return e.table
}

// Evaluate reconstructs the ephemeris for objectID at MJD mjd from the
// covering segment. Returns ErrUnknownObject or ErrOutOfRange (wrapped)
// when no segment applies.
func (e *Evaluator) Evaluate(objectID string, mjd float64) (Ephemeris, error) {
	seg, err := e.table.segmentAt(objectID, mjd)
	if err != nil {
		return Ephemeris{}, err
	}
	return evalSegment(seg, mjd), nil
}

// evalSegment evaluates every quantity of a segment at mjd. The RA
// coefficients are in the unwrapped fitting frame, so the value is wrapped
// back onto [0, 360) after evaluation. The RA coordinate rate is converted
// to a true on-sky rate by the cos(dec) projection; without it the rate is
// inflated near the poles.
func evalSegment(seg Segment, mjd float64) Ephemeris {
	ra, dRA := cheby.Eval(seg.Coeffs[QuantityRA], seg.TStart, seg.TEnd, mjd, true)
	dec, dDec := cheby.Eval(seg.Coeffs[QuantityDec], seg.TStart, seg.TEnd, mjd, true)
	delta, _ := cheby.Eval(seg.Coeffs[QuantityDelta], seg.TStart, seg.TEnd, mjd, false)
	vmag, _ := cheby.Eval(seg.Coeffs[QuantityVMag], seg.TStart, seg.TEnd, mjd, false)
	elong, _ := cheby.Eval(seg.Coeffs[QuantityElongation], seg.TStart, seg.TEnd, mjd, false)

	return Ephemeris{
		ObjectID:   seg.ObjectID,
		MJD:        mjd,
		RA:         astro.Wrap360(ra),
		DRADt:      dRA * math.Cos(astro.DegToRad(dec)),
		Dec:        dec,
		DDecDt:     dDec,
		Delta:      delta,
		VMag:       vmag,
		Elongation: elong,
	}
}

// EvaluateAll reconstructs ephemerides for the given object ids at mjd. A
// nil or empty id list means every object in the table. Results are
// returned in request order for ids whose fit horizon covers mjd; ids whose
// horizon does not cover mjd are reported in missing (a partial match the
// caller decides about). An id with no segments at all is ErrUnknownObject.
func (e *Evaluator) EvaluateAll(mjd float64, objectIDs []string) ([]Ephemeris, []string, error) {
	if len(objectIDs) == 0 {
		objectIDs = e.table.ObjectIDs()
	}

	results := make([]Ephemeris, 0, len(objectIDs))
	var missing []string
	for _, id := range objectIDs {
		eph, err := e.Evaluate(id, mjd)
		switch {
		case err == nil:
			results = append(results, eph)
		case isOutOfRange(err):
			missing = append(missing, id)
		default:
			return nil, nil, err
		}
	}
	return results, missing, nil
}
