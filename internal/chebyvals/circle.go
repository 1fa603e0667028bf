package chebyvals

import (
	"github.com/arclight-data/chebysky/internal/astro"
)

// coarseMarginDeg bounds how far an object can sit from its segment's mean
// position. Window lengths are chosen so an object crosses at most a few
// degrees of sky per segment, so a 5 degree margin keeps the coarse pass
// conservative without evaluating every object.
const coarseMarginDeg = 5.0

// FindObjectsInCircle returns the ephemerides of every object within
// radiusDeg of (raCen, decCen) at MJD mjd. A two-pass filter: the cached
// segment mean positions reject objects well outside the circle, then the
// survivors are evaluated exactly and tested against the true angular
// separation. Objects whose fit horizon does not cover mjd are skipped.
func (e *Evaluator) FindObjectsInCircle(mjd, raCen, decCen, radiusDeg float64) ([]Ephemeris, error) {
	var hits []Ephemeris
	for _, id := range e.table.ObjectIDs() {
		seg, err := e.table.segmentAt(id, mjd)
		if err != nil {
			if isOutOfRange(err) {
				continue
			}
			return nil, err
		}

		// Coarse pass on the cached degree-0 coefficients.
		coarse := astro.AngularSeparation(seg.MeanRA, seg.MeanDec, raCen, decCen)
		if coarse > radiusDeg+coarseMarginDeg {
			continue
		}

		eph := evalSegment(seg, mjd)
		if astro.AngularSeparation(eph.RA, eph.Dec, raCen, decCen) <= radiusDeg {
			hits = append(hits, eph)
		}
	}
	return hits, nil
}
