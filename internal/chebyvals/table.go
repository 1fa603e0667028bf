// Package chebyvals holds the coefficient table produced by the segment
// fitter and the evaluator that reconstructs ephemerides from it: per-object
// time-partitioned Chebyshev segments, right-open interval lookup, and
// value/rate evaluation with the spherical RA-rate correction.
package chebyvals

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Quantity names one tracked ephemeris quantity. Each quantity is fitted
// independently but all share the same time partition per object.
type Quantity string

const (
	QuantityRA         Quantity = "ra"
	QuantityDec        Quantity = "dec"
	QuantityDelta      Quantity = "delta"
	QuantityVMag       Quantity = "vmag"
	QuantityElongation Quantity = "elongation"
)

// Quantities is the fixed tracked set, in storage column order.
var Quantities = []Quantity{
	QuantityRA,
	QuantityDec,
	QuantityDelta,
	QuantityVMag,
	QuantityElongation,
}

// Sentinel errors for the evaluation and storage contracts.
var (
	// ErrOutOfRange: a query time falls outside every stored segment.
	ErrOutOfRange = errors.New("time out of fitted range")
	// ErrUnknownObject: a requested object id has no segments at all.
	ErrUnknownObject = errors.New("unknown object id")
	// ErrNotContiguous: an appended segment does not start exactly at the
	// previous segment's end. This is a programming-error-class failure.
	ErrNotContiguous = errors.New("segment not contiguous with previous")
)

// Segment is one accepted fit window for one object: Chebyshev coefficients
// per quantity over the half-open interval [TStart, TEnd). The degree-0 RA
// and Dec coefficients are cached (wrapped to sky coordinates) for coarse
// spatial filtering.
type Segment struct {
	ObjectID string                 `json:"object_id"`
	TStart   float64                `json:"t_start"` // MJD, inclusive
	TEnd     float64                `json:"t_end"`   // MJD, exclusive
	Coeffs   map[Quantity][]float64 `json:"coeffs"`

	MeanRA  float64 `json:"mean_ra"`  // degrees, [0, 360)
	MeanDec float64 `json:"mean_dec"` // degrees

	MaxResidMas float64 `json:"max_resid_mas"` // accepted positional residual
}

// Validate checks the structural invariants of a single segment.
func (s Segment) Validate() error {
	if s.ObjectID == "" {
		return fmt.Errorf("segment with empty object id")
	}
	if s.TEnd <= s.TStart {
		return fmt.Errorf("segment for %s has bad interval [%v, %v)", s.ObjectID, s.TStart, s.TEnd)
	}
	for _, q := range Quantities {
		if len(s.Coeffs[q]) == 0 {
			return fmt.Errorf("segment for %s missing %s coefficients", s.ObjectID, q)
		}
	}
	return nil
}

// Table is the full coefficient table: per-object, time-ordered segments.
// Appends are safe under concurrent use by workers fitting different
// objects; reads are safe at any time.
type Table struct {
	mu       sync.RWMutex
	segments map[string][]Segment
}

// NewTable returns an empty coefficient table.
func NewTable() *Table {
	return &Table{segments: make(map[string][]Segment)}
}

// Append adds an accepted segment. For an object that already has segments,
// the new segment must start exactly at the previous segment's end: the
// fitter always passes the prior TEnd through verbatim, so any mismatch is
// a gap or overlap bug, reported as ErrNotContiguous.
func (t *Table) Append(seg Segment) error {
	if err := seg.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	segs := t.segments[seg.ObjectID]
	if n := len(segs); n > 0 {
		if prev := segs[n-1]; seg.TStart != prev.TEnd {
			return fmt.Errorf("%w: object %s has t_end %v, appended t_start %v",
				ErrNotContiguous, seg.ObjectID, prev.TEnd, seg.TStart)
		}
	}
	t.segments[seg.ObjectID] = append(segs, seg)
	return nil
}

// SegmentsFor returns the time-ordered segments for one object.
func (t *Table) SegmentsFor(objectID string) ([]Segment, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	segs, ok := t.segments[objectID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, objectID)
	}
	out := make([]Segment, len(segs))
	copy(out, segs)
	return out, nil
}

// ObjectIDs returns all object ids in the table, sorted.
func (t *Table) ObjectIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.segments))
	for id := range t.segments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NumSegments returns the total segment count across all objects.
func (t *Table) NumSegments() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, segs := range t.segments {
		n += len(segs)
	}
	return n
}

// segmentAt locates the single segment covering time mjd for objectID under
// the right-open convention. Returns ErrUnknownObject for an id with no
// segments and ErrOutOfRange for a time no segment covers (including the
// final segment's TEnd itself).
func (t *Table) segmentAt(objectID string, mjd float64) (Segment, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	segs, ok := t.segments[objectID]
	if !ok {
		return Segment{}, fmt.Errorf("%w: %s", ErrUnknownObject, objectID)
	}
	// First segment with TEnd > mjd; intervals are contiguous and sorted.
	i := sort.Search(len(segs), func(i int) bool { return segs[i].TEnd > mjd })
	if i == len(segs) || mjd < segs[i].TStart {
		return Segment{}, fmt.Errorf("%w: object %s at mjd %v (fitted [%v, %v))",
			ErrOutOfRange, objectID, mjd, segs[0].TStart, segs[len(segs)-1].TEnd)
	}
	return segs[i], nil
}
