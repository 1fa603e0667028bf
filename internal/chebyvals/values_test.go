package chebyvals

import (
	"errors"
	"math"
	"testing"
)

func TestEvaluateConstQuantities(t *testing.T) {
	table := NewTable()
	if err := table.Append(constSegment("obj-1", 0, 2, 100, 10)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	eval := NewEvaluator(table)

	eph, err := eval.Evaluate("obj-1", 1.0) // window centre: scaled x = 0
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eph.ObjectID != "obj-1" || eph.MJD != 1.0 {
		t.Errorf("identity fields wrong: %+v", eph)
	}
	// RA coeffs are {100, 0.5}: value 100 at x=0.
	if math.Abs(eph.RA-100) > 1e-12 {
		t.Errorf("RA = %v, want 100", eph.RA)
	}
	if math.Abs(eph.Dec-10) > 1e-12 {
		t.Errorf("Dec = %v, want 10", eph.Dec)
	}
	if eph.Delta != 1.5 || eph.VMag != 18.0 || eph.Elongation != 120.0 {
		t.Errorf("aux quantities wrong: %+v", eph)
	}
	// Constant dec: DDecDt is zero.
	if eph.DDecDt != 0 {
		t.Errorf("DDecDt = %v, want 0", eph.DDecDt)
	}
}

func TestEvaluateAppliesCosDecToRARate(t *testing.T) {
	table := NewTable()
	seg := constSegment("polar", 0, 2, 100, 60)
	if err := table.Append(seg); err != nil {
		t.Fatalf("Append: %v", err)
	}
	eval := NewEvaluator(table)

	eph, err := eval.Evaluate("polar", 1.0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// RA coefficient c1 = 0.5 over a 2-day window: coordinate rate is
	// c1 * 2/(tEnd-tStart) = 0.5 deg/day. At dec 60 the on-sky rate is
	// half that.
	coordRate := 0.5
	want := coordRate * math.Cos(60*math.Pi/180)
	if math.Abs(eph.DRADt-want) > 1e-12 {
		t.Errorf("DRADt = %v, want %v (cos dec applied)", eph.DRADt, want)
	}
}

func TestEvaluateWrapsRA(t *testing.T) {
	table := NewTable()
	// Unwrapped fitting frame: RA ramps from -2 to +2 across the window.
	seg := Segment{
		ObjectID: "wrapper",
		TStart:   0,
		TEnd:     2,
		Coeffs: map[Quantity][]float64{
			QuantityRA:         {0, 2},
			QuantityDec:        {0},
			QuantityDelta:      {1},
			QuantityVMag:       {18},
			QuantityElongation: {100},
		},
		MeanRA:  0,
		MeanDec: 0,
	}
	if err := table.Append(seg); err != nil {
		t.Fatalf("Append: %v", err)
	}
	eval := NewEvaluator(table)

	eph, err := eval.Evaluate("wrapper", 0) // x = -1: raw RA = -2
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(eph.RA-358) > 1e-12 {
		t.Errorf("RA = %v, want 358 (wrapped)", eph.RA)
	}
}

func TestEvaluateRangeErrors(t *testing.T) {
	table := NewTable()
	if err := table.Append(constSegment("obj-1", 10, 12, 100, 10)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	eval := NewEvaluator(table)

	if _, err := eval.Evaluate("obj-1", 10); err != nil {
		t.Errorf("Evaluate at tStart: %v", err)
	}
	if _, err := eval.Evaluate("obj-1", 12); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Evaluate at tEnd: expected ErrOutOfRange, got %v", err)
	}
	if _, err := eval.Evaluate("ghost", 11); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("Evaluate unknown id: expected ErrUnknownObject, got %v", err)
	}
}

func TestEvaluateAll(t *testing.T) {
	table := NewTable()
	if err := table.Append(constSegment("a", 0, 2, 100, 10)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := table.Append(constSegment("b", 0, 4, 200, -10)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	eval := NewEvaluator(table)

	// Both covered at t=1.
	results, missing, err := eval.EvaluateAll(1.0, []string{"a", "b"})
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if len(results) != 2 || len(missing) != 0 {
		t.Errorf("EvaluateAll(1) = %d results, %v missing", len(results), missing)
	}
	if results[0].ObjectID != "a" || results[1].ObjectID != "b" {
		t.Errorf("results out of request order: %+v", results)
	}

	// At t=3 object a's horizon has ended: partial match, not fatal.
	results, missing, err = eval.EvaluateAll(3.0, []string{"a", "b"})
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if len(results) != 1 || results[0].ObjectID != "b" {
		t.Errorf("EvaluateAll(3) results = %+v", results)
	}
	if len(missing) != 1 || missing[0] != "a" {
		t.Errorf("EvaluateAll(3) missing = %v, want [a]", missing)
	}

	// Unknown ids are a consistency failure, not an empty record.
	if _, _, err := eval.EvaluateAll(1.0, []string{"a", "ghost"}); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("expected ErrUnknownObject, got %v", err)
	}

	// Empty id list means all objects.
	results, _, err = eval.EvaluateAll(1.0, nil)
	if err != nil {
		t.Fatalf("EvaluateAll(nil): %v", err)
	}
	if len(results) != 2 {
		t.Errorf("EvaluateAll(nil) = %d results, want 2", len(results))
	}
}

func TestFindObjectsInCircle(t *testing.T) {
	table := NewTable()
	if err := table.Append(constSegment("near", 0, 2, 100, 10)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := table.Append(constSegment("far", 0, 2, 250, -40)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := table.Append(constSegment("expired", 5, 6, 100, 10)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	eval := NewEvaluator(table)
	hits, err := eval.FindObjectsInCircle(1.0, 100.5, 10.0, 2.0)
	if err != nil {
		t.Fatalf("FindObjectsInCircle: %v", err)
	}
	if len(hits) != 1 || hits[0].ObjectID != "near" {
		t.Errorf("hits = %+v, want only near", hits)
	}

	// Nothing within a tiny radius away from any object.
	hits, err = eval.FindObjectsInCircle(1.0, 0.0, -80.0, 0.5)
	if err != nil {
		t.Fatalf("FindObjectsInCircle: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %+v", hits)
	}
}
