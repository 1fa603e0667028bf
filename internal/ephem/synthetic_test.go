package ephem

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestSyntheticOracleGenerate(t *testing.T) {
	orbits := DemoPopulation(59000.0)
	oracle, err := NewSyntheticOracle(DefaultObserver(), orbits)
	if err != nil {
		t.Fatalf("NewSyntheticOracle: %v", err)
	}

	times := []float64{59000.0, 59000.5, 59001.0}
	out, err := oracle.Generate(context.Background(), []string{"mba-001", "wrap-007"}, times)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(out))
	}
	for id, recs := range out {
		if len(recs) != len(times) {
			t.Fatalf("%s: expected %d records, got %d", id, len(times), len(recs))
		}
		for i, r := range recs {
			if r.MJD != times[i] {
				t.Errorf("%s[%d]: MJD = %v, want %v", id, i, r.MJD, times[i])
			}
			if r.RA < 0 || r.RA >= 360 {
				t.Errorf("%s[%d]: RA %v out of [0,360)", id, i, r.RA)
			}
			if r.Dec < -90 || r.Dec > 90 {
				t.Errorf("%s[%d]: Dec %v out of range", id, i, r.Dec)
			}
			if r.Delta <= 0 {
				t.Errorf("%s[%d]: non-positive delta %v", id, i, r.Delta)
			}
		}
	}
}

func TestSyntheticOracleUnknownObject(t *testing.T) {
	oracle, err := NewSyntheticOracle(DefaultObserver(), DemoPopulation(59000.0))
	if err != nil {
		t.Fatalf("NewSyntheticOracle: %v", err)
	}
	if _, err := oracle.Generate(context.Background(), []string{"nope"}, []float64{59000.0}); err == nil {
		t.Error("expected error for unknown object id")
	}
}

func TestSyntheticOracleDuplicateID(t *testing.T) {
	orbits := []Orbit{
		{ObjectID: "a", Epoch: 59000, Delta0: 1},
		{ObjectID: "a", Epoch: 59000, Delta0: 1},
	}
	if _, err := NewSyntheticOracle(DefaultObserver(), orbits); err == nil {
		t.Error("expected error for duplicate object ids")
	}
}

func TestOrbitWrapsRA(t *testing.T) {
	o := Orbit{ObjectID: "w", Epoch: 59000, RA0: 359.5, RARate: 1.0, Delta0: 1.0}
	r := o.At(59001.0)
	if math.Abs(r.RA-0.5) > 1e-9 {
		t.Errorf("RA = %v, want 0.5 after wrap", r.RA)
	}
}

func TestOrbitDeterministic(t *testing.T) {
	o := DemoPopulation(59000.0)[1]
	a := o.At(59003.25)
	b := o.At(59003.25)
	if a != b {
		t.Errorf("Orbit.At is not deterministic: %+v vs %+v", a, b)
	}
}

func TestLoadOrbits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orbits.json")
	body := `[{"object_id":"x","epoch":59000,"ra0":10,"ra_rate":0.5,"dec0":1,"delta0":2,"h":17}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	orbits, err := LoadOrbits(path)
	if err != nil {
		t.Fatalf("LoadOrbits: %v", err)
	}
	if len(orbits) != 1 || orbits[0].ObjectID != "x" {
		t.Errorf("unexpected orbits: %+v", orbits)
	}

	if _, err := LoadOrbits(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
