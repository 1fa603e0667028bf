package astro

import (
	"math"
	"testing"
)

func TestWrap360(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{361.25, 1.25},
		{-0.5, 359.5},
		{-720, 0},
	}
	for _, c := range cases {
		if got := Wrap360(c.in); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("Wrap360(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestAngularSeparation(t *testing.T) {
	// One degree apart along the equator.
	if got := AngularSeparation(10, 0, 11, 0); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("equatorial separation = %v, want 1.0", got)
	}
	// One degree of RA at dec=60 is half a degree on the sky.
	got := AngularSeparation(10, 60, 11, 60)
	if math.Abs(got-0.5) > 1e-3 {
		t.Errorf("separation at dec=60 = %v, want ~0.5", got)
	}
	// Across the wrap boundary: 359.5 and 0.5 are one degree apart.
	if got := AngularSeparation(359.5, 0, 0.5, 0); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("wrap separation = %v, want 1.0", got)
	}
	// Identical points.
	if got := AngularSeparation(123.4, -45.6, 123.4, -45.6); got != 0 {
		t.Errorf("zero separation = %v, want 0", got)
	}
}

func TestSeparationMas(t *testing.T) {
	got := SeparationMas(180, 0, 180+1.0/3600.0, 0) // one arcsecond
	if math.Abs(got-1000.0) > 1e-3 {
		t.Errorf("SeparationMas = %v, want 1000", got)
	}
}

func TestUnwrapRAStraddlingWindow(t *testing.T) {
	ra := []float64{358.0, 359.5, 0.5, 2.0}
	got := UnwrapRA(ra)
	want := []float64{-2.0, -0.5, 0.5, 2.0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("UnwrapRA[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	// Input must not be modified.
	if ra[0] != 358.0 {
		t.Errorf("UnwrapRA modified its input: %v", ra)
	}
}

func TestUnwrapRANonStraddlingWindow(t *testing.T) {
	// High values only: no low points, so nothing shifts.
	ra := []float64{271.0, 280.0, 290.0}
	got := UnwrapRA(ra)
	for i := range ra {
		if got[i] != ra[i] {
			t.Errorf("UnwrapRA shifted a non-straddling window: %v", got)
		}
	}

	// Wide but not wrap-straddling: min is above 100.
	ra = []float64{150.0, 200.0, 300.0}
	got = UnwrapRA(ra)
	for i := range ra {
		if got[i] != ra[i] {
			t.Errorf("UnwrapRA shifted a window with min>100: %v", got)
		}
	}
}

func TestUnwrapRAEmpty(t *testing.T) {
	if got := UnwrapRA(nil); len(got) != 0 {
		t.Errorf("UnwrapRA(nil) = %v, want empty", got)
	}
}
