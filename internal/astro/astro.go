// Package astro provides the small set of spherical-astronomy helpers used
// by the fitting and evaluation pipelines: angular separation, degree/radian
// conversion, and right-ascension wrap handling around the 0/360 boundary.
package astro

import "math"

// MasPerDeg converts degrees to milliarcseconds.
const MasPerDeg = 3600.0 * 1000.0

func DegToRad(d float64) float64 { return d * math.Pi / 180.0 }

func RadToDeg(r float64) float64 { return r * 180.0 / math.Pi }

// Wrap360 maps an angle in degrees into [0, 360).
func Wrap360(deg float64) float64 {
	w := math.Mod(deg, 360.0)
	if w < 0 {
		w += 360.0
	}
	return w
}

// AngularSeparation returns the great-circle separation in degrees between
// (ra1, dec1) and (ra2, dec2), all in degrees. Uses the haversine form,
// which stays well conditioned for the small separations produced by fit
// residuals.
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	phi1 := DegToRad(dec1)
	phi2 := DegToRad(dec2)
	dPhi := phi2 - phi1
	dLam := DegToRad(ra2 - ra1)

	sinDPhi := math.Sin(dPhi / 2)
	sinDLam := math.Sin(dLam / 2)
	a := sinDPhi*sinDPhi + math.Cos(phi1)*math.Cos(phi2)*sinDLam*sinDLam
	if a > 1 {
		a = 1
	}
	return RadToDeg(2 * math.Asin(math.Sqrt(a)))
}

// SeparationMas returns the great-circle separation in milliarcseconds.
func SeparationMas(ra1, dec1, ra2, dec2 float64) float64 {
	return AngularSeparation(ra1, dec1, ra2, dec2) * MasPerDeg
}

// UnwrapRA shifts right-ascension samples so a window that straddles the
// 0/360 discontinuity becomes continuous before polynomial fitting. Points
// above 270 degrees are shifted down by 360 only when the window spans both
// low (<100) and high (>270) values; any other window is returned unchanged.
// The returned slice is a copy; the input is never modified.
func UnwrapRA(ra []float64) []float64 {
	out := make([]float64, len(ra))
	copy(out, ra)
	if len(ra) == 0 {
		return out
	}
	lo, hi := ra[0], ra[0]
	for _, v := range ra[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo < 100 && hi > 270 {
		for i, v := range out {
			if v > 270 {
				out[i] = v - 360.0
			}
		}
	}
	return out
}
