// Package astro provides the astrometric and time corrections applied to
// photometric observations: heliocentric Julian Date, airmass, and
// constellation resolution from variable-star designations.
package astro

import (
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// lightTimeAU is the light travel time for 1 AU, in days (499.00478 s).
const lightTimeAU = 499.004784 / 86400.0

// HJD converts a geocentric Julian Date to heliocentric Julian Date for a
// star at the given ICRS position (degrees).
//
// The correction removes the light travel time between the Earth and the
// solar-system center projected onto the star direction:
//
//	HJD = JD - (R/c) * (sin δ sin δ⊙ + cos δ cos δ⊙ cos(α - α⊙))
//
// where (α⊙, δ⊙) is the apparent geocentric solar position and R the
// Sun-Earth distance. The correction is bounded by ±8.3 minutes.
func HJD(jd, raDeg, decDeg float64) float64 {
	return jd + HelioCorrection(jd, raDeg, decDeg)
}

// HelioCorrection returns the heliocentric time correction in days for a
// star at the given ICRS position (degrees). Negative when the Earth is on
// the star's side of its orbit.
func HelioCorrection(jd, raDeg, decDeg float64) float64 {
	sunRA, sunDec := solar.ApparentEquatorial(jd)
	r := solar.Radius(base.J2000Century(jd))

	ra := unit.AngleFromDeg(raDeg)
	dec := unit.AngleFromDeg(decDeg)

	cosDist := dec.Sin()*sunDec.Sin() +
		dec.Cos()*sunDec.Cos()*(ra-sunRA.Angle()).Cos()

	return -r * lightTimeAU * cosDist
}
