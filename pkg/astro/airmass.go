package astro

import (
	"math"

	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/unit"
)

// Altitude returns the apparent altitude of a star above the horizon, in
// degrees, for an observer at (latDeg, lonDeg) at the given geocentric JD.
// Longitude is positive east.
func Altitude(jd, raDeg, decDeg, latDeg, lonDeg float64) float64 {
	// Local sidereal time = apparent Greenwich sidereal time + east longitude.
	gst := sidereal.Apparent(jd)
	lst := gst.Angle() + unit.AngleFromDeg(lonDeg)

	// Hour angle of the star.
	ha := lst - unit.AngleFromDeg(raDeg)

	lat := unit.AngleFromDeg(latDeg)
	dec := unit.AngleFromDeg(decDeg)

	sinAlt := lat.Sin()*dec.Sin() + lat.Cos()*dec.Cos()*ha.Cos()
	return unit.Angle(math.Asin(sinAlt)).Deg()
}

// Airmass returns the relative optical airmass for a star at the given
// altitude in degrees, using the Kasten & Young (1989) formula. Altitudes
// at or below -2 degrees return +Inf: the star is effectively below the
// horizon and the formula no longer applies.
func Airmass(altDeg float64) float64 {
	if altDeg <= -2 {
		return math.Inf(1)
	}
	return 1.0 / (math.Sin(altDeg*math.Pi/180) +
		0.50572*math.Pow(altDeg+6.07995, -1.6364))
}

// AirmassAt computes the airmass of a star for an observer location and
// geocentric JD in one step.
func AirmassAt(jd, raDeg, decDeg, latDeg, lonDeg float64) float64 {
	return Airmass(Altitude(jd, raDeg, decDeg, latDeg, lonDeg))
}
