package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/avollmer/starpipe/pkg/astro"
)

func main() {
	var jd, ra, dec, lat, lon float64
	flag.Float64Var(&jd, "jd", 0, "Geocentric Julian Date of the observation")
	flag.Float64Var(&ra, "ra", math.NaN(), "Star right ascension, ICRS degrees")
	flag.Float64Var(&dec, "dec", math.NaN(), "Star declination, ICRS degrees")
	flag.Float64Var(&lat, "lat", math.NaN(), "Observer latitude, degrees (optional, enables airmass)")
	flag.Float64Var(&lon, "lon", math.NaN(), "Observer east longitude, degrees (optional, enables airmass)")
	flag.Parse()

	if jd == 0 || math.IsNaN(ra) || math.IsNaN(dec) {
		fmt.Fprintln(os.Stderr, "Usage: hjd -jd <jd> -ra <deg> -dec <deg> [-lat <deg> -lon <deg>]")
		os.Exit(1)
	}

	corr := astro.HelioCorrection(jd, ra, dec)
	hjd := jd + corr

	fmt.Printf("Heliocentric correction for JD %.6f\n", jd)
	fmt.Printf("  RA/Dec:     %.5f° %+.5f°\n", ra, dec)
	fmt.Printf("  Correction: %+.6f d (%+.1f s)\n", corr, corr*86400)
	fmt.Printf("  HJD:        %.6f\n", hjd)

	if !math.IsNaN(lat) && !math.IsNaN(lon) {
		alt := astro.Altitude(jd, ra, dec, lat, lon)
		fmt.Printf("  Altitude:   %+.2f°\n", alt)
		x := astro.Airmass(alt)
		if math.IsInf(x, 1) {
			fmt.Printf("  Airmass:    below horizon\n")
		} else {
			fmt.Printf("  Airmass:    %.3f\n", x)
		}
	}
}
