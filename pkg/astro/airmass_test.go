package astro

import (
	"math"
	"testing"
)

func TestAirmass(t *testing.T) {
	tests := []struct {
		name     string
		altDeg   float64
		expected [2]float64 // min, max
	}{
		{"zenith", 90, [2]float64{0.99, 1.01}},
		{"60 degrees", 60, [2]float64{1.14, 1.16}},
		{"30 degrees", 30, [2]float64{1.95, 2.05}},
		{"10 degrees", 10, [2]float64{5.5, 5.8}},
		{"horizon", 0, [2]float64{36, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := Airmass(tt.altDeg)
			if x < tt.expected[0] || x > tt.expected[1] {
				t.Errorf("Airmass(%.0f) = %.3f, expected in range [%.2f, %.2f]",
					tt.altDeg, x, tt.expected[0], tt.expected[1])
			}
		})
	}
}

func TestAirmassBelowHorizon(t *testing.T) {
	if x := Airmass(-5); !math.IsInf(x, 1) {
		t.Errorf("Airmass(-5) = %.3f, expected +Inf", x)
	}
}

func TestAirmassMonotonic(t *testing.T) {
	// Airmass must increase monotonically toward the horizon.
	prev := Airmass(90)
	for alt := 89.0; alt >= 1; alt-- {
		x := Airmass(alt)
		if x <= prev {
			t.Fatalf("airmass not monotonic: X(%.0f)=%.4f <= X(%.0f)=%.4f", alt, x, alt+1, prev)
		}
		prev = x
	}
}

func TestAltitudeRange(t *testing.T) {
	// Altitude stays within [-90, 90] over a full day for several sites.
	sites := []struct{ lat, lon float64 }{
		{48.14, 11.58},  // Munich
		{-33.93, 18.42}, // Cape Town
		{0, 0},
	}
	for _, site := range sites {
		for h := 0.0; h < 24; h += 0.5 {
			jd := 2460300.5 + h/24
			alt := Altitude(jd, 291.366, 42.784, site.lat, site.lon)
			if alt < -90 || alt > 90 {
				t.Fatalf("altitude %.2f out of range at lat %.2f lon %.2f", alt, site.lat, site.lon)
			}
		}
	}
}

func TestAltitudeCircumpolar(t *testing.T) {
	// RR Lyr (dec +42.8) never sets for an observer at lat 60N: its
	// minimum altitude is lat + dec - 90 = +12.8 degrees.
	for h := 0.0; h < 24; h += 0.25 {
		jd := 2460300.5 + h/24
		alt := Altitude(jd, 291.366, 42.784, 60, 0)
		if alt < 10 {
			t.Errorf("circumpolar star dipped to %.2f degrees at JD %.4f", alt, jd)
		}
	}
}
