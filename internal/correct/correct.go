// Package correct applies time and airmass corrections to parsed
// observations and filters out points unusable for fitting.
package correct

import (
	"math"

	"github.com/avollmer/starpipe/internal/types"
	"github.com/avollmer/starpipe/pkg/astro"
)

// Site is the observing location used for airmass computation.
type Site struct {
	LatDeg float64
	LonDeg float64
}

// Apply derives heliocentric time and airmass for every observation.
// When reportedHelio is true the report timestamps are already HJD and the
// light-travel correction is skipped. Reported airmass values take
// precedence over computed ones.
func Apply(obs []types.Observation, star types.Star, site Site, reportedHelio bool) []types.CorrectedObservation {
	out := make([]types.CorrectedObservation, len(obs))
	for i, o := range obs {
		c := types.CorrectedObservation{Observation: o}

		if reportedHelio {
			c.HJD = o.JD
		} else {
			c.HJD = astro.HJD(o.JD, star.RADeg, star.DecDeg)
		}

		if o.Airmass > 0 {
			c.Airmass = o.Airmass
		} else {
			c.Airmass = astro.AirmassAt(o.JD, star.RADeg, star.DecDeg, site.LatDeg, site.LonDeg)
		}

		out[i] = c
	}
	return out
}

// FilterOptions controls the quality filter.
type FilterOptions struct {
	// MaxAirmass drops observations above this airmass; 0 disables.
	MaxAirmass float64

	// SigmaClip drops points further than this many standard deviations
	// from the moving median; 0 disables.
	SigmaClip float64

	// ClipWindow is the moving-median window size in points (odd, >= 3).
	ClipWindow int
}

// Filter drops observations unusable for model fitting: fainter-than upper
// limits, non-finite magnitudes, points without a positive magnitude error
// (reports carrying "na" parse to zero), and points failing the configured
// airmass and sigma-clip cuts. It returns the kept points and the number
// dropped.
func Filter(obs []types.CorrectedObservation, opts FilterOptions) (kept []types.CorrectedObservation, dropped int) {
	kept = make([]types.CorrectedObservation, 0, len(obs))
	for _, o := range obs {
		if o.FainterThan {
			dropped++
			continue
		}
		if math.IsNaN(o.Magnitude) || math.IsInf(o.Magnitude, 0) || o.MagErr <= 0 {
			dropped++
			continue
		}
		if opts.MaxAirmass > 0 && o.Airmass > opts.MaxAirmass {
			dropped++
			continue
		}
		kept = append(kept, o)
	}

	if opts.SigmaClip > 0 && len(kept) >= 5 {
		clipped := sigmaClip(kept, opts.SigmaClip, opts.ClipWindow)
		dropped += len(kept) - len(clipped)
		kept = clipped
	}
	return kept, dropped
}

// sigmaClip removes points deviating from a moving median by more than
// k standard deviations of the local residuals.
func sigmaClip(obs []types.CorrectedObservation, k float64, window int) []types.CorrectedObservation {
	if window < 3 {
		window = 11
	}
	if window%2 == 0 {
		window++
	}
	half := window / 2

	med := make([]float64, len(obs))
	res := make([]float64, len(obs))
	for i := range obs {
		lo, hi := i-half, i+half
		if lo < 0 {
			lo = 0
		}
		if hi >= len(obs) {
			hi = len(obs) - 1
		}
		vals := make([]float64, 0, hi-lo+1)
		for j := lo; j <= hi; j++ {
			vals = append(vals, obs[j].Magnitude)
		}
		med[i] = median(vals)
		res[i] = obs[i].Magnitude - med[i]
	}

	// Standard deviation of residuals over the whole series.
	var sum, sumsq float64
	for _, r := range res {
		sum += r
		sumsq += r * r
	}
	n := float64(len(res))
	sigma := math.Sqrt(sumsq/n - (sum/n)*(sum/n))
	if sigma == 0 {
		return obs
	}

	out := make([]types.CorrectedObservation, 0, len(obs))
	for i, o := range obs {
		if math.Abs(res[i]) <= k*sigma {
			out = append(out, o)
		}
	}
	return out
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted)%2 == 1 {
		return sorted[len(sorted)/2]
	}
	return (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
}
