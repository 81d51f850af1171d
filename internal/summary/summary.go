// Package summary reduces posterior sample sets to point estimates,
// credible intervals and convergence diagnostics.
package summary

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/avollmer/starpipe/internal/types"
)

// ParamSummary is the reduced description of one posterior marginal.
type ParamSummary struct {
	Name   string
	Mean   float64
	Median float64
	Std    float64
	CI68   [2]float64 // 16th / 84th percentiles
	CI95   [2]float64 // 2.5th / 97.5th percentiles
	Rhat   float64    // split-R̂; 0 when not computable
	ESS    float64    // effective sample size; 0 when not computable
}

// Summarize reduces every parameter of a posterior set. Ensemble walkers
// are treated as chains for the split-R̂ diagnostic.
func Summarize(set *types.PosteriorSet) []ParamSummary {
	out := make([]ParamSummary, len(set.Params))
	for d, name := range set.Params {
		s := FromSamples(name, set.Flatten(d))
		s.Rhat = SplitRhat(set, d)
		s.ESS = EffectiveSampleSize(set, d)
		out[d] = s
	}
	return out
}

// FromSamples reduces a plain sample slice, without chain diagnostics.
// Used for derived quantities like event times.
func FromSamples(name string, samples []float64) ParamSummary {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	return ParamSummary{
		Name:   name,
		Mean:   stat.Mean(samples, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Std:    stat.StdDev(samples, nil),
		CI68: [2]float64{
			stat.Quantile(0.16, stat.Empirical, sorted, nil),
			stat.Quantile(0.84, stat.Empirical, sorted, nil),
		},
		CI95: [2]float64{
			stat.Quantile(0.025, stat.Empirical, sorted, nil),
			stat.Quantile(0.975, stat.Empirical, sorted, nil),
		},
	}
}

// SplitRhat computes the Gelman-Rubin potential scale reduction factor for
// one parameter, with each chain split in half to expose trends within
// chains. Values near 1.0 indicate convergence.
func SplitRhat(set *types.PosteriorSet, param int) float64 {
	var halves [][]float64
	for _, chain := range set.Chains {
		n := len(chain)
		if n < 4 {
			return 0
		}
		a := make([]float64, 0, n/2)
		b := make([]float64, 0, n-n/2)
		for i, draw := range chain {
			if i < n/2 {
				a = append(a, draw[param])
			} else {
				b = append(b, draw[param])
			}
		}
		halves = append(halves, a, b)
	}

	m := float64(len(halves))
	n := float64(len(halves[0]))

	chainMeans := make([]float64, len(halves))
	chainVars := make([]float64, len(halves))
	for i, h := range halves {
		chainMeans[i] = stat.Mean(h, nil)
		chainVars[i] = stat.Variance(h, nil)
	}

	grandMean := stat.Mean(chainMeans, nil)
	var between float64
	for _, cm := range chainMeans {
		between += (cm - grandMean) * (cm - grandMean)
	}
	between *= n / (m - 1)

	within := stat.Mean(chainVars, nil)
	if within == 0 {
		return 0
	}

	varPlus := (n-1)/n*within + between/n
	return math.Sqrt(varPlus / within)
}

// EffectiveSampleSize estimates the number of independent draws for one
// parameter from the mean within-chain autocorrelation, truncated at the
// first non-positive autocorrelation.
func EffectiveSampleSize(set *types.PosteriorSet, param int) float64 {
	totalN := 0
	var tauSum float64
	chains := 0

	for _, chain := range set.Chains {
		n := len(chain)
		if n < 8 {
			continue
		}
		x := make([]float64, n)
		for i, draw := range chain {
			x[i] = draw[param]
		}

		mean := stat.Mean(x, nil)
		var c0 float64
		for _, v := range x {
			c0 += (v - mean) * (v - mean)
		}
		c0 /= float64(n)
		if c0 == 0 {
			continue
		}

		tau := 1.0
		for lag := 1; lag < n/2; lag++ {
			var ck float64
			for i := 0; i+lag < n; i++ {
				ck += (x[i] - mean) * (x[i+lag] - mean)
			}
			ck /= float64(n)
			rho := ck / c0
			if rho <= 0 {
				break
			}
			tau += 2 * rho
		}

		tauSum += tau
		totalN += n
		chains++
	}

	if chains == 0 || tauSum == 0 {
		return 0
	}
	meanTau := tauSum / float64(chains)
	return float64(totalN) / meanTau
}

// Converged reports whether every parameter passes the split-R̂ threshold.
func Converged(summaries []ParamSummary, threshold float64) (bool, string) {
	if threshold <= 0 {
		threshold = 1.05
	}
	for _, s := range summaries {
		if s.Rhat > threshold {
			return false, fmt.Sprintf("parameter %s has R̂ = %.3f (threshold %.2f)", s.Name, s.Rhat, threshold)
		}
	}
	return true, ""
}
