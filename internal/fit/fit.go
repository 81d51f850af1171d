package fit

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/avollmer/starpipe/internal/mcmc"
	"github.com/avollmer/starpipe/internal/types"
)

// jitterName is the extra noise parameter appended to every model: the
// natural log of an additional magnitude scatter added in quadrature to
// the reported errors. It absorbs underestimated error bars.
const jitterName = "log_jitter"

var jitterPrior = distuv.Uniform{Min: -12, Max: 0}

// Options are the sampler settings for a fit.
type Options struct {
	Walkers int
	Steps   int
	BurnIn  int
	Stretch float64
	Seed    int64
}

// Run fits a model to the observations by MCMC and returns the posterior
// sample set. The parameter list is the model's parameters plus log_jitter.
func Run(ctx context.Context, model Model, obs []types.CorrectedObservation, opts Options) (*types.PosteriorSet, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("no observations to fit")
	}

	dim := len(model.ParamNames()) + 1
	names := append(append([]string(nil), model.ParamNames()...), jitterName)

	logProb := func(p []float64) float64 {
		phys, lj := p[:dim-1], p[dim-1]

		lp := model.LogPrior(phys) + jitterPrior.LogProb(lj)
		if math.IsInf(lp, -1) || math.IsNaN(lp) {
			return math.Inf(-1)
		}

		jitter2 := math.Exp(2 * lj)
		ll := 0.0
		for _, o := range obs {
			r := o.Magnitude - model.Eval(phys, o.HJD)
			s2 := o.MagErr*o.MagErr + jitter2
			ll += -0.5 * (r*r/s2 + math.Log(2*math.Pi*s2))
		}
		return lp + ll
	}

	center, scale, err := model.Init(obs)
	if err != nil {
		return nil, fmt.Errorf("initializing %s: %w", model.Name(), err)
	}
	center = append(center, -5.0)
	scale = append(scale, 0.3)

	initial, err := scatterWalkers(opts, dim, center, scale, logProb)
	if err != nil {
		return nil, err
	}

	sampler, err := mcmc.New(dim, logProb, mcmc.Config{
		Walkers: opts.Walkers,
		Steps:   opts.Steps,
		BurnIn:  opts.BurnIn,
		Stretch: opts.Stretch,
		Seed:    opts.Seed,
	})
	if err != nil {
		return nil, err
	}

	return sampler.Run(ctx, names, initial)
}

// scatterWalkers places the ensemble in a Gaussian ball around the warm
// start, redrawing any walker that lands outside the prior support.
func scatterWalkers(opts Options, dim int, center, scale []float64, logProb func([]float64) float64) ([][]float64, error) {
	rng := rand.New(rand.NewPCG(uint64(opts.Seed)+0x9e3779b9, 0x7f4a7c15))

	initial := make([][]float64, opts.Walkers)
	for k := range initial {
		var x []float64
		ok := false
		for try := 0; try < 1000; try++ {
			x = make([]float64, dim)
			for d := range x {
				x[d] = center[d] + scale[d]*rng.NormFloat64()
			}
			if lp := logProb(x); !math.IsInf(lp, 0) && !math.IsNaN(lp) {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("could not place walker %d inside the prior support", k)
		}
		initial[k] = x
	}
	return initial, nil
}

// EventPosterior reduces posterior draws to event-time and amplitude
// distributions via the model's Event reduction. Draws are thinned to at
// most maxDraws to bound the cost of the per-draw model scan.
func EventPosterior(model Model, set *types.PosteriorSet, kind string, maxDraws int) (times, amps []float64) {
	total := set.NumDraws()
	stride := 1
	if maxDraws > 0 && total > maxDraws {
		stride = total / maxDraws
	}

	i := 0
	for _, chain := range set.Chains {
		for _, draw := range chain {
			if i%stride == 0 {
				// Strip the jitter parameter appended by Run.
				t, a := model.Event(draw[:len(draw)-1], kind)
				times = append(times, t)
				amps = append(amps, a)
			}
			i++
		}
	}
	return times, amps
}

// MedianParams returns the per-parameter posterior median of the physical
// parameters (jitter excluded).
func MedianParams(model Model, set *types.PosteriorSet) []float64 {
	n := len(model.ParamNames())
	out := make([]float64, n)
	for d := 0; d < n; d++ {
		out[d] = medianOf(set.Flatten(d))
	}
	return out
}
