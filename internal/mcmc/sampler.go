// Package mcmc implements an affine-invariant ensemble sampler using the
// Goodman & Weare (2010) stretch move. An ensemble of walkers explores the
// posterior together; each walker proposes moves along lines through the
// positions of other walkers, which makes the sampler invariant under
// affine transformations of the parameter space and free of step-size
// tuning.
package mcmc

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/avollmer/starpipe/internal/types"
)

// LogProbFunc evaluates the unnormalized log posterior density. It must
// return -Inf for positions outside the prior support.
type LogProbFunc func(x []float64) float64

// Config holds sampler settings.
type Config struct {
	Walkers int     // ensemble size; at least 2*dim and even
	Steps   int     // post-burn-in steps recorded per walker
	BurnIn  int     // steps discarded before recording
	Stretch float64 // stretch scale a; 2.0 is the standard choice
	Seed    int64
}

// Sampler runs the stretch-move ensemble over a target density.
type Sampler struct {
	dim     int
	logProb LogProbFunc
	cfg     Config
}

// New validates the configuration and returns a Sampler for a target of
// the given dimensionality.
func New(dim int, logProb LogProbFunc, cfg Config) (*Sampler, error) {
	if dim < 1 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	if cfg.Walkers < 2*dim {
		return nil, fmt.Errorf("need at least %d walkers for %d parameters, got %d", 2*dim, dim, cfg.Walkers)
	}
	if cfg.Walkers%2 != 0 {
		return nil, fmt.Errorf("walker count must be even, got %d", cfg.Walkers)
	}
	if cfg.Steps < 1 {
		return nil, fmt.Errorf("steps must be positive, got %d", cfg.Steps)
	}
	if cfg.Stretch <= 1 {
		cfg.Stretch = 2.0
	}
	return &Sampler{dim: dim, logProb: logProb, cfg: cfg}, nil
}

// Run samples starting from one initial position per walker. Every initial
// position must have finite log probability. Walkers are recorded as
// separate chains so convergence diagnostics can compare them.
func (s *Sampler) Run(ctx context.Context, names []string, initial [][]float64) (*types.PosteriorSet, error) {
	if len(names) != s.dim {
		return nil, fmt.Errorf("got %d parameter names for %d dimensions", len(names), s.dim)
	}
	if len(initial) != s.cfg.Walkers {
		return nil, fmt.Errorf("got %d initial positions for %d walkers", len(initial), s.cfg.Walkers)
	}

	pos := make([][]float64, s.cfg.Walkers)
	lnp := make([]float64, s.cfg.Walkers)
	for k, x := range initial {
		if len(x) != s.dim {
			return nil, fmt.Errorf("initial position %d has %d parameters, expected %d", k, len(x), s.dim)
		}
		pos[k] = append([]float64(nil), x...)
		lnp[k] = s.logProb(x)
		if math.IsNaN(lnp[k]) || math.IsInf(lnp[k], 0) {
			return nil, fmt.Errorf("initial position %d has non-finite log probability", k)
		}
	}

	set := &types.PosteriorSet{
		Params:  append([]string(nil), names...),
		Chains:  make([][][]float64, s.cfg.Walkers),
		LogProb: make([][]float64, s.cfg.Walkers),
	}
	for k := range set.Chains {
		set.Chains[k] = make([][]float64, 0, s.cfg.Steps)
		set.LogProb[k] = make([]float64, 0, s.cfg.Steps)
	}

	// One deterministic RNG stream per walker.
	rngs := make([]*rand.Rand, s.cfg.Walkers)
	for k := range rngs {
		rngs[k] = rand.New(rand.NewPCG(uint64(s.cfg.Seed), uint64(k)+1))
	}

	half := s.cfg.Walkers / 2
	var accepted, proposed int
	var mu sync.Mutex

	total := s.cfg.BurnIn + s.cfg.Steps
	for step := 0; step < total; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Red-black update: move each half of the ensemble using the
		// frozen positions of the other half. Walkers within a half are
		// independent and advance in parallel.
		for _, first := range []int{0, half} {
			other := half - first // start index of the complementary half

			var wg sync.WaitGroup
			for k := first; k < first+half; k++ {
				wg.Add(1)
				go func(k int) {
					defer wg.Done()
					rng := rngs[k]

					j := other + rng.IntN(half)
					z := stretchDraw(rng, s.cfg.Stretch)

					y := make([]float64, s.dim)
					for d := 0; d < s.dim; d++ {
						y[d] = pos[j][d] + z*(pos[k][d]-pos[j][d])
					}

					lnpY := s.logProb(y)
					lnAccept := float64(s.dim-1)*math.Log(z) + lnpY - lnp[k]

					mu.Lock()
					proposed++
					mu.Unlock()

					if lnAccept >= 0 || math.Log(rng.Float64()) < lnAccept {
						pos[k] = y
						lnp[k] = lnpY
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}(k)
			}
			wg.Wait()
		}

		if step >= s.cfg.BurnIn {
			for k := 0; k < s.cfg.Walkers; k++ {
				set.Chains[k] = append(set.Chains[k], append([]float64(nil), pos[k]...))
				set.LogProb[k] = append(set.LogProb[k], lnp[k])
			}
		}
	}

	set.Accepted = accepted
	set.Proposed = proposed
	return set, nil
}

// stretchDraw samples z from g(z) ∝ 1/sqrt(z) on [1/a, a].
func stretchDraw(rng *rand.Rand, a float64) float64 {
	u := rng.Float64()
	s := (a-1)*u + 1
	return s * s / a
}

// AcceptanceFraction returns the fraction of proposals accepted over the
// whole run, burn-in included.
func AcceptanceFraction(set *types.PosteriorSet) float64 {
	if set.Proposed == 0 {
		return 0
	}
	return float64(set.Accepted) / float64(set.Proposed)
}
