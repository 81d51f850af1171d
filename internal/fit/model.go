// Package fit defines the light-curve models and drives the Bayesian fit:
// priors and likelihood around the ensemble sampler in internal/mcmc.
package fit

import (
	"github.com/avollmer/starpipe/internal/types"
)

// Model is a parametric light-curve model in magnitude space.
type Model interface {
	// Name tags the model in reports and logs.
	Name() string

	// ParamNames lists the free physical parameters, in order.
	ParamNames() []string

	// Eval returns the model magnitude at heliocentric time t.
	Eval(params []float64, t float64) float64

	// LogPrior returns the log prior density, -Inf outside support.
	LogPrior(params []float64) float64

	// Init returns a starting center and per-parameter scatter scale for
	// the walker ensemble, derived from the data.
	Init(obs []types.CorrectedObservation) (center, scale []float64, err error)

	// Event reduces one parameter vector to the reportable event: the
	// event time (HJD) and the amplitude in magnitudes. kind is "min",
	// "max" or "transit".
	Event(params []float64, kind string) (timeHJD, amplitude float64)
}
