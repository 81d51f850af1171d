package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/avollmer/starpipe/internal/types"
)

// TransitModel is a trapezoidal transit light curve: flat baseline, linear
// ingress/egress ramps and a flat bottom. Parameters:
//
//	t0       mid-transit time (HJD)
//	depth    transit depth in magnitudes (positive = fainter)
//	duration total transit duration T14 in days
//	ingress  fraction of the duration spent in each ramp (0, 0.5]
//	m0       out-of-transit baseline magnitude
//
// The full Mandel-Agol limb-darkened curve is deliberately not modelled;
// for timing work the trapezoid recovers t0 and depth with negligible bias.
type TransitModel struct {
	priors transitPriors
}

type transitPriors struct {
	t0, depth, duration, ingress, m0 distuv.Uniform
}

// NewTransitModel builds a transit model with data-driven uniform priors.
func NewTransitModel(obs []types.CorrectedObservation) (*TransitModel, error) {
	if len(obs) < 10 {
		return nil, fmt.Errorf("transit fit needs at least 10 observations, got %d", len(obs))
	}

	tmin, tmax := obs[0].HJD, obs[len(obs)-1].HJD
	span := tmax - tmin
	if span <= 0 {
		return nil, fmt.Errorf("observations span no time")
	}

	magMin, magMax := obs[0].Magnitude, obs[0].Magnitude
	for _, o := range obs {
		magMin = math.Min(magMin, o.Magnitude)
		magMax = math.Max(magMax, o.Magnitude)
	}

	m := &TransitModel{}
	m.priors.t0 = distuv.Uniform{Min: tmin, Max: tmax}
	m.priors.depth = distuv.Uniform{Min: 0.0005, Max: 1.0}
	m.priors.duration = distuv.Uniform{Min: span / 100, Max: span}
	m.priors.ingress = distuv.Uniform{Min: 0.01, Max: 0.5}
	m.priors.m0 = distuv.Uniform{Min: magMin - 1, Max: magMax + 1}
	return m, nil
}

func (m *TransitModel) Name() string { return "transit-trapezoid" }

func (m *TransitModel) ParamNames() []string {
	return []string{"t0", "depth", "duration", "ingress", "m0"}
}

func (m *TransitModel) Eval(p []float64, t float64) float64 {
	t0, depth, duration, ingress, m0 := p[0], p[1], p[2], p[3], p[4]

	dt := math.Abs(t - t0)
	half := duration / 2
	ramp := ingress * duration

	switch {
	case dt >= half:
		return m0
	case dt <= half-ramp:
		return m0 + depth
	default:
		// On the ramp: interpolate between full depth and baseline.
		return m0 + depth*(half-dt)/ramp
	}
}

func (m *TransitModel) LogPrior(p []float64) float64 {
	lp := m.priors.t0.LogProb(p[0]) +
		m.priors.depth.LogProb(p[1]) +
		m.priors.duration.LogProb(p[2]) +
		m.priors.ingress.LogProb(p[3]) +
		m.priors.m0.LogProb(p[4])
	if math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp
}

func (m *TransitModel) Init(obs []types.CorrectedObservation) (center, scale []float64, err error) {
	// Baseline from the median magnitude, depth and mid-time from the
	// faintest stretch of the series.
	mags := make([]float64, len(obs))
	for i, o := range obs {
		mags[i] = o.Magnitude
	}
	m0 := medianOf(mags)

	deepest, tDeep := 0.0, obs[len(obs)/2].HJD
	for _, o := range obs {
		if d := o.Magnitude - m0; d > deepest {
			deepest = d
			tDeep = o.HJD
		}
	}
	if deepest <= 0 {
		return nil, nil, fmt.Errorf("no point fainter than baseline; not a transit light curve")
	}

	span := obs[len(obs)-1].HJD - obs[0].HJD
	center = []float64{tDeep, deepest, span / 5, 0.2, m0}
	scale = []float64{span / 50, deepest / 10, span / 50, 0.03, 0.005}
	return center, scale, nil
}

// Event returns mid-transit time and depth; kind is ignored because a
// transit has a single event definition.
func (m *TransitModel) Event(p []float64, _ string) (float64, float64) {
	return p[0], p[1]
}

func medianOf(vals []float64) float64 {
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
