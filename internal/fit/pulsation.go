package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/avollmer/starpipe/internal/types"
)

// PulsationModel is a truncated Fourier series on a pulsation period:
//
//	m(t) = m0 + sum_k [ a_k cos(k φ) + b_k sin(k φ) ],  φ = 2π (t - epoch)/P
//
// The epoch is held fixed (it is degenerate with the harmonic phases); the
// free parameters are the period, the mean magnitude and the harmonic
// coefficients. Cos/sin pairs are used instead of amplitude/phase pairs to
// keep the posterior free of phase-wrapping multimodality.
type PulsationModel struct {
	Epoch     float64
	Harmonics int

	dataMid     float64 // midpoint of the observed span, event cycle anchor
	periodPrior distuv.Uniform
	m0Prior     distuv.Uniform
	coeffPrior  distuv.Uniform
}

// NewPulsationModel builds a pulsation model around a trial period. The
// period prior allows a ±20% search window around the trial value.
func NewPulsationModel(obs []types.CorrectedObservation, trialPeriod, epoch float64, harmonics int) (*PulsationModel, error) {
	if trialPeriod <= 0 {
		return nil, fmt.Errorf("pulsation fit needs a positive trial period")
	}
	if harmonics < 1 {
		return nil, fmt.Errorf("need at least one harmonic, got %d", harmonics)
	}
	if len(obs) < 2*(2*harmonics+2) {
		return nil, fmt.Errorf("pulsation fit with %d harmonics needs at least %d observations, got %d",
			harmonics, 2*(2*harmonics+2), len(obs))
	}

	if epoch == 0 {
		epoch = obs[0].HJD
	}

	magMin, magMax := obs[0].Magnitude, obs[0].Magnitude
	tMin, tMax := obs[0].HJD, obs[0].HJD
	for _, o := range obs {
		magMin = math.Min(magMin, o.Magnitude)
		magMax = math.Max(magMax, o.Magnitude)
		tMin = math.Min(tMin, o.HJD)
		tMax = math.Max(tMax, o.HJD)
	}
	ampBound := 2*(magMax-magMin) + 0.1

	return &PulsationModel{
		Epoch:       epoch,
		Harmonics:   harmonics,
		dataMid:     (tMin + tMax) / 2,
		periodPrior: distuv.Uniform{Min: 0.8 * trialPeriod, Max: 1.2 * trialPeriod},
		m0Prior:     distuv.Uniform{Min: magMin - 1, Max: magMax + 1},
		coeffPrior:  distuv.Uniform{Min: -ampBound, Max: ampBound},
	}, nil
}

func (m *PulsationModel) Name() string { return "pulsation-fourier" }

func (m *PulsationModel) ParamNames() []string {
	names := []string{"period", "m0"}
	for k := 1; k <= m.Harmonics; k++ {
		names = append(names, fmt.Sprintf("a%d", k), fmt.Sprintf("b%d", k))
	}
	return names
}

func (m *PulsationModel) Eval(p []float64, t float64) float64 {
	period, m0 := p[0], p[1]
	phi := 2 * math.Pi * (t - m.Epoch) / period

	mag := m0
	for k := 1; k <= m.Harmonics; k++ {
		s, c := math.Sincos(float64(k) * phi)
		mag += p[2*k]*c + p[2*k+1]*s
	}
	return mag
}

func (m *PulsationModel) LogPrior(p []float64) float64 {
	lp := m.periodPrior.LogProb(p[0]) + m.m0Prior.LogProb(p[1])
	for i := 2; i < len(p); i++ {
		lp += m.coeffPrior.LogProb(p[i])
	}
	if math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp
}

// Init warm-starts the fit with a linear least-squares solution for the
// mean and harmonic coefficients at the trial period (the model is linear
// in everything except the period).
func (m *PulsationModel) Init(obs []types.CorrectedObservation) (center, scale []float64, err error) {
	period := (m.periodPrior.Min + m.periodPrior.Max) / 2
	n := len(obs)
	cols := 1 + 2*m.Harmonics

	a := mat.NewDense(n, cols, nil)
	b := mat.NewDense(n, 1, nil)
	for i, o := range obs {
		phi := 2 * math.Pi * (o.HJD - m.Epoch) / period
		a.Set(i, 0, 1)
		for k := 1; k <= m.Harmonics; k++ {
			s, c := math.Sincos(float64(k) * phi)
			a.Set(i, 2*k-1, c)
			a.Set(i, 2*k, s)
		}
		b.Set(i, 0, o.Magnitude)
	}

	var qr mat.QR
	qr.Factorize(a)
	var x mat.Dense
	if err := qr.SolveTo(&x, false, b); err != nil {
		return nil, nil, fmt.Errorf("least-squares warm start failed: %w", err)
	}

	center = make([]float64, 2+2*m.Harmonics)
	center[0] = period
	center[1] = x.At(0, 0)
	for k := 1; k <= m.Harmonics; k++ {
		center[2*k] = x.At(2*k-1, 0)
		center[2*k+1] = x.At(2*k, 0)
	}

	// Clamp coefficients into the prior support; pathological warm starts
	// (wrong trial period) can overshoot the amplitude bound.
	for i := 1; i < len(center); i++ {
		lo, hi := m.coeffPrior.Min, m.coeffPrior.Max
		if i == 1 {
			lo, hi = m.m0Prior.Min, m.m0Prior.Max
		}
		center[i] = math.Max(lo+1e-9, math.Min(hi-1e-9, center[i]))
	}

	scale = make([]float64, len(center))
	scale[0] = period * 1e-4
	scale[1] = 0.01
	for i := 2; i < len(scale); i++ {
		scale[i] = 0.01
	}
	return center, scale, nil
}

// Event scans one model cycle for the extremum. kind "min" is the
// brightness minimum (magnitude maximum), "max" the brightness maximum.
// The extremum is reported in the cycle nearest the middle of the observed
// span rather than the (possibly distant) epoch cycle. The amplitude is
// peak-to-peak over the cycle.
func (m *PulsationModel) Event(p []float64, kind string) (float64, float64) {
	period := p[0]

	const steps = 2000
	tBest := m.Epoch
	magAtBest := m.Eval(p, m.Epoch)
	magMin, magMax := magAtBest, magAtBest

	for i := 0; i <= steps; i++ {
		t := m.Epoch + period*float64(i)/steps
		mag := m.Eval(p, t)
		magMin = math.Min(magMin, mag)
		magMax = math.Max(magMax, mag)

		isBetter := false
		if kind == "max" {
			isBetter = mag < magAtBest // brighter = smaller magnitude
		} else {
			isBetter = mag > magAtBest
		}
		if isBetter {
			magAtBest = mag
			tBest = t
		}
	}
	return m.CyclesTo(tBest, period, m.dataMid), magMax - magMin
}

// CyclesTo shifts an event time from the epoch cycle into the cycle
// closest to the given reference time.
func (m *PulsationModel) CyclesTo(eventTime, period, ref float64) float64 {
	n := math.Round((ref - eventTime) / period)
	return eventTime + n*period
}
