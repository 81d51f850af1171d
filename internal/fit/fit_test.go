package fit

import (
	"context"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/avollmer/starpipe/internal/types"
)

func synthTransit(rng *rand.Rand, t0, depth, duration, m0 float64, n int) []types.CorrectedObservation {
	model := &TransitModel{}
	params := []float64{t0, depth, duration, 0.2, m0}

	obs := make([]types.CorrectedObservation, n)
	for i := range obs {
		t := t0 - 0.5 + float64(i)/float64(n-1)
		mag := model.Eval(params, t) + 0.005*rng.NormFloat64()
		obs[i] = types.CorrectedObservation{
			Observation: types.Observation{Magnitude: mag, MagErr: 0.005},
			HJD:         t,
		}
	}
	return obs
}

func TestTransitFitRecovery(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	const (
		t0       = 2460010.0
		depth    = 0.05
		duration = 0.2
		m0       = 11.3
	)
	obs := synthTransit(rng, t0, depth, duration, m0, 100)

	model, err := NewTransitModel(obs)
	if err != nil {
		t.Fatal(err)
	}

	set, err := Run(context.Background(), model, obs, Options{
		Walkers: 32, Steps: 800, BurnIn: 400, Stretch: 2.0, Seed: 9,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	idx := set.ParamIndex("t0")
	t0Med := medianOf(set.Flatten(idx))
	if math.Abs(t0Med-t0) > 0.02 {
		t.Errorf("posterior t0 = %.4f, true %.4f", t0Med, t0)
	}

	depthMed := medianOf(set.Flatten(set.ParamIndex("depth")))
	if math.Abs(depthMed-depth) > 0.02 {
		t.Errorf("posterior depth = %.4f, true %.4f", depthMed, depth)
	}

	m0Med := medianOf(set.Flatten(set.ParamIndex("m0")))
	if math.Abs(m0Med-m0) > 0.01 {
		t.Errorf("posterior baseline = %.4f, true %.4f", m0Med, m0)
	}

	// Event reduction for a transit is (t0, depth).
	times, amps := EventPosterior(model, set, "transit", 1000)
	if len(times) == 0 {
		t.Fatal("no event draws")
	}
	if tm := stat.Mean(times, nil); math.Abs(tm-t0) > 0.02 {
		t.Errorf("event time mean = %.4f, true %.4f", tm, t0)
	}
	if am := stat.Mean(amps, nil); math.Abs(am-depth) > 0.02 {
		t.Errorf("event amplitude mean = %.4f, true %.4f", am, depth)
	}
}

func synthPulsation(rng *rand.Rand, period, epoch, m0, amp float64, n int) []types.CorrectedObservation {
	obs := make([]types.CorrectedObservation, n)
	for i := range obs {
		t := epoch + 3.0*float64(i)/float64(n-1)
		phi := 2 * math.Pi * (t - epoch) / period
		mag := m0 + amp*math.Cos(phi) + 0.02*rng.NormFloat64()
		obs[i] = types.CorrectedObservation{
			Observation: types.Observation{Magnitude: mag, MagErr: 0.02},
			HJD:         t,
		}
	}
	return obs
}

func TestPulsationFitRecovery(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 22))
	const (
		period = 0.5
		epoch  = 2460000.0
		m0     = 7.1
		amp    = 0.3 // cosine coefficient; peak-to-peak 0.6
	)
	obs := synthPulsation(rng, period, epoch, m0, amp, 120)

	model, err := NewPulsationModel(obs, period, epoch, 2)
	if err != nil {
		t.Fatal(err)
	}

	set, err := Run(context.Background(), model, obs, Options{
		Walkers: 32, Steps: 800, BurnIn: 400, Stretch: 2.0, Seed: 5,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	pMed := medianOf(set.Flatten(set.ParamIndex("period")))
	if math.Abs(pMed-period) > 0.005 {
		t.Errorf("posterior period = %.5f, true %.5f", pMed, period)
	}

	m0Med := medianOf(set.Flatten(set.ParamIndex("m0")))
	if math.Abs(m0Med-m0) > 0.05 {
		t.Errorf("posterior m0 = %.4f, true %.4f", m0Med, m0)
	}

	a1Med := medianOf(set.Flatten(set.ParamIndex("a1")))
	if math.Abs(a1Med-amp) > 0.05 {
		t.Errorf("posterior a1 = %.4f, true %.4f", a1Med, amp)
	}

	// Brightness minimum of a cosine in magnitude space sits at the epoch.
	times, amps := EventPosterior(model, set, "min", 500)
	tMed := medianOf(times)
	offset := math.Mod(tMed-epoch, pMed)
	if offset > pMed/2 {
		offset -= pMed
	}
	if math.Abs(offset) > 0.02 {
		t.Errorf("event time %.4f not at a cycle boundary (offset %.4f d)", tMed, offset)
	}
	if am := medianOf(amps); math.Abs(am-2*amp) > 0.1 {
		t.Errorf("peak-to-peak amplitude = %.3f, true %.3f", am, 2*amp)
	}
}

func TestPulsationEventKnownParams(t *testing.T) {
	obs := synthPulsation(rand.New(rand.NewPCG(1, 1)), 0.5, 2460000.0, 7.1, 0.3, 60)
	model, err := NewPulsationModel(obs, 0.5, 2460000.0, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Pure cosine: magnitude maximum (brightness minimum) at phase zero,
	// brightness maximum half a cycle later. The data span three days, so
	// the reported event sits in the cycle nearest their midpoint.
	p := []float64{0.5, 7.1, 0.3, 0}
	const dataMid = 2460001.5

	tMin, ampMin := model.Event(p, "min")
	if off := phaseOffset(tMin, 2460000.0, 0.5); math.Abs(off) > 1e-3 {
		t.Errorf("min event at %.5f, expected phase zero (offset %.5f d)", tMin, off)
	}
	if math.Abs(tMin-dataMid) > 0.25+1e-9 {
		t.Errorf("min event at %.5f, not in the cycle nearest %.2f", tMin, dataMid)
	}
	if math.Abs(ampMin-0.6) > 1e-3 {
		t.Errorf("amplitude = %.4f, expected 0.6", ampMin)
	}

	tMax, _ := model.Event(p, "max")
	if off := phaseOffset(tMax, 2460000.25, 0.5); math.Abs(off) > 1e-3 {
		t.Errorf("max event at %.5f, expected phase half (offset %.5f d)", tMax, off)
	}
	if math.Abs(tMax-dataMid) > 0.25+1e-9 {
		t.Errorf("max event at %.5f, not in the cycle nearest %.2f", tMax, dataMid)
	}
}

// phaseOffset folds t onto the cycle of ref and returns the signed
// distance to the nearest cycle boundary.
func phaseOffset(t, ref, period float64) float64 {
	off := math.Mod(t-ref, period)
	if off > period/2 {
		off -= period
	}
	if off < -period/2 {
		off += period
	}
	return off
}

func TestChainCacheRoundTrip(t *testing.T) {
	set := &types.PosteriorSet{
		Params: []string{"a", "b"},
		Chains: [][][]float64{
			{{1, 2}, {3, 4}},
			{{5, 6}, {7, 8}},
		},
		LogProb:  [][]float64{{-1, -2}, {-3, -4}},
		Accepted: 10,
		Proposed: 20,
	}

	path := filepath.Join(t.TempDir(), "chains.msgpack")
	if err := SaveChains(path, set); err != nil {
		t.Fatalf("SaveChains error: %v", err)
	}

	got, err := LoadChains(path)
	if err != nil {
		t.Fatalf("LoadChains error: %v", err)
	}
	if len(got.Params) != 2 || got.Params[0] != "a" {
		t.Errorf("params = %v", got.Params)
	}
	if got.NumDraws() != 4 {
		t.Errorf("draws = %d, expected 4", got.NumDraws())
	}
	if got.Chains[1][0][0] != 5 {
		t.Errorf("chain payload corrupted: %v", got.Chains)
	}
	if got.Accepted != 10 || got.Proposed != 20 {
		t.Errorf("counters = %d/%d", got.Accepted, got.Proposed)
	}
}

func TestLoadChainsMissing(t *testing.T) {
	if _, err := LoadChains(filepath.Join(t.TempDir(), "absent.msgpack")); err == nil {
		t.Error("expected error for missing cache file")
	}
}

func TestWriteSynthCSV(t *testing.T) {
	obs := synthPulsation(rand.New(rand.NewPCG(2, 2)), 0.5, 2460000.0, 7.1, 0.3, 60)
	model, err := NewPulsationModel(obs, 0.5, 2460000.0, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Small hand-built posterior around the truth.
	set := &types.PosteriorSet{
		Params: append(model.ParamNames(), "log_jitter"),
		Chains: [][][]float64{{
			{0.5, 7.1, 0.3, 0, -5},
			{0.501, 7.11, 0.29, 0.01, -5},
			{0.499, 7.09, 0.31, -0.01, -5},
		}},
	}

	path := filepath.Join(t.TempDir(), "lc_synth.csv")
	if err := WriteSynthCSV(path, model, set, 2460000.0, 2460001.0, 50); err != nil {
		t.Fatalf("WriteSynthCSV error: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 51 {
		t.Fatalf("CSV has %d rows, expected header + 50", len(rows))
	}
	if rows[0][0] != "hjd" || rows[0][3] != "mag_hi" {
		t.Errorf("header = %v", rows[0])
	}
	for _, row := range rows[1:] {
		lo, med, hi := parseF(t, row[2]), parseF(t, row[1]), parseF(t, row[3])
		if lo > med || med > hi {
			t.Fatalf("credible band out of order: %.4f %.4f %.4f", lo, med, hi)
		}
	}
}
