package summary

import (
	"encoding/csv"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/avollmer/starpipe/internal/types"
)

// iidSet builds a posterior set of independent N(mu, sigma) draws across
// the given number of chains.
func iidSet(rng *rand.Rand, chains, draws int, mu, sigma float64) *types.PosteriorSet {
	set := &types.PosteriorSet{
		Params: []string{"x"},
		Chains: make([][][]float64, chains),
	}
	for c := range set.Chains {
		set.Chains[c] = make([][]float64, draws)
		for i := range set.Chains[c] {
			set.Chains[c][i] = []float64{mu + sigma*rng.NormFloat64()}
		}
	}
	return set
}

func TestSummarizeGaussian(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	set := iidSet(rng, 8, 2000, 3.0, 0.5)

	summaries := Summarize(set)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries", len(summaries))
	}
	s := summaries[0]

	if math.Abs(s.Mean-3.0) > 0.02 {
		t.Errorf("mean = %.4f, expected 3.0", s.Mean)
	}
	if math.Abs(s.Median-3.0) > 0.03 {
		t.Errorf("median = %.4f, expected 3.0", s.Median)
	}
	if math.Abs(s.Std-0.5) > 0.02 {
		t.Errorf("std = %.4f, expected 0.5", s.Std)
	}

	// 68% interval of N(3, 0.5) is about [2.5, 3.5].
	if math.Abs(s.CI68[0]-2.5) > 0.05 || math.Abs(s.CI68[1]-3.5) > 0.05 {
		t.Errorf("CI68 = %v, expected ~[2.5, 3.5]", s.CI68)
	}
	if math.Abs(s.CI95[0]-2.02) > 0.08 || math.Abs(s.CI95[1]-3.98) > 0.08 {
		t.Errorf("CI95 = %v, expected ~[2.02, 3.98]", s.CI95)
	}

	// Independent draws: R̂ near 1, ESS near the draw count.
	if s.Rhat < 0.98 || s.Rhat > 1.02 {
		t.Errorf("Rhat = %.4f for iid draws, expected ~1", s.Rhat)
	}
	if s.ESS < 0.5*float64(set.NumDraws()) {
		t.Errorf("ESS = %.0f for iid draws, expected near %d", s.ESS, set.NumDraws())
	}
}

func TestSplitRhatDetectsDisagreement(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))

	// Two chains stuck at different positions.
	set := &types.PosteriorSet{
		Params: []string{"x"},
		Chains: make([][][]float64, 2),
	}
	for c := range set.Chains {
		offset := float64(c) * 5
		set.Chains[c] = make([][]float64, 500)
		for i := range set.Chains[c] {
			set.Chains[c][i] = []float64{offset + 0.1*rng.NormFloat64()}
		}
	}

	rhat := SplitRhat(set, 0)
	if rhat < 2 {
		t.Errorf("Rhat = %.3f for disjoint chains, expected >> 1", rhat)
	}

	ok, reason := Converged(Summarize(set), 1.05)
	if ok {
		t.Error("Converged should fail for disjoint chains")
	}
	if reason == "" {
		t.Error("Converged should name the failing parameter")
	}
}

func TestEffectiveSampleSizeCorrelated(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))

	// AR(1) with strong correlation: ESS must drop well below N.
	set := &types.PosteriorSet{
		Params: []string{"x"},
		Chains: make([][][]float64, 4),
	}
	const phi = 0.95
	for c := range set.Chains {
		set.Chains[c] = make([][]float64, 2000)
		x := 0.0
		for i := range set.Chains[c] {
			x = phi*x + rng.NormFloat64()
			set.Chains[c][i] = []float64{x}
		}
	}

	ess := EffectiveSampleSize(set, 0)
	n := float64(set.NumDraws())
	if ess <= 0 || ess > 0.2*n {
		t.Errorf("ESS = %.0f of N = %.0f, expected strong reduction for AR(1) phi=0.95", ess, n)
	}
}

func TestWriteUncertaintiesCSV(t *testing.T) {
	summaries := []ParamSummary{
		{Name: "period", Mean: 0.5668, Median: 0.5667, Std: 0.0002,
			CI68: [2]float64{0.5666, 0.567}, CI95: [2]float64{0.5664, 0.5672},
			Rhat: 1.01, ESS: 1234.5},
		{Name: "event_hjd", Mean: 2460000.123, Median: 2460000.124, Std: 0.002},
	}

	path := filepath.Join(t.TempDir(), "uncertainties.csv")
	if err := WriteUncertaintiesCSV(path, summaries); err != nil {
		t.Fatalf("WriteUncertaintiesCSV error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("CSV has %d rows, expected header + 2", len(rows))
	}
	if rows[0][0] != "param" || rows[0][9] != "ess" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "period" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[2][0] != "event_hjd" {
		t.Errorf("second row = %v", rows[2])
	}
}
