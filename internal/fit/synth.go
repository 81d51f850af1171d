package fit

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/avollmer/starpipe/internal/types"
)

// WriteSynthCSV writes the posterior-predictive model curve on a regular
// time grid: the median model magnitude and a 68% credible band per grid
// point. Draws are thinned to keep the grid evaluation bounded.
func WriteSynthCSV(path string, model Model, set *types.PosteriorSet, tMin, tMax float64, gridN int) error {
	if gridN < 2 {
		gridN = 200
	}
	const maxDraws = 400

	total := set.NumDraws()
	stride := 1
	if total > maxDraws {
		stride = total / maxDraws
	}

	var draws [][]float64
	i := 0
	for _, chain := range set.Chains {
		for _, draw := range chain {
			if i%stride == 0 {
				draws = append(draws, draw[:len(draw)-1])
			}
			i++
		}
	}
	if len(draws) == 0 {
		return fmt.Errorf("posterior set is empty")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"hjd", "mag", "mag_lo", "mag_hi"}); err != nil {
		return err
	}

	mags := make([]float64, len(draws))
	for g := 0; g < gridN; g++ {
		t := tMin + (tMax-tMin)*float64(g)/float64(gridN-1)
		for j, p := range draws {
			mags[j] = model.Eval(p, t)
		}
		sort.Float64s(mags)
		med := quantileSorted(mags, 0.5)
		lo := quantileSorted(mags, 0.16)
		hi := quantileSorted(mags, 0.84)

		rec := []string{
			fmt.Sprintf("%.6f", t),
			fmt.Sprintf("%.4f", med),
			fmt.Sprintf("%.4f", lo),
			fmt.Sprintf("%.4f", hi),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// quantileSorted interpolates the q-th quantile of an ascending slice.
func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
