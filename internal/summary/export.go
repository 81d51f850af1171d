package summary

import (
	"encoding/csv"
	"fmt"
	"os"
)

// WriteUncertaintiesCSV writes one row per parameter: point estimates,
// credible intervals and convergence diagnostics.
func WriteUncertaintiesCSV(path string, summaries []ParamSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"param", "mean", "median", "std",
		"ci68_lo", "ci68_hi", "ci95_lo", "ci95_hi", "rhat", "ess"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, s := range summaries {
		rec := []string{
			s.Name,
			fmt.Sprintf("%.8g", s.Mean),
			fmt.Sprintf("%.8g", s.Median),
			fmt.Sprintf("%.8g", s.Std),
			fmt.Sprintf("%.8g", s.CI68[0]),
			fmt.Sprintf("%.8g", s.CI68[1]),
			fmt.Sprintf("%.8g", s.CI95[0]),
			fmt.Sprintf("%.8g", s.CI95[1]),
			fmt.Sprintf("%.4f", s.Rhat),
			fmt.Sprintf("%.1f", s.ESS),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
