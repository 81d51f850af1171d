package correct

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/avollmer/starpipe/internal/types"
)

// WriteObservationsCSV writes the standardized observation table consumed
// by the model fitter: one row per kept observation.
func WriteObservationsCSV(path string, obs []types.CorrectedObservation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"hjd", "mag", "mag_err", "airmass", "band"}); err != nil {
		return err
	}
	for _, o := range obs {
		rec := []string{
			fmt.Sprintf("%.6f", o.HJD),
			fmt.Sprintf("%.4f", o.Magnitude),
			fmt.Sprintf("%.4f", o.MagErr),
			fmt.Sprintf("%.3f", o.Airmass),
			o.Band,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
