// Package bav formats analysis results into the text files submitted to
// the BAV (Bundesdeutsche Arbeitsgemeinschaft für Veränderliche Sterne):
// the MiniMax extremum-timing record and the fuller per-run report.
package bav

import (
	"fmt"
	"io"
	"os"

	"github.com/avollmer/starpipe/internal/types"
)

// WriteMiniMax writes one extremum-timing record per line in the MiniMax
// layout: semicolon-separated fixed-order fields with a commented header.
func WriteMiniMax(w io.Writer, records []types.ReportRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to write")
	}

	if _, err := fmt.Fprintln(w, "# BAV MiniMax"); err != nil {
		return err
	}
	fmt.Fprintf(w, "# generated %s\n", records[0].GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintln(w, "#NAME;CONST;KIND;EPOCH_HJD;EPOCH_ERR_D;AMPL_MAG;PERIOD_D;FILTER;OBSCODE;POINTS;METHOD")

	for _, rec := range records {
		if _, err := fmt.Fprintln(w, FormatMiniMaxRecord(rec)); err != nil {
			return err
		}
	}
	return nil
}

// FormatMiniMaxRecord renders one record as a MiniMax line.
func FormatMiniMaxRecord(rec types.ReportRecord) string {
	return fmt.Sprintf("%s;%s;%s;%.5f;%.5f;%.3f;%.6f;%s;%s;%d;%s",
		rec.StarName,
		rec.Constellation,
		rec.EventKind,
		rec.EventHJD,
		rec.EventHJDErr,
		rec.Amplitude,
		rec.PeriodDays,
		rec.Band,
		rec.ObserverCode,
		rec.Points,
		rec.Method,
	)
}

// WriteMiniMaxFile writes records to a file, creating or truncating it.
func WriteMiniMaxFile(path string, records []types.ReportRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return WriteMiniMax(f, records)
}
