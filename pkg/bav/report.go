package bav

import (
	"fmt"
	"io"
	"os"

	"github.com/avollmer/starpipe/internal/summary"
	"github.com/avollmer/starpipe/internal/types"
	"github.com/avollmer/starpipe/pkg/astro"
)

// WriteReport writes the full per-run BAV report: the event block followed
// by the posterior parameter table.
func WriteReport(w io.Writer, rec types.ReportRecord, params []summary.ParamSummary) error {
	constName := rec.Constellation
	if full, ok := astro.ConstellationName(rec.Constellation); ok {
		constName = full
	}

	fmt.Fprintf(w, "BAV Report - %s (%s)\n", rec.StarName, constName)
	fmt.Fprintf(w, "Run:       %s\n", rec.RunID)
	fmt.Fprintf(w, "Generated: %s\n", rec.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(w, "Method:    %s\n", rec.Method)
	fmt.Fprintf(w, "Observer:  %s\n", rec.ObserverCode)
	fmt.Fprintf(w, "Filter:    %s\n", rec.Band)
	fmt.Fprintf(w, "Points:    %d\n", rec.Points)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Event")
	fmt.Fprintf(w, "  Kind:      %s\n", rec.EventKind)
	fmt.Fprintf(w, "  HJD:       %.5f +/- %.5f\n", rec.EventHJD, rec.EventHJDErr)
	fmt.Fprintf(w, "  Amplitude: %.3f +/- %.3f mag\n", rec.Amplitude, rec.AmplitudeErr)
	if rec.PeriodDays > 0 {
		fmt.Fprintf(w, "  Period:    %.6f +/- %.6f d\n", rec.PeriodDays, rec.PeriodErr)
	}
	fmt.Fprintln(w)

	if len(params) == 0 {
		return nil
	}

	fmt.Fprintln(w, "Parameters (median, 68% credible interval)")
	for _, p := range params {
		fmt.Fprintf(w, "  %-12s %12.6g  [%12.6g, %12.6g]  Rhat=%.3f ESS=%.0f\n",
			p.Name, p.Median, p.CI68[0], p.CI68[1], p.Rhat, p.ESS)
	}
	return nil
}

// WriteReportFile writes the report to a file, creating or truncating it.
func WriteReportFile(path string, rec types.ReportRecord, params []summary.ParamSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return WriteReport(f, rec, params)
}
