package app

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avollmer/starpipe/internal/archive"
	"github.com/avollmer/starpipe/internal/log"
	"github.com/avollmer/starpipe/pkg/config"
)

const (
	testPeriod = 0.5
	testEpoch  = 2460000.0
	testMean   = 7.1
	testAmp    = 0.25
)

// writeTestReport writes an AAVSO Extended Format report with a noisy
// sinusoidal pulsator sampled over three nights.
func writeTestReport(t *testing.T, path string) {
	t.Helper()

	var b strings.Builder
	b.WriteString("#TYPE=EXTENDED\n")
	b.WriteString("#OBSCODE=VOLA\n")
	b.WriteString("#SOFTWARE=starpipe-test\n")
	b.WriteString("#DELIM=,\n")
	b.WriteString("#DATE=HJD\n")
	b.WriteString("#OBSTYPE=CCD\n")

	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 120; i++ {
		hjd := testEpoch + 3.0*float64(i)/120.0
		mag := testMean + testAmp*math.Sin(2*math.Pi*(hjd-testEpoch)/testPeriod)
		mag += 0.01 * rng.NormFloat64()
		fmt.Fprintf(&b, "RR LYR,%.6f,%.4f,0.010,V,NO,STD,na,na,na,na,1.20,na,na,na\n", hjd, mag)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func writeTestConfig(t *testing.T, dir, reportPath string) string {
	t.Helper()

	cfg := fmt.Sprintf(`observer:
  code: VOLA
  latitude: 48.137
  longitude: 11.575
reports:
  - %s
targets:
  - name: RR Lyr
    type: pulsation
    period: 0.5
    epoch: 2460000.0
    harmonics: 2
    event: max
    ra: 291.36631411
    dec: 42.78435465
sampler:
  walkers: 16
  steps: 400
  burn-in: 100
  seed: 42
output:
  directory: %s
archive:
  sqlite:
    path: %s
`, reportPath, filepath.Join(dir, "out"), filepath.Join(dir, "archive.db"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestPipelineEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pipeline run in short mode")
	}
	if err := log.Init(true); err != nil {
		t.Fatalf("log.Init: %v", err)
	}

	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.txt")
	writeTestReport(t, reportPath)
	cfgPath := writeTestConfig(t, dir, reportPath)

	provider := config.NewYAMLProvider(cfgPath)
	defer provider.Close()

	a := New(provider, log.GetSugaredLogger())
	if err := a.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	outDir := filepath.Join(dir, "out", "RR_LYR")
	for _, name := range []string{
		"lc_obs.csv", "lc_synth.csv", "uncertainties.csv",
		"minimax.txt", "report.txt",
		"lightcurve.png", "lightcurve.pdf", "phased.png",
		"RR_LYR_chains.msgpack",
	} {
		fi, err := os.Stat(filepath.Join(outDir, name))
		if err != nil {
			t.Errorf("missing output %s: %v", name, err)
			continue
		}
		if fi.Size() == 0 {
			t.Errorf("output %s is empty", name)
		}
	}

	store, err := archive.NewSQLiteStore(filepath.Join(dir, "archive.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d archived runs, want 1", len(runs))
	}
	run := runs[0]
	if run.StarName != "RR Lyr" || run.Constellation != "Lyr" {
		t.Errorf("archived star = %q/%q", run.StarName, run.Constellation)
	}
	if run.EventKind != "max" {
		t.Errorf("event kind = %q, want max", run.EventKind)
	}
	if math.Abs(run.PeriodDays-testPeriod) > 0.01 {
		t.Errorf("recovered period = %.5f, want %.5f within 0.01", run.PeriodDays, testPeriod)
	}
	if math.Abs(run.Amplitude-2*testAmp) > 0.1 {
		t.Errorf("recovered amplitude = %.3f, want %.3f within 0.1", run.Amplitude, 2*testAmp)
	}
	if run.Points < 100 {
		t.Errorf("points = %d, want most of the 120 kept", run.Points)
	}

	mm, err := os.ReadFile(filepath.Join(outDir, "minimax.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(mm), "RR Lyr;Lyr;max;") {
		t.Errorf("minimax.txt missing record line:\n%s", mm)
	}

	// A second run reuses the chain cache and archives a second entry.
	if err := a.Run(context.Background(), RunOptions{Star: "rr lyr"}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	runs, err = store.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("got %d archived runs after rerun, want 2", len(runs))
	}
}

func TestRunUnknownStar(t *testing.T) {
	if err := log.Init(true); err != nil {
		t.Fatalf("log.Init: %v", err)
	}

	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.txt")
	writeTestReport(t, reportPath)
	cfgPath := writeTestConfig(t, dir, reportPath)

	a := New(config.NewYAMLProvider(cfgPath), log.GetSugaredLogger())
	err := a.Run(context.Background(), RunOptions{Star: "W UMa"})
	if err == nil || !strings.Contains(err.Error(), "not a configured target") {
		t.Errorf("err = %v, want unknown-target error", err)
	}
}

func TestStarDirName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"RR Lyr", "RR_LYR"},
		{"  rr   lyr ", "RR_LYR"},
		{"V838 Mon", "V838_MON"},
	}
	for _, tt := range tests {
		if got := starDirName(tt.in); got != tt.want {
			t.Errorf("starDirName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildModelErrors(t *testing.T) {
	if _, err := buildModel(config.TargetData{Type: "nova"}, nil); err == nil {
		t.Error("unknown model type accepted")
	}
	if _, err := buildModel(config.TargetData{Type: "pulsation"}, nil); err == nil {
		t.Error("pulsation without trial period accepted")
	}
}
