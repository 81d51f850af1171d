package plot

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/avollmer/starpipe/internal/types"
)

func testObs() []types.CorrectedObservation {
	obs := make([]types.CorrectedObservation, 50)
	for i := range obs {
		t := 2460000.0 + float64(i)*0.01
		obs[i] = types.CorrectedObservation{
			Observation: types.Observation{
				Magnitude: 7.1 + 0.3*math.Cos(2*math.Pi*(t-2460000.0)/0.5),
				MagErr:    0.02,
			},
			HJD: t,
		}
	}
	return obs
}

func TestLightCurvePNG(t *testing.T) {
	obs := testObs()
	modelT := []float64{2460000.0, 2460000.25, 2460000.5}
	modelMag := []float64{7.4, 6.8, 7.4}

	path := filepath.Join(t.TempDir(), "lightcurve.png")
	if err := LightCurve(path, "RR Lyr", obs, modelT, modelMag); err != nil {
		t.Fatalf("LightCurve error: %v", err)
	}
	assertNonEmpty(t, path)
}

func TestLightCurvePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lightcurve.pdf")
	if err := LightCurve(path, "RR Lyr", testObs(), nil, nil); err != nil {
		t.Fatalf("LightCurve error: %v", err)
	}
	assertNonEmpty(t, path)
}

func TestPhased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phased.png")
	model := func(phase float64) float64 {
		return 7.1 + 0.3*math.Cos(2*math.Pi*phase)
	}
	if err := Phased(path, "RR Lyr phased", testObs(), model, 0.5, 2460000.0); err != nil {
		t.Fatalf("Phased error: %v", err)
	}
	assertNonEmpty(t, path)
}

func TestPhasedBadPeriod(t *testing.T) {
	if err := Phased("unused.png", "x", testObs(), nil, 0, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func assertNonEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output file is empty")
	}
}
