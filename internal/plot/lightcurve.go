// Package plot renders publication light-curve figures: the observed
// series with the posterior-median model overlay, and phase-folded curves
// for pulsation fits. Magnitude axes are inverted in the astronomical
// convention (brighter is up).
package plot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/avollmer/starpipe/internal/types"
)

var (
	obsColor   = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	modelColor = color.RGBA{R: 204, G: 51, B: 51, A: 255}
)

// obsPoints adapts corrected observations to the plotter interfaces,
// including symmetric magnitude error bars.
type obsPoints []types.CorrectedObservation

func (o obsPoints) Len() int { return len(o) }

func (o obsPoints) XY(i int) (float64, float64) { return o[i].HJD, o[i].Magnitude }

func (o obsPoints) YError(i int) (float64, float64) { return o[i].MagErr, o[i].MagErr }

// LightCurve writes the unphased light curve with the model curve overlaid.
// The output format follows the file extension (.png or .pdf).
func LightCurve(path, title string, obs []types.CorrectedObservation, modelT, modelMag []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "HJD"
	p.Y.Label.Text = "magnitude"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	pts := obsPoints(obs)
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("building scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Color = obsColor
	p.Add(scatter)

	if bars, err := plotter.NewYErrorBars(pts); err == nil {
		bars.Color = obsColor
		p.Add(bars)
	}

	if len(modelT) > 0 {
		xys := make(plotter.XYs, len(modelT))
		for i := range modelT {
			xys[i].X = modelT[i]
			xys[i].Y = modelMag[i]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("building model line: %w", err)
		}
		line.LineStyle.Color = modelColor
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Phased writes a phase-folded light curve over two cycles with the model
// overlaid. Phasing uses phase = ((t - epoch)/period) mod 1.
func Phased(path, title string, obs []types.CorrectedObservation, modelMag func(phase float64) float64, period, epoch float64) error {
	if period <= 0 {
		return fmt.Errorf("phased plot needs a positive period")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "phase"
	p.Y.Label.Text = "magnitude"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.X.Min, p.X.Max = 0, 2

	// Each observation appears at its phase and again one cycle later.
	xys := make(plotter.XYs, 0, 2*len(obs))
	for _, o := range obs {
		phase := math.Mod((o.HJD-epoch)/period, 1)
		if phase < 0 {
			phase += 1
		}
		xys = append(xys, plotter.XY{X: phase, Y: o.Magnitude})
		xys = append(xys, plotter.XY{X: phase + 1, Y: o.Magnitude})
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("building scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Color = obsColor
	p.Add(scatter)

	if modelMag != nil {
		const gridN = 400
		line := make(plotter.XYs, gridN+1)
		for i := 0; i <= gridN; i++ {
			phase := 2 * float64(i) / gridN
			line[i].X = phase
			line[i].Y = modelMag(math.Mod(phase, 1))
		}
		l, err := plotter.NewLine(line)
		if err != nil {
			return fmt.Errorf("building model line: %w", err)
		}
		l.LineStyle.Color = modelColor
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
