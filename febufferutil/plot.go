/*
Copyright © 2026 the FeBuffer authors.
This file is part of FeBuffer.

FeBuffer is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FeBuffer is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FeBuffer.  If not, see <http://www.gnu.org/licenses/>.
*/

package febufferutil

import (
	"fmt"
	"image/color"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/febuffer"
	"github.com/spf13/cast"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// biomassTicks are the free iron ticks of the biomass chart, in pmol/L.
var biomassTicks = []float64{1, 3, 10, 30, 100, 300, 1000}

// Plotter is a Sink that draws charts of the free iron curves.
type Plotter struct {
	// BiomassFile and DensityFile are where the charts of free iron
	// versus biomass and versus cell density are saved. The format
	// is determined by the file extension. Empty names are skipped.
	BiomassFile, DensityFile string

	// Width and Height are the dimensions of each chart.
	Width, Height vg.Length

	// Open specifies whether to open the saved charts with the
	// default viewer.
	Open bool

	Log logrus.FieldLogger
}

// PlotterFromConfig returns a Plotter configured by cfg.
func PlotterFromConfig(cfg *viper.Viper) (*Plotter, error) {
	w, err := cast.ToFloat64E(cfg.Get("PlotWidth"))
	if err != nil {
		return nil, fmt.Errorf("febuffer: configuration variable PlotWidth: %w", err)
	}
	h, err := cast.ToFloat64E(cfg.Get("PlotHeight"))
	if err != nil {
		return nil, fmt.Errorf("febuffer: configuration variable PlotHeight: %w", err)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("febuffer: plot dimensions must be positive, not %g×%g inches", w, h)
	}
	return &Plotter{
		BiomassFile: os.ExpandEnv(cfg.GetString("BiomassPlotFile")),
		DensityFile: os.ExpandEnv(cfg.GetString("DensityPlotFile")),
		Width:       vg.Length(w) * vg.Inch,
		Height:      vg.Length(h) * vg.Inch,
		Open:        cfg.GetBool("open"),
	}, nil
}

// Present draws and saves the charts.
func (p *Plotter) Present(o *febuffer.Outputs) error {
	charts := []struct {
		file string
		f    func(*febuffer.Outputs) (*plot.Plot, error)
	}{
		{p.BiomassFile, BiomassChart},
		{p.DensityFile, DensityChart},
	}
	for _, c := range charts {
		if c.file == "" {
			continue
		}
		plt, err := c.f(o)
		if err != nil {
			return err
		}
		if err := plt.Save(p.Width, p.Height, c.file); err != nil {
			return fmt.Errorf("febuffer: saving chart: %w", err)
		}
		if p.Log != nil {
			p.Log.WithField("file", c.file).Info("saved chart")
		}
		if p.Open {
			if err := open.Run(c.file); err != nil {
				return fmt.Errorf("febuffer: opening chart: %w", err)
			}
		}
	}
	return nil
}

// BiomassChart draws free iron as a function of biomass on a logarithmic
// free iron axis.
func BiomassChart(o *febuffer.Outputs) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	p.Title.Text = "Free iron vs. biomass"
	p.X.Label.Text = "Biomass (μmol C/L)"
	p.Y.Label.Text = "Fe' (pmol/L)"

	cv := o.BiomassCurve
	l, err := plotter.NewLine(cv)
	if err != nil {
		return nil, err
	}
	p.Add(l)
	if logScaleOK(cv.Y) {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.ConstantTicks(ticks(biomassTicks))
		p.Y.Min, p.Y.Max = bracket(biomassTicks, p.Y.Min, p.Y.Max)
	}
	if err := addFailureMarker(p, o.FailureBiomass, floats.Min(cv.Y), floats.Max(cv.Y), false); err != nil {
		return nil, err
	}
	return p, nil
}

// DensityChart draws free iron as a function of cell density on a
// logarithmic cell density axis.
func DensityChart(o *febuffer.Outputs) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	p.Title.Text = "Free iron vs. cell density"
	p.X.Label.Text = "Cell density (cells/mL)"
	p.Y.Label.Text = "Fe' (pmol/L)"

	cv := o.DensityCurve
	l, err := plotter.NewLine(cv)
	if err != nil {
		return nil, err
	}
	p.Add(l)
	logX := logScaleOK(cv.X)
	if logX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{}
	}
	if err := addFailureMarker(p, o.FailureCellDensityPerML(), 0, floats.Max(cv.Y), logX); err != nil {
		return nil, err
	}
	p.Y.Min = 0
	return p, nil
}

// addFailureMarker draws a dashed vertical line at x between y0 and y1.
// Nothing is drawn if x cannot be shown on a logarithmic axis.
func addFailureMarker(p *plot.Plot, x, y0, y1 float64, logX bool) error {
	if logX && !(x > 0) {
		return nil
	}
	l, err := plotter.NewLine(plotter.XYs{{X: x, Y: y0}, {X: x, Y: y1}})
	if err != nil {
		return err
	}
	l.Color = color.Gray{Y: 0x99}
	l.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(l)
	p.Legend.Add("buffer failure", l)
	return nil
}

// logScaleOK returns whether all values in v can be drawn on a
// logarithmic axis.
func logScaleOK(v []float64) bool {
	if len(v) == 0 {
		return false
	}
	return floats.Min(v) > 0
}

// bracket widens [min, max] to the nearest enclosing values in ticks,
// which must be sorted, so that the axis has labels at both ends.
func bracket(ticks []float64, min, max float64) (float64, float64) {
	lo, hi := min, max
	for _, t := range ticks {
		if t <= min {
			lo = t
		}
	}
	for i := len(ticks) - 1; i >= 0; i-- {
		if ticks[i] >= max {
			hi = ticks[i]
		}
	}
	return lo, hi
}

func ticks(values []float64) []plot.Tick {
	t := make([]plot.Tick, len(values))
	for i, v := range values {
		t[i] = plot.Tick{Value: v, Label: fmt.Sprint(v)}
	}
	return t
}
