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

package febuffer

import (
	"math"
	"testing"

	"github.com/GaryBoone/GoStats/stats"
	"gonum.org/v1/gonum/floats"
)

// curveInputs covers small and large cells in the dark and in bright light.
var curveInputs = []Inputs{
	{CellDiameter: 5, FreeEDTA: 1e-4, ChelatedFe: 1e-7, LightIntensity: 150, HoursOfLight: 12},
	{CellDiameter: 1, FreeEDTA: 1e-5, ChelatedFe: 1e-6, LightIntensity: 500, HoursOfLight: 24},
	{CellDiameter: 20, FreeEDTA: 1e-3, ChelatedFe: 1e-8, LightIntensity: 0, HoursOfLight: 0},
	{CellDiameter: 60, FreeEDTA: 5e-5, ChelatedFe: 5e-7, LightIntensity: 80, HoursOfLight: 16},
}

func TestCurveLength(t *testing.T) {
	for _, res := range []int{2, 10, 50, 200} {
		c := DefaultConstants()
		c.Resolution = res
		o, err := Calculate(exampleInputs(), c)
		if err != nil {
			t.Fatal(err)
		}
		for name, cv := range map[string]Curve{"biomass": o.BiomassCurve, "density": o.DensityCurve} {
			if cv.Len() != res || len(cv.Y) != res {
				t.Errorf("%s resolution %d: have %d points", name, res, cv.Len())
			}
		}
	}
}

func TestCurvesMonotonic(t *testing.T) {
	for _, in := range curveInputs {
		o, err := Calculate(in, DefaultConstants())
		if err != nil {
			t.Fatal(err)
		}
		for name, cv := range map[string]Curve{"biomass": o.BiomassCurve, "density": o.DensityCurve} {
			for i := 1; i < cv.Len(); i++ {
				if cv.X[i] <= cv.X[i-1] {
					t.Errorf("%+v %s: x[%d]=%g is not > x[%d]=%g", in, name, i, cv.X[i], i-1, cv.X[i-1])
				}
				if cv.Y[i] > cv.Y[i-1] {
					t.Errorf("%+v %s: y[%d]=%g > y[%d]=%g", in, name, i, cv.Y[i], i-1, cv.Y[i-1])
				}
			}
		}
	}
}

func TestCurveStartsAtAbioticEquilibrium(t *testing.T) {
	o, err := Calculate(exampleInputs(), DefaultConstants())
	if err != nil {
		t.Fatal(err)
	}
	want := o.AmbientFreeIron * Picomolar
	if different(o.BiomassCurve.Y[0], want, 1e-12) {
		t.Errorf("have %g, want %g", o.BiomassCurve.Y[0], want)
	}
	if o.BiomassCurve.X[0] != 0 {
		t.Errorf("biomass curve should start at zero, not %g", o.BiomassCurve.X[0])
	}
	if o.DensityCurve.X[0] != 1/mLPerL {
		t.Errorf("density curve should start at one cell per liter, not %g cells/mL", o.DensityCurve.X[0])
	}
}

func TestBiomassCurveSpacing(t *testing.T) {
	o, err := Calculate(exampleInputs(), DefaultConstants())
	if err != nil {
		t.Fatal(err)
	}
	cv := o.BiomassCurve
	step := cv.X[1] - cv.X[0]
	for i := 2; i < cv.Len(); i++ {
		if !floats.EqualWithinRel(cv.X[i]-cv.X[i-1], step, 1e-9) {
			t.Errorf("step %d: have %g, want %g", i, cv.X[i]-cv.X[i-1], step)
		}
	}
	max := o.Constants.MaxBiomass * umolPerMol
	if want := max * float64(cv.Len()-1) / float64(cv.Len()); different(floats.Max(cv.X), want, testTolerance) {
		t.Errorf("maximum biomass: have %g, want %g", floats.Max(cv.X), want)
	}
}

func TestDensityCurveSpacing(t *testing.T) {
	o, err := Calculate(exampleInputs(), DefaultConstants())
	if err != nil {
		t.Fatal(err)
	}
	cv := o.DensityCurve
	i := make([]float64, cv.Len())
	lnx := make([]float64, cv.Len())
	for j := range i {
		i[j] = float64(j)
		lnx[j] = math.Log(cv.X[j])
	}
	slope, _, r2, _, _, _ := stats.LinearRegression(i, lnx)
	if r2 < 1-1e-12 {
		t.Errorf("density curve is not log-spaced: r² = %g", r2)
	}
	maxDensity := o.Constants.MaxBiomass / o.Derived.CarbonPerCell
	if want := math.Log(maxDensity) / float64(cv.Len()); different(slope, want, testTolerance) {
		t.Errorf("log step: have %g, want %g", slope, want)
	}
	ratio := cv.X[1] / cv.X[0]
	for j := 2; j < cv.Len(); j++ {
		if !floats.EqualWithinRel(cv.X[j]/cv.X[j-1], ratio, 1e-9) {
			t.Errorf("ratio %d: have %g, want %g", j, cv.X[j]/cv.X[j-1], ratio)
		}
	}
}

// The rationalized root must agree with the quadratic formula as published.
func TestFreeIronRationalized(t *testing.T) {
	published := func(s steadyState, n float64) float64 {
		k, e, f, fe, d, rho := s.k, s.e, s.f, s.fe, s.d, s.rho
		return -(1. / 2.) * (k*e*f - fe*d + n*rho - math.Sqrt(math.Pow(k, 2)*math.Pow(e, 2)*math.Pow(f, 2)+
			2*k*e*fe*d*f+math.Pow(fe, 2)*math.Pow(d, 2)+math.Pow(n, 2)*math.Pow(rho, 2)+
			2*(k*e*f-fe*d)*n*rho)) / (e * f)
	}
	for _, in := range curveInputs {
		c := DefaultConstants()
		dt, err := derive(in, c)
		if err != nil {
			t.Fatal(err)
		}
		s := newSteadyState(in, c, dt)
		for _, n := range []float64{0, 1, 1e3, 1e6, 1e8, 1e9} {
			have, want := s.freeIron(n), published(s, n)
			if different(have, want, 1e-7) {
				t.Errorf("%+v, N=%g: have %g, want %g", in, n, have, want)
			}
		}
	}
}

func TestFreeIronNoHalfSaturation(t *testing.T) {
	s := steadyState{k: 0, e: 1e-4, f: 17, fe: 1e-7, d: 2e-6, rho: 1e-21}
	want := (s.fe*s.d - 1e6*s.rho) / (s.e * s.f)
	if have := s.freeIron(1e6); different(have, want, 1e-12) {
		t.Errorf("have %g, want %g", have, want)
	}
	if have := s.freeIron(1e9); have != 0 {
		t.Errorf("free iron should be exhausted, have %g", have)
	}
}

func TestCurveXYer(t *testing.T) {
	cv := Curve{X: []float64{1, 2, 3}, Y: []float64{30, 20, 10}}
	if cv.Len() != 3 {
		t.Errorf("have %d, want 3", cv.Len())
	}
	x, y := cv.XY(1)
	if x != 2 || y != 20 {
		t.Errorf("have (%g, %g), want (2, 20)", x, y)
	}
}
