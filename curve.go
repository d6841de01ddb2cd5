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

	"gonum.org/v1/gonum/floats"
)

// Picomolar converts mol/L to pmol/L.
const Picomolar = 1.e12

// Curve holds the free iron concentration [pmol/L] at a series of
// sample points. It satisfies the gonum.org/v1/plot/plotter.XYer
// interface.
type Curve struct {
	X, Y []float64
}

// Len returns the number of points in the curve.
func (c Curve) Len() int { return len(c.X) }

// XY returns the coordinates of point i.
func (c Curve) XY(i int) (x, y float64) { return c.X[i], c.Y[i] }

// steadyState solves the iron mass balance for the free iron
// concentration at a given cell density.
type steadyState struct {
	k, e, f, fe, d, rho float64
}

func newSteadyState(in Inputs, c Constants, d DerivedTerms) steadyState {
	return steadyState{
		k:   c.UptakeHalfSaturation,
		e:   in.FreeEDTA,
		f:   c.FormationRate,
		fe:  in.ChelatedFe,
		d:   d.DissociationRate,
		rho: d.MaxUptakeRate,
	}
}

// freeIron returns the steady-state free iron concentration [mol/L]
// at cell density n [cells/L]. It is the positive root of
//
//	E·F·x² + (K·E·F - Fe·D + N·ρ)·x - K·Fe·D = 0.
//
// When the linear coefficient is non-negative the root is computed in
// rationalized form to avoid cancellation.
func (s steadyState) freeIron(n float64) float64 {
	ef := s.e * s.f
	b := s.k*ef - s.fe*s.d + n*s.rho
	c := 4 * s.k * ef * s.fe * s.d
	root := math.Sqrt(b*b + c)
	if b >= 0 {
		if c == 0 {
			return 0
		}
		return c / (2 * ef * (b + root))
	}
	return -0.5 * (b - root) / ef
}

// failureDensity returns the cell density [cells/L] at which the
// steady-state free iron concentration equals x [mol/L].
func (s steadyState) failureDensity(x float64) float64 {
	return -(s.e*x*x*s.f - x*s.fe*s.d + (s.e*x*s.f-s.fe*s.d)*s.k) / (x * s.rho)
}

// curve evaluates the free iron concentration in pmol/L at each
// cell density in n. x holds the corresponding curve coordinates.
func (s steadyState) curve(x, n []float64) Curve {
	y := make([]float64, len(n))
	for i, ni := range n {
		y[i] = s.freeIron(ni)
	}
	floats.Scale(Picomolar, y)
	return Curve{X: x, Y: y}
}

// biomassCurve returns free iron as a function of biomass [μmol C/L],
// sampled at resolution evenly spaced cell densities from zero up to
// (but not including) maxDensity.
func (s steadyState) biomassCurve(maxDensity, carbonPerCell float64, resolution int) Curve {
	step := maxDensity / float64(resolution)
	n := floats.Span(make([]float64, resolution), 0, step*float64(resolution-1))
	x := make([]float64, resolution)
	copy(x, n)
	floats.Scale(carbonPerCell*umolPerMol, x)
	return s.curve(x, n)
}

// densityCurve returns free iron as a function of cell density [cells/mL],
// sampled at resolution logarithmically spaced densities from one cell per
// liter up to (but not including) maxDensity.
func (s steadyState) densityCurve(maxDensity float64, resolution int) Curve {
	lnStep := math.Log(maxDensity) / float64(resolution)
	n := floats.Span(make([]float64, resolution), 0, lnStep*float64(resolution-1))
	for i, v := range n {
		n[i] = math.Exp(v)
	}
	x := make([]float64, resolution)
	copy(x, n)
	floats.Scale(1/mLPerL, x)
	return s.curve(x, n)
}
