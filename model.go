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
	"fmt"
	"math"
)

// Outputs holds the results of a model calculation along with the
// inputs, constants and derived terms they were calculated from.
type Outputs struct {
	Inputs    Inputs
	Constants Constants
	Derived   DerivedTerms

	AmbientFreeIron    float64 `desc:"Abiotic free iron concentration" units:"mol/L"`
	FailureFreeIron    float64 `desc:"Free iron concentration at buffer failure" units:"mol/L"`
	FailureCellDensity float64 `desc:"Cell density at buffer failure" units:"cells/L"`
	FailureBiomass     float64 `desc:"Biomass at buffer failure" units:"μmol C/L"`

	// BiomassCurve is free iron [pmol/L] as a function of
	// biomass [μmol C/L].
	BiomassCurve Curve

	// DensityCurve is free iron [pmol/L] as a function of
	// cell density [cells/mL].
	DensityCurve Curve

	// OutOfRangeWarning is true when AmbientFreeIron exceeds
	// Constants.SolubilityLimit. The results are still calculated,
	// but they exceed the measured solubility of inorganic iron.
	OutOfRangeWarning bool
}

// FailureCellDensityPerML returns the cell density at buffer
// failure in cells/mL.
func (o *Outputs) FailureCellDensityPerML() float64 {
	return o.FailureCellDensity / mLPerL
}

// Calculate runs the buffering model. Inputs and constants are
// validated before any calculation takes place; a validation problem
// is returned as an *InvalidInputError. A *DegenerateModelError is
// returned when valid inputs combine to give a zero denominator or
// a result that is not finite.
func Calculate(in Inputs, c Constants) (*Outputs, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	d, err := derive(in, c)
	if err != nil {
		return nil, err
	}

	if in.FreeEDTA*c.FormationRate == 0 {
		return nil, &DegenerateModelError{Term: "FreeEDTA × FormationRate is zero"}
	}

	o := &Outputs{
		Inputs:    in,
		Constants: c,
		Derived:   d,
	}
	o.AmbientFreeIron = (d.DissociationRate * in.ChelatedFe) / (c.FormationRate * in.FreeEDTA)
	o.FailureFreeIron = (1 - c.FailureFraction) * o.AmbientFreeIron
	o.OutOfRangeWarning = o.AmbientFreeIron > c.SolubilityLimit

	if o.FailureFreeIron*d.MaxUptakeRate == 0 {
		return nil, &DegenerateModelError{Term: "failure free iron × MaxUptakeRate is zero"}
	}

	s := newSteadyState(in, c, d)
	o.FailureCellDensity = s.failureDensity(o.FailureFreeIron)
	o.FailureBiomass = o.FailureCellDensity * d.CarbonPerCell * umolPerMol

	maxDensity := c.MaxBiomass / d.CarbonPerCell
	if !(maxDensity > 1) {
		return nil, &DegenerateModelError{Term: "MaxBiomass is less than the carbon content of one cell"}
	}
	if math.IsInf(maxDensity, 0) {
		return nil, &DegenerateModelError{Term: "carbon content of one cell is zero"}
	}
	o.BiomassCurve = s.biomassCurve(maxDensity, d.CarbonPerCell, c.Resolution)
	o.DensityCurve = s.densityCurve(maxDensity, c.Resolution)
	if err := o.checkFinite(); err != nil {
		return nil, err
	}
	return o, nil
}

// checkFinite returns a *DegenerateModelError if any result
// overflowed or is not a number.
func (o *Outputs) checkFinite() error {
	scalars := []struct {
		name string
		v    float64
	}{
		{"AmbientFreeIron", o.AmbientFreeIron},
		{"FailureFreeIron", o.FailureFreeIron},
		{"FailureCellDensity", o.FailureCellDensity},
		{"FailureBiomass", o.FailureBiomass},
	}
	for _, s := range scalars {
		if !finite(s.v) {
			return &DegenerateModelError{Term: fmt.Sprintf("%s is not finite (%g)", s.name, s.v)}
		}
	}
	curves := []struct {
		name string
		c    Curve
	}{
		{"BiomassCurve", o.BiomassCurve},
		{"DensityCurve", o.DensityCurve},
	}
	for _, cv := range curves {
		for i := range cv.c.X {
			if !finite(cv.c.X[i]) || !finite(cv.c.Y[i]) {
				return &DegenerateModelError{Term: fmt.Sprintf("%s point %d is not finite", cv.name, i)}
			}
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
