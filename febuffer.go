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

// Package febuffer estimates how well an EDTA-chelated culture medium buffers
// the free iron concentration available to phytoplankton, and at what cell
// density or biomass cellular iron uptake overwhelms that buffer.
//
// The model is the steady-state solution of Rivers, Rose & Webb (2013),
// An online calculator for marine phytoplankton iron culturing experiments,
// Journal of Phycology 49(5) 1017-1021.
package febuffer

import (
	"fmt"
	"math"
)

// Version gives the version number.
const Version = "1.0.0"

// MaxResolution is the largest allowed number of points per curve.
const MaxResolution = 1000000

// Inputs are the user-supplied culture conditions.
type Inputs struct {
	CellDiameter   float64 `desc:"Phytoplankton cell diameter" units:"μm"`
	FreeEDTA       float64 `desc:"EDTA not chelated to Fe" units:"mol/L"`
	ChelatedFe     float64 `desc:"Fe chelated to EDTA" units:"mol/L"`
	LightIntensity float64 `desc:"Light intensity" units:"μE/m²/s"`
	HoursOfLight   float64 `desc:"Hours of light per day" units:"h/day"`
}

// Constants holds the physical and biological constants of the model
// along with the settings that control curve generation and the definition
// of buffer failure.
type Constants struct {
	// DarkDissociationRate is the FeEDTA dark dissociation rate
	// constant at 20°C (Sunda 2003) [1/s].
	DarkDissociationRate float64

	// PhotoDissociationRate is the FeEDTA photo-oxidation rate
	// constant at 20°C and ReferenceLightIntensity (Sunda 2003) [1/s].
	PhotoDissociationRate float64

	// ReferenceLightIntensity is the light intensity at which
	// PhotoDissociationRate was measured [μE/m²/s].
	ReferenceLightIntensity float64

	// FormationRate is the FeEDTA formation rate constant [L/mol/s].
	FormationRate float64

	// CarbonPerCellVolume is an estimate of moles of carbon per liter
	// of cell volume (Sunda 2005) [mol C/L].
	CarbonPerCellVolume float64

	// MaxUptakeFlux is the maximum iron uptake flux per unit of cell
	// surface area (Sunda and Huntsman 1997) [nmol/m²/day].
	MaxUptakeFlux float64

	// UptakeHalfSaturation is the uptake half-saturation constant [mol/L].
	UptakeHalfSaturation float64

	// Resolution is the number of points in each generated curve.
	// It must be between 2 and MaxResolution.
	Resolution int

	// MaxBiomass is the maximum biomass to include in the
	// generated curves [mol C/L].
	MaxBiomass float64

	// FailureFraction is the fractional decrease from the abiotic free
	// iron concentration that is considered buffer failure; e.g.,
	// 0.1 is a 10% decrease.
	FailureFraction float64

	// SolubilityLimit is the free iron concentration above which
	// results exceed the solubility limit measured by
	// Liu and Millero (2002) [mol/L].
	SolubilityLimit float64
}

// DefaultConstants returns the constants used by the published calculator.
func DefaultConstants() Constants {
	return Constants{
		DarkDissociationRate:    1.72e-6,
		PhotoDissociationRate:   4.3e-6,
		ReferenceLightIntensity: 500,
		FormationRate:           17,
		CarbonPerCellVolume:     15,
		MaxUptakeFlux:           1276,
		UptakeHalfSaturation:    5.1e-10,
		Resolution:              50,
		MaxBiomass:              0.0002,
		FailureFraction:         0.1,
		SolubilityLimit:         4e-10,
	}
}

// Validate checks that every input is a finite number within its domain.
func (in Inputs) Validate() error {
	checks := []struct {
		name   string
		v      float64
		ok     bool
		reason string
	}{
		{"CellDiameter", in.CellDiameter, in.CellDiameter > 0, "must be > 0"},
		{"FreeEDTA", in.FreeEDTA, in.FreeEDTA >= 0, "must be >= 0"},
		{"ChelatedFe", in.ChelatedFe, in.ChelatedFe >= 0, "must be >= 0"},
		{"LightIntensity", in.LightIntensity, in.LightIntensity >= 0, "must be >= 0"},
		{"HoursOfLight", in.HoursOfLight, in.HoursOfLight >= 0 && in.HoursOfLight <= 24, "must be between 0 and 24"},
	}
	for _, c := range checks {
		if err := checkValue(c.name, c.v, c.ok, c.reason); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the constants are usable by the model.
func (c Constants) Validate() error {
	checks := []struct {
		name   string
		v      float64
		ok     bool
		reason string
	}{
		{"Constants.DarkDissociationRate", c.DarkDissociationRate, c.DarkDissociationRate >= 0, "must be >= 0"},
		{"Constants.PhotoDissociationRate", c.PhotoDissociationRate, c.PhotoDissociationRate >= 0, "must be >= 0"},
		{"Constants.ReferenceLightIntensity", c.ReferenceLightIntensity, c.ReferenceLightIntensity > 0, "must be > 0"},
		{"Constants.FormationRate", c.FormationRate, c.FormationRate >= 0, "must be >= 0"},
		{"Constants.CarbonPerCellVolume", c.CarbonPerCellVolume, c.CarbonPerCellVolume > 0, "must be > 0"},
		{"Constants.MaxUptakeFlux", c.MaxUptakeFlux, c.MaxUptakeFlux >= 0, "must be >= 0"},
		{"Constants.UptakeHalfSaturation", c.UptakeHalfSaturation, c.UptakeHalfSaturation >= 0, "must be >= 0"},
		{"Constants.Resolution", float64(c.Resolution), c.Resolution >= 2 && c.Resolution <= MaxResolution, fmt.Sprintf("must be between 2 and %d", MaxResolution)},
		{"Constants.MaxBiomass", c.MaxBiomass, c.MaxBiomass > 0, "must be > 0"},
		{"Constants.FailureFraction", c.FailureFraction, c.FailureFraction >= 0 && c.FailureFraction < 1, "must be >= 0 and < 1"},
		{"Constants.SolubilityLimit", c.SolubilityLimit, c.SolubilityLimit >= 0, "must be >= 0"},
	}
	for _, ch := range checks {
		if err := checkValue(ch.name, ch.v, ch.ok, ch.reason); err != nil {
			return err
		}
	}
	return nil
}

// checkValue returns an *InvalidInputError if v is not finite or
// if ok is false.
func checkValue(name string, v float64, ok bool, reason string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidInputError{Field: name, Value: v, Reason: "must be a finite number"}
	}
	if !ok {
		return &InvalidInputError{Field: name, Value: v, Reason: reason}
	}
	return nil
}
