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

	"github.com/ctessum/unit"
)

const (
	secondsPerDay = 86400.
	nmolPerMol    = 1.e9
	litersPerM3   = 1000.
	mLPerL        = 1000.
	umPerM        = 1.e6
	umolPerMol    = 1.e6
)

// DerivedTerms are intermediate values shared by every model formula.
type DerivedTerms struct {
	CellRadius       float64 `desc:"Cell radius" units:"m"`
	CellVolume       float64 `desc:"Volume of an individual cell" units:"L/cell"`
	CarbonPerCell    float64 `desc:"Moles of carbon per individual cell" units:"mol C/cell"`
	DissociationRate float64 `desc:"Effective FeEDTA dissociation rate" units:"1/s"`
	MaxUptakeRate    float64 `desc:"Maximum per-cell iron uptake rate" units:"L/s"`
}

// moleDim is the dimension representing an amount of substance.
var moleDim = unit.NewDimension("mol")

var (
	liter          = unit.New(1/litersPerM3, unit.Meter3)
	molePerMeter3  = unit.Dimensions{moleDim: 1, unit.LengthDim: -3}
	moleDimensions = unit.Dimensions{moleDim: 1}
)

// derive calculates the derived terms. The inputs and constants are
// assumed to have been validated.
func derive(in Inputs, c Constants) (DerivedTerms, error) {
	r := unit.New(in.CellDiameter/umPerM/2, unit.Meter)

	vol := unit.Mul(unit.New(4./3.*math.Pi, unit.Dimless), r, r, r)
	if err := vol.Check(unit.Meter3); err != nil {
		return DerivedTerms{}, err
	}
	area := unit.Mul(unit.New(4*math.Pi, unit.Dimless), r, r)
	if err := area.Check(unit.Meter2); err != nil {
		return DerivedTerms{}, err
	}

	// Cell volume in liters.
	volL := unit.Div(vol, liter)
	if err := volL.Check(unit.Dimless); err != nil {
		return DerivedTerms{}, err
	}

	// CarbonPerCellVolume is given per liter of cell volume.
	carbonDensity := unit.New(c.CarbonPerCellVolume*litersPerM3, molePerMeter3)
	carbon := unit.Mul(vol, carbonDensity)
	if err := carbon.Check(moleDimensions); err != nil {
		return DerivedTerms{}, err
	}

	d := DerivedTerms{
		CellRadius:    r.Value(),
		CellVolume:    volL.Value(),
		CarbonPerCell: carbon.Value(),
	}
	d.DissociationRate = c.DarkDissociationRate +
		c.PhotoDissociationRate*(in.LightIntensity/c.ReferenceLightIntensity)*(in.HoursOfLight/24)
	d.MaxUptakeRate = area.Value() * c.MaxUptakeFlux / (secondsPerDay * nmolPerMol)
	return d, nil
}
