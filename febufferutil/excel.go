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
	"strconv"

	"github.com/spatialmodel/febuffer"
	"github.com/tealeg/xlsx"
)

// Spreadsheet is a Sink that saves the results to an .xlsx workbook with
// a Summary sheet of scalar results and Biomass and Density sheets
// holding the free iron curves.
type Spreadsheet struct {
	File string

	// Outputter, if not nil, specifies additional output variables
	// to be added to the Summary sheet.
	Outputter *febuffer.Outputter
}

// Present saves the workbook.
func (s *Spreadsheet) Present(o *febuffer.Outputs) error {
	f, err := Workbook(o, s.Outputter)
	if err != nil {
		return err
	}
	if err := f.Save(s.File); err != nil {
		return fmt.Errorf("febuffer: saving workbook: %w", err)
	}
	return nil
}

// Workbook creates a workbook holding the results in o.
func Workbook(o *febuffer.Outputs, outputter *febuffer.Outputter) (*xlsx.File, error) {
	f := xlsx.NewFile()
	summary, err := f.AddSheet("Summary")
	if err != nil {
		return nil, err
	}
	addStringRow(summary, "Variable", "Value", "Units", "Description")
	names, descriptions, units := febuffer.OutputOptions()
	vars := o.Variables()
	for i, n := range names {
		row := summary.AddRow()
		row.AddCell().SetString(n)
		row.AddCell().SetFloat(vars[n])
		row.AddCell().SetString(units[i])
		row.AddCell().SetString(descriptions[i])
	}
	addStringRow(summary, "OutOfRangeWarning", strconv.FormatBool(o.OutOfRangeWarning), "",
		"Abiotic free iron exceeds the solubility of inorganic iron")

	if outputter != nil {
		vals, err := outputter.Evaluate(o)
		if err != nil {
			return nil, err
		}
		for _, n := range outputter.Names() {
			row := summary.AddRow()
			row.AddCell().SetString(n)
			row.AddCell().SetFloat(vals[n])
			row.AddCell().SetString("")
			row.AddCell().SetString(outputter.Expression(n))
		}
	}

	curves := []struct {
		sheet, xLabel string
		c             febuffer.Curve
	}{
		{"Biomass", "Biomass (μmol C/L)", o.BiomassCurve},
		{"Density", "Cell density (cells/mL)", o.DensityCurve},
	}
	for _, cv := range curves {
		s, err := f.AddSheet(cv.sheet)
		if err != nil {
			return nil, err
		}
		addStringRow(s, cv.xLabel, "Free iron (pmol/L)")
		for i := 0; i < cv.c.Len(); i++ {
			x, y := cv.c.XY(i)
			row := s.AddRow()
			row.AddCell().SetFloat(x)
			row.AddCell().SetFloat(y)
		}
	}
	return f, nil
}

// batchWorkbook creates a workbook with one Summary row for each
// scenario result.
func batchWorkbook(results []ScenarioResult, outputter *febuffer.Outputter) (*xlsx.File, error) {
	f := xlsx.NewFile()
	s, err := f.AddSheet("Summary")
	if err != nil {
		return nil, err
	}
	header := []string{"Scenario", "CellDiameter", "FreeEDTA", "ChelatedFe", "LightIntensity",
		"HoursOfLight", "AmbientFreeIron", "FailureCellDensity (cells/mL)", "FailureBiomass",
		"OutOfRangeWarning"}
	var outNames []string
	if outputter != nil {
		outNames = outputter.Names()
	}
	header = append(header, outNames...)
	header = append(header, "Error")
	addStringRow(s, header...)

	for _, r := range results {
		row := s.AddRow()
		row.AddCell().SetString(r.Name)
		for _, v := range []float64{r.Inputs.CellDiameter, r.Inputs.FreeEDTA, r.Inputs.ChelatedFe,
			r.Inputs.LightIntensity, r.Inputs.HoursOfLight} {
			row.AddCell().SetFloat(v)
		}
		if r.Err != nil {
			for i := 0; i < 4+len(outNames); i++ {
				row.AddCell().SetString("")
			}
			row.AddCell().SetString(r.Err.Error())
			continue
		}
		o := r.Outputs
		row.AddCell().SetFloat(o.AmbientFreeIron)
		row.AddCell().SetFloat(o.FailureCellDensityPerML())
		row.AddCell().SetFloat(o.FailureBiomass)
		row.AddCell().SetString(strconv.FormatBool(o.OutOfRangeWarning))
		for _, n := range outNames {
			row.AddCell().SetFloat(r.Variables[n])
		}
		row.AddCell().SetString("")
	}
	return f, nil
}

func addStringRow(s *xlsx.Sheet, values ...string) {
	row := s.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
