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
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/febuffer"
)

// Sink presents model results.
type Sink interface {
	Present(*febuffer.Outputs) error
}

// Report is a Sink that writes a text summary of the results.
type Report struct {
	W io.Writer

	// Outputter, if not nil, specifies additional output variables
	// to be calculated and reported.
	Outputter *febuffer.Outputter

	// Log, if not nil, receives a warning when the abiotic free iron
	// concentration is outside the range of the model.
	Log logrus.FieldLogger
}

// Present writes the report.
func (r *Report) Present(o *febuffer.Outputs) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Abiotic free iron (Fe'):        %s mol/L\n", toPrecision(o.AmbientFreeIron, 2))
	fmt.Fprintf(&b, "Cell density at buffer failure: %s cells/mL\n", toPrecision(o.FailureCellDensityPerML(), 2))
	fmt.Fprintf(&b, "Biomass at buffer failure:      %s μmol C/L\n", toPrecision(o.FailureBiomass, 2))

	if r.Outputter != nil && len(r.Outputter.Names()) > 0 {
		vals, err := r.Outputter.Evaluate(o)
		if err != nil {
			return err
		}
		b.WriteString("\n")
		for _, n := range r.Outputter.Names() {
			fmt.Fprintf(&b, "%s = %g\n", n, vals[n])
		}
	}

	if o.OutOfRangeWarning {
		fmt.Fprintf(&b, "\n%s\n", warningText(o))
		if r.Log != nil {
			r.Log.WithFields(logrus.Fields{
				"AmbientFreeIron": o.AmbientFreeIron,
				"SolubilityLimit": o.Constants.SolubilityLimit,
			}).Warn("abiotic free iron exceeds the solubility of inorganic iron")
		}
	}
	_, err := io.WriteString(r.W, b.String())
	return err
}

func warningText(o *febuffer.Outputs) string {
	return fmt.Sprintf("WARNING: the abiotic free iron concentration (%s mol/L) exceeds the %g mol/L\n"+
		"solubility of inorganic iron (Liu & Millero 2002). Iron is likely to precipitate\n"+
		"and the results above are outside the measured range of the model.",
		toPrecision(o.AmbientFreeIron, 2), o.Constants.SolubilityLimit)
}

// toPrecision formats v with p significant figures. Exponential notation
// is used when the exponent is less than -6 or at least p, so that
// 103441 is written as 1.0e+5 and 0.5 as 0.50.
func toPrecision(v float64, p int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if v == 0 {
		return strconv.FormatFloat(0, 'f', p-1, 64)
	}
	s := strconv.FormatFloat(v, 'e', p-1, 64)
	i := strings.LastIndexByte(s, 'e')
	exp, err := strconv.Atoi(s[i+1:])
	if err != nil {
		panic(err)
	}
	if exp < -6 || exp >= p {
		return fmt.Sprintf("%se%+d", s[:i], exp)
	}
	return strconv.FormatFloat(v, 'f', p-1-exp, 64)
}
