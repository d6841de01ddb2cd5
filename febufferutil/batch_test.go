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
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/febuffer"
	"github.com/tealeg/xlsx"
)

func TestReadScenarioFile(t *testing.T) {
	s, err := ReadScenarioFile("testdata/scenarios.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 3 {
		t.Fatalf("have %d scenarios, want 3", len(s))
	}
	wantNames := []string{"small cells", "large cells, continuous light", "iron rich"}
	for i, n := range wantNames {
		if s[i].Name != n {
			t.Errorf("scenario %d: have name %q, want %q", i, s[i].Name, n)
		}
	}
	if s[1].CellDiameter == nil || *s[1].CellDiameter != 60 {
		t.Errorf("have CellDiameter %v, want 60", s[1].CellDiameter)
	}
	if s[1].FreeEDTA != nil {
		t.Errorf("FreeEDTA should not be set, have %g", *s[1].FreeEDTA)
	}
}

func TestScenarioInputs(t *testing.T) {
	s, err := ReadScenarioFile("testdata/scenarios.toml")
	if err != nil {
		t.Fatal(err)
	}
	def := febuffer.Inputs{CellDiameter: 1, FreeEDTA: 2, ChelatedFe: 3, LightIntensity: 4, HoursOfLight: 5}

	if in := s[0].Inputs(def); in != exampleInputs() {
		t.Errorf("have %+v, want %+v", in, exampleInputs())
	}
	want := febuffer.Inputs{CellDiameter: 60, FreeEDTA: 2, ChelatedFe: 3, LightIntensity: 500, HoursOfLight: 24}
	if in := s[1].Inputs(def); in != want {
		t.Errorf("have %+v, want %+v", in, want)
	}
	want = febuffer.Inputs{CellDiameter: 1, FreeEDTA: 1e-5, ChelatedFe: 1e-6, LightIntensity: 4, HoursOfLight: 5}
	if in := s[2].Inputs(def); in != want {
		t.Errorf("have %+v, want %+v", in, want)
	}
}

func TestScenarioConstants(t *testing.T) {
	s, err := ReadScenarioFile("testdata/scenarios.toml")
	if err != nil {
		t.Fatal(err)
	}
	c, err := s[1].ModelConstants(febuffer.DefaultConstants())
	if err != nil {
		t.Fatal(err)
	}
	want := febuffer.DefaultConstants()
	want.FailureFraction = 0.2
	want.Resolution = 20
	if c != want {
		t.Errorf("have %+v, want %+v", c, want)
	}
	c, err = s[0].ModelConstants(febuffer.DefaultConstants())
	if err != nil {
		t.Fatal(err)
	}
	if c != febuffer.DefaultConstants() {
		t.Errorf("constants should not change, have %+v", c)
	}
}

func TestReadScenariosErrors(t *testing.T) {
	tests := []struct {
		name, toml string
	}{
		{"empty", ""},
		{"no name", "[[Scenario]]\nCellDiameter = 5.0\n"},
		{"duplicate", "[[Scenario]]\nName = \"a\"\n[[Scenario]]\nName = \"a\"\n"},
		{"syntax", "[[Scenario]\nName = \"a\"\n"},
		{"type", "[[Scenario]]\nName = \"a\"\nCellDiameter = \"big\"\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ReadScenarios(strings.NewReader(test.toml)); err == nil {
				t.Error("should be an error")
			}
		})
	}
}

func TestRunBatch(t *testing.T) {
	s, err := ReadScenarioFile("testdata/scenarios.toml")
	if err != nil {
		t.Fatal(err)
	}
	zero := 0.
	s = append(s, Scenario{Name: "no EDTA", FreeEDTA: &zero})

	dir, err := ioutil.TempDir("", "febuffer")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	outputFile := filepath.Join(dir, "batch.xlsx")

	out, err := febuffer.NewOutputter(map[string]string{"DensityPerML": "FailureCellDensity / 1000"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	log, _ := test.NewNullLogger()
	buf := new(bytes.Buffer)
	err = RunBatch(log, buf, s, exampleInputs(), febuffer.DefaultConstants(), out, outputFile)
	if err == nil || !strings.Contains(err.Error(), "1 of 4 scenarios failed") {
		t.Errorf("have error %v", err)
	}

	report := buf.String()
	for _, want := range []string{"== small cells ==", "== iron rich ==", "== no EDTA ==", "WARNING", "ERROR", "DensityPerML = "} {
		if !strings.Contains(report, want) {
			t.Errorf("%q missing from report:\n%s", want, report)
		}
	}

	f, err := xlsx.OpenFile(outputFile)
	if err != nil {
		t.Fatal(err)
	}
	rows := f.Sheet["Summary"].Rows
	if len(rows) != 5 {
		t.Fatalf("have %d rows, want 5", len(rows))
	}
	const errCol = 11
	if rows[0].Cells[errCol].Value != "Error" {
		t.Errorf("have header %q, want Error", rows[0].Cells[errCol].Value)
	}
	if rows[1].Cells[0].Value != "small cells" {
		t.Errorf("have %q", rows[1].Cells[0].Value)
	}
	density, err := rows[1].Cells[7].Float()
	if err != nil {
		t.Fatal(err)
	}
	if want := 103441.33334537425; different(density, want) {
		t.Errorf("have %g, want %g", density, want)
	}
	if rows[3].Cells[9].Value != "true" {
		t.Errorf("iron rich scenario should be out of range, have %q", rows[3].Cells[9].Value)
	}
	if !strings.Contains(rows[4].Cells[errCol].Value, "FreeEDTA") {
		t.Errorf("have error %q", rows[4].Cells[errCol].Value)
	}
}
