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
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/febuffer"
)

// Scenario is a named set of culture conditions. Fields that are nil
// are taken from the default inputs of the batch. Constants holds
// replacement values for model constants, keyed by constant name.
type Scenario struct {
	Name string

	CellDiameter   *float64
	FreeEDTA       *float64
	ChelatedFe     *float64
	LightIntensity *float64
	HoursOfLight   *float64

	Constants map[string]interface{}
}

// scenarioFile is the layout of a scenario TOML file.
type scenarioFile struct {
	Scenario []Scenario
}

// ReadScenarios reads scenarios in TOML format from r, for example:
//
//	[[Scenario]]
//	Name = "f/2"
//	FreeEDTA = 1.17e-5
//	ChelatedFe = 1.17e-5
//
//	  [Scenario.Constants]
//	  FailureFraction = 0.2
func ReadScenarios(r io.Reader) ([]Scenario, error) {
	var f scenarioFile
	if _, err := toml.DecodeReader(r, &f); err != nil {
		return nil, fmt.Errorf("febuffer: reading scenarios: %w", err)
	}
	if len(f.Scenario) == 0 {
		return nil, fmt.Errorf("febuffer: no scenarios found")
	}
	seen := make(map[string]bool)
	for i, s := range f.Scenario {
		if s.Name == "" {
			return nil, fmt.Errorf("febuffer: scenario %d has no name", i+1)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("febuffer: duplicate scenario name '%s'", s.Name)
		}
		seen[s.Name] = true
	}
	return f.Scenario, nil
}

// ReadScenarioFile reads scenarios from the TOML file at path.
func ReadScenarioFile(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("febuffer: opening scenario file: %w", err)
	}
	defer f.Close()
	return ReadScenarios(f)
}

// Inputs returns the scenario inputs, using def for values the scenario
// does not set.
func (s Scenario) Inputs(def febuffer.Inputs) febuffer.Inputs {
	in := def
	for _, v := range []struct {
		dst *float64
		src *float64
	}{
		{&in.CellDiameter, s.CellDiameter},
		{&in.FreeEDTA, s.FreeEDTA},
		{&in.ChelatedFe, s.ChelatedFe},
		{&in.LightIntensity, s.LightIntensity},
		{&in.HoursOfLight, s.HoursOfLight},
	} {
		if v.src != nil {
			*v.dst = *v.src
		}
	}
	return in
}

// ModelConstants returns def with the scenario's constants replaced.
func (s Scenario) ModelConstants(def febuffer.Constants) (febuffer.Constants, error) {
	c, err := setConstants(def, s.Constants)
	if err != nil {
		return c, fmt.Errorf("febuffer: scenario '%s': %w", s.Name, err)
	}
	return c, nil
}

// ScenarioResult holds the result of one scenario in a batch.
type ScenarioResult struct {
	Name      string
	Inputs    febuffer.Inputs
	Outputs   *febuffer.Outputs
	Variables map[string]float64
	Err       error
}

// RunBatch calculates and reports each scenario in turn, writing the
// reports to w. Scenarios that fail are logged and skipped. If
// outputFile is not empty, a workbook summarizing all scenarios is
// saved there.
func RunBatch(log logrus.FieldLogger, w io.Writer, scenarios []Scenario, def febuffer.Inputs,
	c febuffer.Constants, outputter *febuffer.Outputter, outputFile string) error {

	results := make([]ScenarioResult, len(scenarios))
	var failed int
	for i, s := range scenarios {
		slog := log.WithField("scenario", s.Name)
		r := ScenarioResult{Name: s.Name, Inputs: s.Inputs(def)}
		fmt.Fprintf(w, "== %s ==\n", s.Name)
		sc, err := s.ModelConstants(c)
		if err == nil {
			report := &Report{W: w, Outputter: outputter, Log: slog}
			r.Outputs, err = Calc(slog, r.Inputs, sc, report)
		}
		if err == nil && outputter != nil {
			r.Variables, err = outputter.Evaluate(r.Outputs)
		}
		if err != nil {
			slog.WithError(err).Error("scenario failed")
			fmt.Fprintf(w, "ERROR: %v\n", err)
			r.Outputs, r.Err = nil, err
			failed++
		}
		fmt.Fprintln(w)
		results[i] = r
	}

	if outputFile != "" {
		f, err := batchWorkbook(results, outputter)
		if err != nil {
			return err
		}
		if err := f.Save(outputFile); err != nil {
			return fmt.Errorf("febuffer: saving workbook: %w", err)
		}
		log.WithField("file", outputFile).Info("saved batch summary")
	}
	if failed > 0 {
		return fmt.Errorf("febuffer: %d of %d scenarios failed", failed, len(scenarios))
	}
	return nil
}
