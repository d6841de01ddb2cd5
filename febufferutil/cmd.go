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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/febuffer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	dc := febuffer.DefaultConstants()

	// Options are the configuration options available to FeBuffer.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "envfile",
			usage: `
              envfile specifies a file of KEY=value lines to be loaded into
              the environment before the configuration is read. Variables
              that are already set in the environment are not changed.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "CellDiameter",
			usage: `
              CellDiameter specifies the phytoplankton cell diameter in μm.`,
			shorthand:  "d",
			defaultVal: 5.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "FreeEDTA",
			usage: `
              FreeEDTA specifies the concentration of EDTA that is not chelated
              to iron, in mol/L. In most media this is approximately the
              total EDTA concentration.`,
			shorthand:  "e",
			defaultVal: 1.0e-4,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ChelatedFe",
			usage: `
              ChelatedFe specifies the concentration of iron chelated to EDTA,
              in mol/L. In most media this is approximately the total iron
              concentration.`,
			shorthand:  "f",
			defaultVal: 1.0e-7,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LightIntensity",
			usage: `
              LightIntensity specifies the light intensity in μE/m²/s.`,
			shorthand:  "l",
			defaultVal: 150.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "HoursOfLight",
			usage: `
              HoursOfLight specifies the number of hours of light per day
              (between 0 and 24).`,
			defaultVal: 12.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.DarkDissociationRate",
			usage: `
              Constants.DarkDissociationRate is the FeEDTA dark dissociation
              rate constant in 1/s.`,
			defaultVal: dc.DarkDissociationRate,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.PhotoDissociationRate",
			usage: `
              Constants.PhotoDissociationRate is the FeEDTA photo-oxidation
              rate constant in 1/s at Constants.ReferenceLightIntensity.`,
			defaultVal: dc.PhotoDissociationRate,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.ReferenceLightIntensity",
			usage: `
              Constants.ReferenceLightIntensity is the light intensity in
              μE/m²/s at which Constants.PhotoDissociationRate was measured.`,
			defaultVal: dc.ReferenceLightIntensity,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.FormationRate",
			usage: `
              Constants.FormationRate is the FeEDTA formation rate constant
              in L/mol/s.`,
			defaultVal: dc.FormationRate,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.CarbonPerCellVolume",
			usage: `
              Constants.CarbonPerCellVolume is the number of moles of carbon
              per liter of cell volume.`,
			defaultVal: dc.CarbonPerCellVolume,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.MaxUptakeFlux",
			usage: `
              Constants.MaxUptakeFlux is the maximum iron uptake flux across
              the cell surface in nmol/m²/day.`,
			defaultVal: dc.MaxUptakeFlux,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.UptakeHalfSaturation",
			usage: `
              Constants.UptakeHalfSaturation is the half-saturation constant
              for iron uptake in mol/L.`,
			defaultVal: dc.UptakeHalfSaturation,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.Resolution",
			usage: `
              Constants.Resolution is the number of points in each generated
              curve. It must be at least 2.`,
			defaultVal: dc.Resolution,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.MaxBiomass",
			usage: `
              Constants.MaxBiomass is the largest biomass in mol C/L that the
              generated curves extend to.`,
			defaultVal: dc.MaxBiomass,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.FailureFraction",
			usage: `
              Constants.FailureFraction is the fractional decrease of free iron
              below its abiotic equilibrium at which the buffer is
              considered to have failed.`,
			defaultVal: dc.FailureFraction,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Constants.SolubilityLimit",
			usage: `
              Constants.SolubilityLimit is the solubility of inorganic iron in
              mol/L. A warning is given when the abiotic free iron
              concentration exceeds it.`,
			defaultVal: dc.SolubilityLimit,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies additional variables to be calculated
              and reported. It is a map of variable names to expressions
              that can use the model variables, other output variables, and
              the functions exp(x), log(x), log10(x) and pow(x, y). Run
              'febuffer variables' for a list of model variables.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies the path to a file where log messages should be
              written in addition to the command output. If it is empty,
              messages are only written to the command output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "BiomassPlotFile",
			usage: `
              BiomassPlotFile specifies where the chart of free iron versus
              biomass should be written. The format is chosen by the file
              extension, for example .png, .svg or .pdf.`,
			defaultVal: "biomass.png",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "DensityPlotFile",
			usage: `
              DensityPlotFile specifies where the chart of free iron versus
              cell density should be written.`,
			defaultVal: "density.png",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "PlotWidth",
			usage: `
              PlotWidth specifies the width of the charts in inches.`,
			defaultVal: 5.0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "PlotHeight",
			usage: `
              PlotHeight specifies the height of the charts in inches.`,
			defaultVal: 3.5,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "open",
			usage: `
              open specifies whether the charts should be opened with the
              default viewer after they are written.`,
			shorthand:  "o",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the .xlsx workbook where
              results should be written.`,
			defaultVal: "febuffer.xlsx",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "Scenarios",
			usage: `
              Scenarios specifies the path to a TOML file of named culture
              conditions to be calculated together.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
	}

	Cfg = newConfig()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := strings.TrimSpace(b.String())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
		}
	}
	bindFlags(Cfg)
}

// bindFlags binds the command-line flags to cfg.
func bindFlags(cfg *viper.Viper) {
	for _, option := range options {
		for _, set := range option.flagsets {
			cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

// newConfig returns a configuration that reads environment variables
// in the format 'FEBUFFER_var', where nested keys such as
// 'Constants.FormationRate' become 'FEBUFFER_CONSTANTS_FORMATIONRATE'.
func newConfig() *viper.Viper {
	cfg := viper.New()

	// Set the prefix for configuration environment variables.
	cfg.SetEnvPrefix("FEBUFFER")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	return cfg
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(variablesCmd)
	Root.AddCommand(calcCmd)
	Root.AddCommand(plotCmd)
	Root.AddCommand(exportCmd)
	Root.AddCommand(batchCmd)
}

// setConfig loads the environment file and then finds and reads in
// the configuration file, if there are any.
func setConfig() error {
	if envpath := Cfg.GetString("envfile"); envpath != "" {
		if err := godotenv.Load(os.ExpandEnv(envpath)); err != nil {
			return fmt.Errorf("febuffer: problem reading environment file: %w", err)
		}
	}
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("febuffer: problem reading configuration file: %w", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "febuffer",
	Short: "An iron buffering calculator for phytoplankton culture media.",
	Long: `FeBuffer estimates the free iron concentration in an EDTA-buffered
phytoplankton culture medium and the cell density and biomass at which iron
uptake by the cells overwhelms the buffer.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'FEBUFFER_var' where 'var' is the
name of the variable to be set (for example FEBUFFER_CELLDIAMETER or
FEBUFFER_CONSTANTS_FORMATIONRATE). Environment variables can also be loaded
from a file with the --envfile flag.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of FeBuffer.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("FeBuffer v%s\n", febuffer.Version)
	},
	DisableAutoGenTag: true,
}

var variablesCmd = &cobra.Command{
	Use:   "variables",
	Short: "List the model variables",
	Long: `variables lists the names, units and descriptions of the model
variables that can be used in OutputVariables expressions.`,
	Run: func(cmd *cobra.Command, args []string) {
		names, descriptions, units := febuffer.OutputOptions()
		for i, n := range names {
			cmd.Printf("%-20s %-12s %s\n", n, units[i], descriptions[i])
		}
	},
	DisableAutoGenTag: true,
}

// calcCmd is a command that calculates and reports the buffering
// capacity of a medium.
var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate the iron buffering capacity of a medium.",
	Long: `calc calculates the abiotic free iron concentration of the configured
medium and the cell density and biomass at which the iron buffer fails,
and prints a report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd, Cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		_, err = Calc(s.log, s.inputs, s.constants, s.report(cmd))
		return err
	},
	DisableAutoGenTag: true,
}

// plotCmd is a command that calculates the buffering capacity of a medium
// and renders the free iron curves.
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Calculate and chart the free iron curves.",
	Long: `plot calculates the buffering capacity of the configured medium,
prints a report, and draws charts of free iron as a function of biomass and of
cell density.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd, Cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		p, err := PlotterFromConfig(Cfg)
		if err != nil {
			return err
		}
		p.Log = s.log
		_, err = Calc(s.log, s.inputs, s.constants, s.report(cmd), p)
		return err
	},
	DisableAutoGenTag: true,
}

// exportCmd is a command that writes model results to a workbook.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Calculate and save the results to a spreadsheet.",
	Long: `export calculates the buffering capacity of the configured medium,
prints a report, and saves the scalar results and both free iron curves
to an .xlsx workbook specified by the OutputFile configuration variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd, Cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		sheet := &Spreadsheet{File: outputFile, Outputter: s.outputter}
		_, err = Calc(s.log, s.inputs, s.constants, s.report(cmd), sheet)
		return err
	},
	DisableAutoGenTag: true,
}

// batchCmd is a command that calculates a file of scenarios.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Calculate a set of scenarios.",
	Long: `batch calculates and reports each of the named scenarios in the TOML
file specified by the Scenarios configuration variable. Scenario values that
are not specified are taken from the rest of the configuration. If OutputFile
is not empty, a summary of all scenarios is also saved to an .xlsx workbook.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd, Cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		scenarioFile := os.ExpandEnv(Cfg.GetString("Scenarios"))
		if scenarioFile == "" {
			return fmt.Errorf("febuffer: you need to specify a scenario file (for example: --Scenarios=scenarios.toml)")
		}
		scenarios, err := ReadScenarioFile(scenarioFile)
		if err != nil {
			return err
		}
		outputFile := os.ExpandEnv(Cfg.GetString("OutputFile"))
		if outputFile != "" {
			if outputFile, err = checkOutputFile(outputFile); err != nil {
				return err
			}
		}
		return RunBatch(s.log, cmd.OutOrStdout(), scenarios, s.inputs, s.constants, s.outputter, outputFile)
	},
	DisableAutoGenTag: true,
}
