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
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kr/pretty"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/febuffer"
)

func exampleConfig() *viper.Viper {
	cfg := newConfig()
	cfg.Set("CellDiameter", 5.0)
	cfg.Set("FreeEDTA", "1e-4")
	cfg.Set("ChelatedFe", 1e-7)
	cfg.Set("LightIntensity", 150)
	cfg.Set("HoursOfLight", "12")
	return cfg
}

func TestInputsFromConfig(t *testing.T) {
	in, err := InputsFromConfig(exampleConfig())
	if err != nil {
		t.Fatal(err)
	}
	if want := exampleInputs(); in != want {
		t.Errorf("have %+v, want %+v", in, want)
	}
}

func TestInputsFromConfigBadValue(t *testing.T) {
	cfg := exampleConfig()
	cfg.Set("ChelatedFe", "lots")
	if _, err := InputsFromConfig(cfg); err == nil {
		t.Error("should be an error")
	}
}

func TestInputsFromConfigEnv(t *testing.T) {
	os.Setenv("FEBUFFER_CELLDIAMETER", "20")
	defer os.Unsetenv("FEBUFFER_CELLDIAMETER")
	cfg := newConfig()
	for _, n := range []string{"FreeEDTA", "ChelatedFe", "LightIntensity", "HoursOfLight"} {
		cfg.Set(n, 1)
	}
	in, err := InputsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if in.CellDiameter != 20 {
		t.Errorf("have %g, want 20", in.CellDiameter)
	}
}

func TestConstantsFromConfig(t *testing.T) {
	cfg := newConfig()
	cfg.Set("Constants.FormationRate", "20")
	cfg.Set("Constants.Resolution", 10)
	os.Setenv("FEBUFFER_CONSTANTS_MAXUPTAKEFLUX", "1000")
	defer os.Unsetenv("FEBUFFER_CONSTANTS_MAXUPTAKEFLUX")

	c, err := ConstantsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := febuffer.DefaultConstants()
	want.FormationRate = 20
	want.Resolution = 10
	want.MaxUptakeFlux = 1000
	if c != want {
		t.Error(pretty.Diff(c, want))
	}
}

func TestConstantsFromConfigDefault(t *testing.T) {
	c, err := ConstantsFromConfig(newConfig())
	if err != nil {
		t.Fatal(err)
	}
	if want := febuffer.DefaultConstants(); c != want {
		t.Error(pretty.Diff(c, want))
	}
}

func TestSetConstants(t *testing.T) {
	c, err := setConstants(febuffer.DefaultConstants(), map[string]interface{}{
		"failurefraction": 0.2,
		"Resolution":      int64(20),
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.FailureFraction != 0.2 || c.Resolution != 20 {
		t.Errorf("have %+v", c)
	}

	if _, err := setConstants(febuffer.DefaultConstants(), map[string]interface{}{"NotAConstant": 1.0}); err == nil {
		t.Error("invalid name should be an error")
	}
	if _, err := setConstants(febuffer.DefaultConstants(), map[string]interface{}{"Resolution": "many"}); err == nil {
		t.Error("invalid value should be an error")
	}
}

func TestGetStringMapString(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  map[string]string
	}{
		{"json", `{"A": "FailureBiomass * 2", "B": "A + 1"}`, map[string]string{"A": "FailureBiomass * 2", "B": "A + 1"}},
		{"empty json", "{}", map[string]string{}},
		{"empty string", "", map[string]string{}},
		{"map", map[string]interface{}{"a": "FailureBiomass"}, map[string]string{"a": "FailureBiomass"}},
		{"string map", map[string]string{"A": "FailureBiomass"}, map[string]string{"A": "FailureBiomass"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := newConfig()
			cfg.Set("OutputVariables", test.value)
			have, err := GetStringMapString("OutputVariables", cfg)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(have, test.want) {
				t.Errorf("have %v, want %v", have, test.want)
			}
		})
	}
	t.Run("unset", func(t *testing.T) {
		have, err := GetStringMapString("OutputVariables", newConfig())
		if err != nil {
			t.Fatal(err)
		}
		if len(have) != 0 {
			t.Errorf("have %v", have)
		}
	})
	t.Run("bad json", func(t *testing.T) {
		cfg := newConfig()
		cfg.Set("OutputVariables", `{"A": `)
		if _, err := GetStringMapString("OutputVariables", cfg); err == nil {
			t.Error("should be an error")
		}
	})
}

func TestCheckOutputVars(t *testing.T) {
	os.Setenv("FEBUFFER_TEST_FACTOR", "2")
	defer os.Unsetenv("FEBUFFER_TEST_FACTOR")
	have := checkOutputVars(map[string]string{"A": "FailureBiomass *\r\n${FEBUFFER_TEST_FACTOR}"})
	want := map[string]string{"A": "FailureBiomass * 2"}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestCheckOutputFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "febuffer")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	os.Setenv("FEBUFFER_TEST_DIR", dir)
	defer os.Unsetenv("FEBUFFER_TEST_DIR")

	f, err := checkOutputFile("${FEBUFFER_TEST_DIR}/out.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "out.xlsx"); f != want {
		t.Errorf("have %s, want %s", f, want)
	}
	for _, bad := range []string{"", filepath.Join(dir, "out.csv"), filepath.Join(dir, "missing", "out.xlsx")} {
		if _, err := checkOutputFile(bad); err == nil {
			t.Errorf("%q should be an error", bad)
		}
	}
}

func TestEnvFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "febuffer")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	envFile := filepath.Join(dir, "febuffer.env")
	if err := ioutil.WriteFile(envFile, []byte("FEBUFFER_CONSTANTS_SOLUBILITYLIMIT=5e-10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	defer os.Unsetenv("FEBUFFER_CONSTANTS_SOLUBILITYLIMIT")
	Cfg.Set("envfile", envFile)
	defer Cfg.Set("envfile", "")

	if err := setConfig(); err != nil {
		t.Fatal(err)
	}
	c, err := ConstantsFromConfig(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.SolubilityLimit != 5e-10 {
		t.Errorf("have %g, want 5e-10", c.SolubilityLimit)
	}
}

func TestEnvFileMissing(t *testing.T) {
	Cfg.Set("envfile", filepath.Join("does", "not", "exist.env"))
	defer Cfg.Set("envfile", "")
	if err := setConfig(); err == nil {
		t.Error("should be an error")
	}
}
