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
	"path/filepath"
	"reflect"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/febuffer"
	"github.com/spf13/cast"
)

// InputsFromConfig reads the culture conditions from cfg.
// Values that cannot be converted to numbers are an error; whether the
// numbers are physically meaningful is checked by the model.
func InputsFromConfig(cfg *viper.Viper) (febuffer.Inputs, error) {
	var in febuffer.Inputs
	v := reflect.ValueOf(&in).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Name
		f, err := cast.ToFloat64E(cfg.Get(name))
		if err != nil {
			return in, fmt.Errorf("febuffer: configuration variable %s: %w", name, err)
		}
		v.Field(i).SetFloat(f)
	}
	return in, nil
}

// ConstantsFromConfig reads the model constants from the 'Constants'
// section of cfg. Constants that are not set keep their default values.
func ConstantsFromConfig(cfg *viper.Viper) (febuffer.Constants, error) {
	c := febuffer.DefaultConstants()
	t := reflect.TypeOf(c)
	overrides := make(map[string]interface{})
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Name
		if val := cfg.Get("Constants." + name); val != nil {
			overrides[name] = val
		}
	}
	return setConstants(c, overrides)
}

// setConstants returns a copy of c with the named fields replaced by
// the values in overrides.
func setConstants(c febuffer.Constants, overrides map[string]interface{}) (febuffer.Constants, error) {
	v := reflect.ValueOf(&c).Elem()
	for name, val := range overrides {
		f := v.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		if !f.IsValid() {
			return c, fmt.Errorf("febuffer: invalid constant name '%s'", name)
		}
		switch f.Kind() {
		case reflect.Float64:
			x, err := cast.ToFloat64E(val)
			if err != nil {
				return c, fmt.Errorf("febuffer: constant %s: %w", name, err)
			}
			f.SetFloat(x)
		case reflect.Int:
			x, err := cast.ToIntE(val)
			if err != nil {
				return c, fmt.Errorf("febuffer: constant %s: %w", name, err)
			}
			f.SetInt(int64(x))
		default:
			panic(fmt.Errorf("unsupported constant type %v", f.Kind()))
		}
	}
	return c, nil
}

// checkOutputVars removes end lines and expands environment
// variables in the output variables.
func checkOutputVars(vars map[string]string) map[string]string {
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`febuffer: you need to specify an output file configuration variable (for example: OutputFile="output.xlsx")`)
	}
	f = os.ExpandEnv(f)
	if ext := filepath.Ext(f); ext != ".xlsx" {
		return f, fmt.Errorf("febuffer: the OutputFile must have the extension .xlsx, not '%s'", ext)
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("febuffer: the OutputFile directory doesn't exist: %w", err)
	}
	return f, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("febuffer: configuration variable %s is not a valid JSON object: %w", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("febuffer: invalid type for configuration variable %s: %#v", varName, i)
	}
}
