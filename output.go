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
	"reflect"
	"sort"

	"github.com/Knetic/govaluate"
)

// outputTypes are the types whose tagged fields are available as
// model variables in output expressions.
var outputTypes = []reflect.Type{
	reflect.TypeOf(Inputs{}),
	reflect.TypeOf(DerivedTerms{}),
	reflect.TypeOf(Outputs{}),
}

// OutputOptions returns the names, descriptions and units of the model
// variables that can be used in output variable expressions.
func OutputOptions() (names []string, descriptions []string, units []string) {
	for _, t := range outputTypes {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			desc := f.Tag.Get("desc")
			if desc == "" {
				continue
			}
			names = append(names, f.Name)
			descriptions = append(descriptions, desc)
			units = append(units, f.Tag.Get("units"))
		}
	}
	return
}

// Variables returns the values of the model variables listed by
// OutputOptions.
func (o *Outputs) Variables() map[string]float64 {
	vars := make(map[string]float64)
	for _, v := range []reflect.Value{reflect.ValueOf(o.Inputs), reflect.ValueOf(o.Derived), reflect.ValueOf(*o)} {
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).Tag.Get("desc") == "" {
				continue
			}
			vars[t.Field(i).Name] = v.Field(i).Float()
		}
	}
	return vars
}

// Outputter calculates user-defined output variables from model results.
//
// outputVariables maps the names of the variables to expressions that
// define how they should be calculated. These expressions can use the
// model variables listed by OutputOptions, other output variables,
// and functions.
type Outputter struct {
	outputVariables map[string]string
	expressions     map[string]*govaluate.EvaluableExpression
	outputFunctions map[string]govaluate.ExpressionFunction

	// order is the evaluation order of the output variables; each
	// variable comes after the output variables it depends on.
	order []string
}

// oneArg wraps a single-argument math function for use in expressions.
func oneArg(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("febuffer: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		x, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("febuffer: argument to function '%s' must be a number", name)
		}
		return f(x), nil
	}
}

// NewOutputter initializes a new Outputter and adds a set of default
// output functions: 'exp(x)', 'log(x)' (natural logarithm), 'log10(x)',
// and 'pow(x, y)'. Functions in outputFunctions are added to, and can
// override, the defaults.
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	defaultOutputFuncs := map[string]govaluate.ExpressionFunction{
		"exp":   oneArg("exp", math.Exp),
		"log":   oneArg("log", math.Log),
		"log10": oneArg("log10", math.Log10),
		"pow": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("febuffer: got %d arguments for function 'pow', but needs 2", len(args))
			}
			x, ok1 := args[0].(float64)
			y, ok2 := args[1].(float64)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("febuffer: arguments to function 'pow' must be numbers")
			}
			return math.Pow(x, y), nil
		},
	}
	for key, val := range outputFunctions {
		defaultOutputFuncs[key] = val
	}

	o := &Outputter{
		outputVariables: make(map[string]string, len(outputVariables)),
		expressions:     make(map[string]*govaluate.EvaluableExpression, len(outputVariables)),
		outputFunctions: defaultOutputFuncs,
	}

	modelVars := make(map[string]bool)
	names, _, _ := OutputOptions()
	for _, n := range names {
		modelVars[n] = true
	}

	deps := make(map[string][]string)
	for name, expr := range outputVariables {
		if modelVars[name] {
			return nil, fmt.Errorf("febuffer: output variable '%s' has the same name as a model variable", name)
		}
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, o.outputFunctions)
		if err != nil {
			return nil, fmt.Errorf("febuffer: parsing output variable '%s': %v", name, err)
		}
		o.outputVariables[name] = expr
		o.expressions[name] = e
		for _, v := range e.Vars() {
			if modelVars[v] {
				continue
			}
			if _, ok := outputVariables[v]; !ok {
				return nil, fmt.Errorf("febuffer: output variable '%s': undefined variable name '%s'", name, v)
			}
			deps[name] = append(deps[name], v)
		}
	}

	order, err := dependencyOrder(deps, o.outputVariables)
	if err != nil {
		return nil, err
	}
	o.order = order
	return o, nil
}

// dependencyOrder sorts the output variables so that every variable
// comes after the variables it depends on.
func dependencyOrder(deps map[string][]string, vars map[string]string) ([]string, error) {
	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var order []string
	var visit func(n string) error
	visit = func(n string) error {
		switch state[n] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("febuffer: output variable '%s' depends on itself", n)
		}
		state[n] = visiting
		for _, d := range deps[n] {
			if err := visit(d); err != nil {
				return err
			}
		}
		state[n] = done
		order = append(order, n)
		return nil
	}
	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Names returns the output variable names in alphabetical order.
func (o *Outputter) Names() []string {
	names := make([]string, 0, len(o.outputVariables))
	for n := range o.outputVariables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Expression returns the expression that defines output variable name.
func (o *Outputter) Expression(name string) string {
	return o.outputVariables[name]
}

// Evaluate calculates the output variables from model results.
func (o *Outputter) Evaluate(out *Outputs) (map[string]float64, error) {
	params := make(map[string]interface{})
	for k, v := range out.Variables() {
		params[k] = v
	}
	result := make(map[string]float64, len(o.order))
	for _, name := range o.order {
		v, err := o.expressions[name].Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("febuffer: evaluating output variable '%s': %v", name, err)
		}
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("febuffer: output variable '%s' evaluates to %T, not a number", name, v)
		}
		params[name] = f
		result[name] = f
	}
	return result, nil
}
