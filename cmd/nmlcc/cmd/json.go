// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import "github.com/brenthuisman/nmlcc/collapse"

// jsonOutput is the wire shape printed by `nmlcc collapse`: Collapsed's
// Expr/Boolean payloads carry no exported fields of their own (see
// internal/expr), so they are rendered through their String() form instead
// of relying on encoding/json's reflection over collapse.Collapsed directly.
type jsonOutput struct {
	Name        string             `json:"name,omitempty"`
	Exposures   map[string]string  `json:"exposures"`
	Parameters  map[string]*float64 `json:"parameters"`
	Constants   map[string]float64 `json:"constants"`
	Attributes  map[string]*string `json:"attributes"`
	Variables   []jsonVariable     `json:"variables"`
	Events      []jsonEvent        `json:"events"`
	Transitions []collapse.Transition `json:"transitions"`
}

type jsonVariable struct {
	Name       string     `json:"name"`
	Exposure   string     `json:"exposure,omitempty"`
	Dimension  string     `json:"dimension"`
	Kind       string     `json:"kind"`
	Initial    string     `json:"initial,omitempty"`
	Derivative string     `json:"derivative,omitempty"`
	Cases      []jsonCase `json:"cases,omitempty"`
	Default    string     `json:"default,omitempty"`
}

type jsonCase struct {
	Guard string `json:"guard"`
	Value string `json:"value"`
}

type jsonEvent struct {
	Variable string `json:"variable"`
	Value    string `json:"value"`
}

func toJSON(coll *collapse.Collapsed) jsonOutput {
	out := jsonOutput{
		Exposures:   coll.Exposures,
		Parameters:  coll.Parameters,
		Constants:   coll.Constants,
		Attributes:  coll.Attributes,
		Transitions: coll.Transitions,
	}
	if coll.HasName {
		out.Name = coll.Name
	}
	for _, v := range coll.Variables {
		jv := jsonVariable{
			Name:      v.Name,
			Exposure:  v.Exposure,
			Dimension: v.Dimension,
			Kind:      v.Kind.String(),
		}
		if v.Initial != nil {
			jv.Initial = v.Initial.String()
		}
		if v.Derivative != nil {
			jv.Derivative = v.Derivative.String()
		}
		for _, c := range v.Cases {
			jv.Cases = append(jv.Cases, jsonCase{Guard: c.Guard.String(), Value: c.Value.String()})
		}
		if v.Default != nil {
			jv.Default = v.Default.String()
		}
		out.Variables = append(out.Variables, jv)
	}
	for _, e := range coll.Events {
		out.Events = append(out.Events, jsonEvent{Variable: e.Variable, Value: e.Value.String()})
	}
	return out
}
