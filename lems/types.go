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

// Package lems implements the ComponentType registry: parsing a LEMS
// document's <ComponentType> declarations and composing each one with its
// `extends` ancestry into the flat, single-inheritance class description
// that the instance builder and collapse pass consume.
package lems

import "github.com/brenthuisman/nmlcc/internal/expr"

// ComponentType is a named, composed LEMS class: the merge of a type with
// every ComponentType it transitively extends (see Registry.Compose).
type ComponentType struct {
	Name  string
	Base  string // "" if this type does not extend anything
	Child map[string]string
	Children map[string]string
	Parameters []string
	Attributes []string
	Constants map[string]float64
	Exposures map[string]string
	Links map[string]string
	Variables []Variable
	Events []Event
	Kinetic []Kinetic
	Fixed []FixedEntry
}

// FixedEntry is a <Fixed parameter="..." value="..."/> declaration: at
// compose time it removes `Parameter` from the parameters list and
// installs it as a constant instead (see Registry.compose).
type FixedEntry struct {
	Parameter string
	Value     string
}

// Event is a (state-variable name, assignment expression) pair evaluated
// when the owning component receives the named event port.
type Event struct {
	Variable string
	Value    expr.Expr
}

func cloneComponentType(ct *ComponentType) *ComponentType {
	out := &ComponentType{
		Name:       ct.Name,
		Base:       ct.Base,
		Child:      cloneStringMap(ct.Child),
		Children:   cloneStringMap(ct.Children),
		Parameters: append([]string(nil), ct.Parameters...),
		Attributes: append([]string(nil), ct.Attributes...),
		Constants:  make(map[string]float64, len(ct.Constants)),
		Exposures:  cloneStringMap(ct.Exposures),
		Links:      cloneStringMap(ct.Links),
		Variables:  append([]Variable(nil), ct.Variables...),
		Events:     append([]Event(nil), ct.Events...),
		Kinetic:    append([]Kinetic(nil), ct.Kinetic...),
		Fixed:      append([]FixedEntry(nil), ct.Fixed...),
	}
	for k, v := range ct.Constants {
		out.Constants[k] = v
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// VarKind tags the payload carried by a Variable.
type VarKind int

// The three dynamics variants a Variable can carry. After collapse
// completes, no Variable retains KindSelect (see Collapsed in the collapse
// package).
const (
	KindState VarKind = iota
	KindDerived
	KindSelect
)

func (k VarKind) String() string {
	switch k {
	case KindState:
		return "State"
	case KindDerived:
		return "Derived"
	case KindSelect:
		return "Select"
	}
	return "Unknown"
}

// SelectBy is the reduction applied by a Select variable once its match
// pattern has been resolved to a list of exposures.
type SelectBy int

// The three reductions a <DerivedVariable select=...> can request.
const (
	SelectGet SelectBy = iota
	SelectSum
	SelectProduct
)

// Case is one guarded branch of a Derived (piecewise) variable.
type Case struct {
	Guard expr.Boolean
	Value expr.Expr
}

// Variable is the tagged union described in spec §3: every Variable carries
// a Name/Exposure/Dimension regardless of Kind, plus the payload fields for
// whichever Kind it is.
type Variable struct {
	Name      string
	Exposure  string // "" if this variable has no exposure
	Dimension string
	Kind      VarKind

	// State
	Initial    *expr.Expr
	Derivative *expr.Expr

	// Derived
	Cases   []Case
	Default *expr.Expr

	// Select
	By    SelectBy
	Match Match
}
