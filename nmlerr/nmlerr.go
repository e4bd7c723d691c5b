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

// Package nmlerr implements the tagged error taxonomy raised by the lems,
// instance and collapse packages while lowering a LEMS document.
package nmlerr

import "fmt"

// Kind tags an Error with the pipeline stage/reason that raised it.
type Kind string

// The fixed taxonomy of fallible conditions in the composition/lowering
// pipeline. The lems, instance and collapse packages report failures as an
// *Error carrying one of these, sometimes wrapped with fmt.Errorf's %w or
// collected into an Errors; the internal expr, quantity and xmltree parsers
// return plain errors.
const (
	XmlParse          Kind = "XmlParse"
	UnknownType       Kind = "UnknownType"
	Cycle             Kind = "Cycle"
	UnknownKey        Kind = "UnknownKey"
	BadQuantity       Kind = "BadQuantity"
	BadExpr           Kind = "BadExpr"
	MalformedDynamics Kind = "MalformedDynamics"
	MissingRequired   Kind = "MissingRequired"
	UnsupportedPattern Kind = "UnsupportedPattern"
	BadFilter         Kind = "BadFilter"
)

// Error is the concrete error type returned across package boundaries. It
// keeps the raising Kind alongside a human-readable message and, optionally,
// the error it wraps.
type Error struct {
	Kind  Kind
	What  string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.What, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.What)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// New builds an *Error of the given Kind from a format string, in the style
// of fmt.Errorf.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, What: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error with a Kind, preserving it as the cause.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok && e.Kind == kind {
		return e
	}
	return &Error{Kind: kind, What: err.Error(), cause: err}
}

// Kinded is implemented by Error; exported so callers can type-assert
// without a direct dependency on the concrete struct.
type Kinded interface {
	error
	KindOf() Kind
}

// KindOf implements Kinded.
func (e *Error) KindOf() Kind { return e.Kind }

// Errors is a slice of error that implements error itself, so a caller
// accumulating several fallible sub-steps (e.g. parsing every child of an
// XML element) can return one value instead of bailing out on the first
// failure.
type Errors []error

// Error implements the error interface by joining every non-nil member.
func (e Errors) Error() string { return ToString([]error(e)) }

// String implements fmt.Stringer.
func (e Errors) String() string { return e.Error() }

// Unwrap lets errors.Is/errors.As search every collected member.
func (e Errors) Unwrap() []error { return e }

// AppendErr appends err to errs if it is not nil and returns the result.
func AppendErr(errs []error, err error) Errors {
	if err == nil {
		return errs
	}
	return append(errs, err)
}

// ToString renders a slice of errors as a single comma-separated message,
// skipping nils.
func ToString(errs []error) string {
	var out string
	for _, e := range errs {
		if e == nil {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += e.Error()
	}
	return out
}
