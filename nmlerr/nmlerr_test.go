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

package nmlerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	e := New(UnknownType, "no such ComponentType %q", "Foo")
	if got, want := e.Error(), `UnknownType: no such ComponentType "Foo"`; got != want {
		t.Errorf("Error() got: %s, want: %s", got, want)
	}
	if e.KindOf() != UnknownType {
		t.Errorf("KindOf() got: %s, want: %s", e.KindOf(), UnknownType)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	inner := errors.New("boom")
	wrapped := Wrap(BadQuantity, inner)
	if !errors.Is(wrapped, inner) {
		t.Errorf("Wrap(%v) should unwrap to the cause", inner)
	}
	if wrapped.Kind != BadQuantity {
		t.Errorf("Kind got: %s, want: %s", wrapped.Kind, BadQuantity)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(Cycle, nil) != nil {
		t.Errorf("Wrap(nil) should return nil")
	}
}

func TestWrapIdempotent(t *testing.T) {
	e := New(Cycle, "loop at %s", "A")
	if Wrap(Cycle, e) != e {
		t.Errorf("Wrap should not double-wrap an *Error of the same Kind")
	}
}

func TestAppendErrAndToString(t *testing.T) {
	var errs Errors
	errs = AppendErr(errs, nil)
	if got, want := errs.String(), ""; got != want {
		t.Errorf("got: %s, want: %s", got, want)
	}
	errs = AppendErr(errs, fmt.Errorf("err1"))
	errs = AppendErr(errs, fmt.Errorf("err2"))
	if got, want := errs.String(), "err1, err2"; got != want {
		t.Errorf("got: %s, want: %s", got, want)
	}
}
