package lems

import (
	"errors"
	"strings"
	"testing"

	"github.com/brenthuisman/nmlcc/internal/xmltree"
	"github.com/brenthuisman/nmlcc/nmlerr"
)

func mustRegistry(t *testing.T, doc string) *Registry {
	t.Helper()
	root, err := xmltree.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("xmltree.Parse: %v", err)
	}
	reg, err := ParseDocument(root)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return reg
}

func TestComposeMergesAncestorAndChild(t *testing.T) {
	reg := mustRegistry(t, `<Lems>
		<ComponentType name="Base">
			<Parameter name="p"/>
			<Exposure name="e" dimension="none"/>
		</ComponentType>
		<ComponentType name="Derived" extends="Base">
			<Parameter name="q"/>
		</ComponentType>
	</Lems>`)

	ct, err := reg.Compose("Derived")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(ct.Parameters) != 2 || ct.Parameters[0] != "p" || ct.Parameters[1] != "q" {
		t.Errorf("Parameters = %v, want [p q]", ct.Parameters)
	}
	if ct.Exposures["e"] != "none" {
		t.Errorf("Exposures[e] = %q, want none (inherited)", ct.Exposures["e"])
	}
}

func TestComposeDetectsCycle(t *testing.T) {
	reg := mustRegistry(t, `<Lems>
		<ComponentType name="A" extends="B"/>
		<ComponentType name="B" extends="A"/>
	</Lems>`)
	if _, err := reg.Compose("A"); err == nil {
		t.Errorf("expected cycle error")
	}
}

func TestComposeUnknownBase(t *testing.T) {
	reg := mustRegistry(t, `<Lems>
		<ComponentType name="A" extends="Missing"/>
	</Lems>`)
	if _, err := reg.Compose("A"); err == nil {
		t.Errorf("expected unknown-type error")
	}
}

func TestDerivedFrom(t *testing.T) {
	reg := mustRegistry(t, `<Lems>
		<ComponentType name="A"/>
		<ComponentType name="B" extends="A"/>
		<ComponentType name="C" extends="B"/>
	</Lems>`)
	ok, err := reg.DerivedFrom("C", "A")
	if err != nil || !ok {
		t.Errorf("DerivedFrom(C, A) = %v, %v, want true, nil", ok, err)
	}
	ok, err = reg.DerivedFrom("A", "C")
	if err != nil || ok {
		t.Errorf("DerivedFrom(A, C) = %v, %v, want false, nil", ok, err)
	}
}

func TestFixedResolvesIntoConstant(t *testing.T) {
	reg := mustRegistry(t, `<Lems>
		<ComponentType name="Base">
			<Parameter name="p"/>
		</ComponentType>
		<ComponentType name="Derived" extends="Base">
			<Fixed parameter="p" value="2"/>
		</ComponentType>
	</Lems>`)
	ct, err := reg.Compose("Derived")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(ct.Parameters) != 0 {
		t.Errorf("Parameters = %v, want empty (p fixed away)", ct.Parameters)
	}
	if ct.Constants["p"] != 2 {
		t.Errorf("Constants[p] = %v, want 2", ct.Constants["p"])
	}
}

func TestParseDynamicsStateAndDerived(t *testing.T) {
	reg := mustRegistry(t, `<Lems>
		<ComponentType name="Gate">
			<Exposure name="fcond" dimension="none"/>
			<Dynamics>
				<StateVariable name="q" exposure="fcond" dimension="none"/>
				<TimeDerivative variable="q" value="1 - q"/>
				<OnStart>
					<StateAssignment variable="q" value="0"/>
				</OnStart>
			</Dynamics>
		</ComponentType>
	</Lems>`)
	ct, err := reg.Compose("Gate")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(ct.Variables) != 1 {
		t.Fatalf("len(Variables) = %d, want 1", len(ct.Variables))
	}
	v := ct.Variables[0]
	if v.Kind != KindState || v.Initial == nil || v.Derivative == nil {
		t.Errorf("variable q not fully populated: %+v", v)
	}
}

func TestParseTimeDerivativeNonStateTargetErrors(t *testing.T) {
	root, err := xmltree.Parse(strings.NewReader(`<Lems>
		<ComponentType name="Gate">
			<Parameter name="q"/>
			<Dynamics>
				<TimeDerivative variable="q" value="1 - q"/>
			</Dynamics>
		</ComponentType>
	</Lems>`))
	if err != nil {
		t.Fatalf("xmltree.Parse: %v", err)
	}
	_, err = ParseDocument(root)
	assertMalformedDynamics(t, err)
}

func TestParseOnStartNonStateTargetErrors(t *testing.T) {
	root, err := xmltree.Parse(strings.NewReader(`<Lems>
		<ComponentType name="Gate">
			<Dynamics>
				<StateVariable name="q" dimension="none"/>
				<OnStart>
					<StateAssignment variable="notq" value="0"/>
				</OnStart>
			</Dynamics>
		</ComponentType>
	</Lems>`))
	if err != nil {
		t.Fatalf("xmltree.Parse: %v", err)
	}
	_, err = ParseDocument(root)
	assertMalformedDynamics(t, err)
}

func TestParseOnEventNonStateTargetErrors(t *testing.T) {
	root, err := xmltree.Parse(strings.NewReader(`<Lems>
		<ComponentType name="Gate">
			<Dynamics>
				<StateVariable name="q" dimension="none"/>
				<OnEvent>
					<StateAssignment variable="notq" value="0"/>
				</OnEvent>
			</Dynamics>
		</ComponentType>
	</Lems>`))
	if err != nil {
		t.Fatalf("xmltree.Parse: %v", err)
	}
	_, err = ParseDocument(root)
	assertMalformedDynamics(t, err)
}

func assertMalformedDynamics(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	var kerr nmlerr.Kinded
	if !errors.As(err, &kerr) {
		t.Fatalf("error %v does not carry a Kind", err)
	}
	if kerr.KindOf() != nmlerr.MalformedDynamics {
		t.Errorf("Kind = %v, want MalformedDynamics", kerr.KindOf())
	}
}

func TestMatchOnPath(t *testing.T) {
	m, err := ParseMatch("gates[*]/fcond")
	if err != nil {
		t.Fatalf("ParseMatch: %v", err)
	}
	got := m.OnPath([]string{"gates_m_fcond", "gates_h_fcond", "other_x"})
	want := []string{"gates_m_fcond", "gates_h_fcond"}
	if len(got) != len(want) {
		t.Fatalf("OnPath = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("OnPath[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
