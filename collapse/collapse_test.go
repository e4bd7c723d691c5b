package collapse

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/brenthuisman/nmlcc/instance"
	"github.com/brenthuisman/nmlcc/internal/expr"
	"github.com/brenthuisman/nmlcc/internal/xmltree"
	"github.com/brenthuisman/nmlcc/lems"
)

func mustCollapse(t *testing.T, lemsDoc, instDoc string, useName bool) *Collapsed {
	t.Helper()
	lroot, err := xmltree.Parse(strings.NewReader(lemsDoc))
	if err != nil {
		t.Fatalf("xmltree.Parse(lems): %v", err)
	}
	reg, err := lems.ParseDocument(lroot)
	if err != nil {
		t.Fatalf("lems.ParseDocument: %v", err)
	}
	iroot, err := xmltree.Parse(strings.NewReader(instDoc))
	if err != nil {
		t.Fatalf("xmltree.Parse(instance): %v", err)
	}
	inst, err := instance.Build(reg, iroot)
	if err != nil {
		t.Fatalf("instance.Build: %v", err)
	}
	coll, err := From(inst, useName)
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	return coll
}

func floatAt(t *testing.T, m map[string]*float64, key string) float64 {
	t.Helper()
	v, ok := m[key]
	if !ok || v == nil {
		t.Fatalf("parameters[%q] missing or unset: %v", key, m)
	}
	return *v
}

// Scenario 1: single parameter.
func TestCollapseSingleParameter(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="A">
			<Parameter name="p"/>
		</ComponentType>
	</Lems>`, `<A type="A" p="3 mV"/>`, false)

	if len(coll.Parameters) != 1 {
		t.Fatalf("Parameters = %v, want exactly 1 entry", coll.Parameters)
	}
	if got := floatAt(t, coll.Parameters, "p"); got != 3e-3 {
		t.Errorf("p = %v, want 3e-3", got)
	}
}

// Scenario 2: child naming.
func TestCollapseChildNaming(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="B">
			<Parameter name="q"/>
		</ComponentType>
		<ComponentType name="A">
			<Child name="b" type="B"/>
		</ComponentType>
	</Lems>`, `<A type="A"><B type="B" q="2"/></A>`, false)

	if got := floatAt(t, coll.Parameters, "b_q"); got != 2.0 {
		t.Errorf("b_q = %v, want 2.0", got)
	}
}

// Scenario 3: children collection. The slot name "gs" is itself a real,
// visible Context label (see Context.Enter), so the flattened key carries
// all three components: slot, id, exposure.
func TestCollapseChildrenCollection(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="G">
			<Exposure name="g" dimension="none"/>
		</ComponentType>
		<ComponentType name="A">
			<Children name="gs" type="G"/>
		</ComponentType>
	</Lems>`, `<A type="A"><G type="G" id="g0"/><G type="G" id="g1"/></A>`, false)

	for _, key := range []string{"gs_g0_g", "gs_g1_g"} {
		if _, ok := coll.Exposures[key]; !ok {
			t.Errorf("exposures missing %q, got %v", key, coll.Exposures)
		}
	}
}

// Scenario 4: reduce=multiply over a children collection.
func TestCollapseSelectReduceMultiply(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="Gate">
			<Exposure name="fcond" dimension="none"/>
		</ComponentType>
		<ComponentType name="A">
			<Children name="gates" type="Gate"/>
			<Dynamics>
				<DerivedVariable name="fopen" select="gates[*]/fcond" reduce="multiply"/>
			</Dynamics>
		</ComponentType>
	</Lems>`, `<A type="A"><Gate type="Gate" id="m"/><Gate type="Gate" id="h"/></A>`, false)

	var fopen *lems.Variable
	for i := range coll.Variables {
		if coll.Variables[i].Name == "fopen" {
			fopen = &coll.Variables[i]
		}
	}
	if fopen == nil {
		t.Fatalf("variable fopen not found in %+v", coll.Variables)
	}
	if fopen.Kind != lems.KindDerived {
		t.Fatalf("fopen.Kind = %v, want Derived", fopen.Kind)
	}
	if len(fopen.Cases) != 0 || fopen.Default == nil {
		t.Fatalf("fopen should carry no cases and a Default, got %+v", fopen)
	}
	want := expr.Mul(expr.Var("gates_m_fcond"), expr.Var("gates_h_fcond"))
	if !fopen.Default.Equal(want) {
		t.Errorf("fopen.Default = %s, want %s", fopen.Default, want)
	}
}

// Scenario 5: kinetic transitions.
func TestCollapseKineticTransitions(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="Edge">
			<Text name="from"/>
			<Text name="to"/>
		</ComponentType>
		<ComponentType name="Node">
		</ComponentType>
		<ComponentType name="A">
			<Children name="states" type="Node"/>
			<Children name="transitions" type="Edge"/>
			<Dynamics>
				<KineticScheme name="ks" nodes="states" edges="transitions" stateVariable="occupancy" forwardRate="f" reverseRate="b"/>
			</Dynamics>
		</ComponentType>
	</Lems>`, `<A type="A">
		<Node type="Node" id="C"/>
		<Node type="Node" id="O"/>
		<Node type="Node" id="I"/>
		<Edge type="Edge" id="e0" from="C" to="O"/>
		<Edge type="Edge" id="e1" from="O" to="I"/>
	</A>`, false)

	want := []Transition{
		{From: "states_C_occupancy", To: "states_O_occupancy", Forward: "transitions_e0_f", Backward: "transitions_e0_b"},
		{From: "states_O_occupancy", To: "states_I_occupancy", Forward: "transitions_e1_f", Backward: "transitions_e1_b"},
	}
	if diff := cmp.Diff(want, coll.Transitions); diff != "" {
		t.Errorf("Transitions mismatch (-want +got):\n%s", diff)
	}
}

// Scenario 6: constant propagation.
func TestSimplifyConstantPropagation(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="A">
			<Parameter name="x"/>
			<Constant name="k" value="2"/>
			<Dynamics>
				<DerivedVariable name="y" value="k * x"/>
			</Dynamics>
		</ComponentType>
	</Lems>`, `<A type="A" x="5"/>`, false)

	simplified, err := coll.Simplify("+x")
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if len(simplified.Constants) != 0 {
		t.Errorf("Constants = %v, want empty after simplify", simplified.Constants)
	}
	if len(simplified.Parameters) != 1 {
		t.Fatalf("Parameters = %v, want exactly {x}", simplified.Parameters)
	}
	if got := floatAt(t, simplified.Parameters, "x"); got != 5.0 {
		t.Errorf("x = %v, want 5.0", got)
	}
	var y *lems.Variable
	for i := range simplified.Variables {
		if simplified.Variables[i].Name == "y" {
			y = &simplified.Variables[i]
		}
	}
	if y == nil || y.Default == nil {
		t.Fatalf("variable y missing or unset: %+v", simplified.Variables)
	}
	// simplifyProduct floats constant factors to the end of the term list,
	// so "k * x" folds to "x * 2", not "2 * x".
	want := expr.Mul(expr.Var("x"), expr.F64(2))
	if !y.Default.Equal(want) {
		t.Errorf("y.Default = %s, want %s", y.Default, want)
	}
}

// Invariant: no Select variable survives collapse.
func TestCollapseLeavesNoSelect(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="Gate">
			<Exposure name="fcond" dimension="none"/>
		</ComponentType>
		<ComponentType name="A">
			<Children name="gates" type="Gate"/>
			<Dynamics>
				<DerivedVariable name="fopen" select="gates[*]/fcond" reduce="add"/>
			</Dynamics>
		</ComponentType>
	</Lems>`, `<A type="A"><Gate type="Gate" id="m"/></A>`, false)

	for _, v := range coll.Variables {
		if v.Kind == lems.KindSelect {
			t.Errorf("variable %q still carries KindSelect after collapse", v.Name)
		}
	}
}

// Invariant: prefix monotonicity — a nested variable's collapsed name
// contains the child slot name as an underscore-delimited component.
func TestCollapsePrefixMonotonicity(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="B">
			<Dynamics>
				<StateVariable name="v" exposure="v" dimension="none"/>
				<TimeDerivative variable="v" value="0"/>
			</Dynamics>
		</ComponentType>
		<ComponentType name="A">
			<Child name="b" type="B"/>
		</ComponentType>
	</Lems>`, `<A type="A"><B type="B"/></A>`, false)

	found := false
	for _, v := range coll.Variables {
		if v.Name == "b_v" {
			found = true
		}
	}
	if !found {
		t.Errorf("variables = %+v, want one named b_v", coll.Variables)
	}
}

// Invariant: filter monotonicity — a superset retain filter yields a
// superset of retained parameters.
func TestSimplifyFilterMonotonicity(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="A">
			<Parameter name="x"/>
			<Parameter name="y"/>
		</ComponentType>
	</Lems>`, `<A type="A" x="1" y="2"/>`, false)

	narrow, err := coll.Simplify("+x")
	if err != nil {
		t.Fatalf("Simplify(+x): %v", err)
	}
	wide, err := coll.Simplify("+x,+y")
	if err != nil {
		t.Fatalf("Simplify(+x,+y): %v", err)
	}
	for k := range narrow.Parameters {
		if _, ok := wide.Parameters[k]; !ok {
			t.Errorf("wide filter dropped %q that the narrow filter retained", k)
		}
	}
	if len(wide.Parameters) <= len(narrow.Parameters) {
		t.Errorf("wide.Parameters = %v, want a strict superset of narrow.Parameters = %v", wide.Parameters, narrow.Parameters)
	}
}

// Simplify is idempotent: re-applying it to its own output changes nothing.
func TestSimplifyIsIdempotent(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="A">
			<Parameter name="x"/>
			<Constant name="k" value="2"/>
			<Dynamics>
				<DerivedVariable name="y" value="k * x"/>
			</Dynamics>
		</ComponentType>
	</Lems>`, `<A type="A" x="5"/>`, false)

	once, err := coll.Simplify("+x")
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	twice, err := once.Simplify("+x")
	if err != nil {
		t.Fatalf("Simplify (second pass): %v", err)
	}
	if !collapsedVarsEqual(once, twice) {
		t.Errorf("simplify is not idempotent: once=%+v twice=%+v", once.Variables, twice.Variables)
	}
}

func TestSimplifyBadFilterToken(t *testing.T) {
	coll := mustCollapse(t, `<Lems>
		<ComponentType name="A">
			<Parameter name="x"/>
		</ComponentType>
	</Lems>`, `<A type="A" x="1"/>`, false)

	if _, err := coll.Simplify("x"); err == nil {
		t.Errorf("expected BadFilter error for token without +/- prefix")
	}
}
