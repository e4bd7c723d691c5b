package lems

import (
	"github.com/brenthuisman/nmlcc/internal/expr"
	"github.com/brenthuisman/nmlcc/internal/quantity"
	"github.com/brenthuisman/nmlcc/internal/xmltree"
	"github.com/brenthuisman/nmlcc/nmlerr"
)

// ParseDocument reads a <Lems> document's top-level <ComponentType>
// elements into a Registry. Dimensions, Units and top-level <Component>
// declarations are not ComponentType bodies and are ignored here; a
// consumer that needs a top-level Component's own instantiation uses
// instance.Build directly against the relevant XML fragment.
func ParseDocument(root *xmltree.Node) (*Registry, error) {
	reg := NewRegistry()
	for _, child := range root.Children {
		if child.Tag != "ComponentType" {
			continue
		}
		ct, err := parseComponentType(child)
		if err != nil {
			return nil, err
		}
		reg.Add(ct)
	}
	return reg, nil
}

func parseComponentType(node *xmltree.Node) (*ComponentType, error) {
	name, ok := node.Attribute("name")
	if !ok {
		return nil, nmlerr.New(nmlerr.XmlParse, "<ComponentType> missing required attribute \"name\"")
	}
	ct := &ComponentType{
		Name:      name,
		Base:      node.AttributeOr("extends", ""),
		Child:     map[string]string{},
		Children:  map[string]string{},
		Constants: map[string]float64{},
		Exposures: map[string]string{},
		Links:     map[string]string{},
	}
	for _, child := range node.Children {
		switch child.Tag {
		case "Parameter":
			n, ok := child.Attribute("name")
			if !ok {
				return nil, nmlerr.New(nmlerr.XmlParse, "<Parameter> missing \"name\" in ComponentType %q", name)
			}
			ct.Parameters = append(ct.Parameters, n)
		case "Text":
			n, ok := child.Attribute("name")
			if !ok {
				return nil, nmlerr.New(nmlerr.XmlParse, "<Text> missing \"name\" in ComponentType %q", name)
			}
			ct.Attributes = append(ct.Attributes, n)
		case "Exposure":
			n, ok := child.Attribute("name")
			if !ok {
				return nil, nmlerr.New(nmlerr.XmlParse, "<Exposure> missing \"name\" in ComponentType %q", name)
			}
			ct.Exposures[n] = child.AttributeOr("dimension", "none")
		case "Child":
			n, ok := child.Attribute("name")
			t, okT := child.Attribute("type")
			if !ok || !okT {
				return nil, nmlerr.New(nmlerr.XmlParse, "<Child> missing \"name\" or \"type\" in ComponentType %q", name)
			}
			ct.Child[n] = t
		case "Children":
			n, ok := child.Attribute("name")
			if !ok {
				return nil, nmlerr.New(nmlerr.XmlParse, "<Children> missing \"name\" in ComponentType %q", name)
			}
			ct.Children[n] = child.AttributeOr("type", n)
		case "Link":
			n, ok := child.Attribute("name")
			t, okT := child.Attribute("type")
			if !ok || !okT {
				return nil, nmlerr.New(nmlerr.XmlParse, "<Link> missing \"name\" or \"type\" in ComponentType %q", name)
			}
			ct.Links[n] = t
		case "Constant":
			n, ok := child.Attribute("name")
			v, okV := child.Attribute("value")
			if !ok || !okV {
				return nil, nmlerr.New(nmlerr.XmlParse, "<Constant> missing \"name\" or \"value\" in ComponentType %q", name)
			}
			f, err := parseConstantValue(v)
			if err != nil {
				return nil, err
			}
			ct.Constants[n] = f
		case "Fixed":
			p, ok := child.Attribute("parameter")
			v, okV := child.Attribute("value")
			if !ok || !okV {
				return nil, nmlerr.New(nmlerr.XmlParse, "<Fixed> missing \"parameter\" or \"value\" in ComponentType %q", name)
			}
			ct.Fixed = append(ct.Fixed, FixedEntry{Parameter: p, Value: v})
		case "Dynamics":
			vars, events, kinetic, err := parseDynamics(child, name)
			if err != nil {
				return nil, err
			}
			ct.Variables = append(ct.Variables, vars...)
			ct.Events = append(ct.Events, events...)
			ct.Kinetic = append(ct.Kinetic, kinetic...)
		}
	}
	return ct, nil
}

func parseConstantValue(v string) (float64, error) {
	q, err := quantity.Parse(v)
	if err != nil {
		return 0, nmlerr.Wrap(nmlerr.BadQuantity, err)
	}
	return q.Value, nil
}

func parseDynamics(node *xmltree.Node, owner string) ([]Variable, []Event, []Kinetic, error) {
	var vars []Variable
	var events []Event
	var kinetic []Kinetic
	for _, child := range node.Children {
		switch child.Tag {
		case "StateVariable":
			n, ok := child.Attribute("name")
			if !ok {
				return nil, nil, nil, nmlerr.New(nmlerr.XmlParse, "<StateVariable> missing \"name\" in ComponentType %q", owner)
			}
			vars = append(vars, Variable{
				Name:      n,
				Exposure:  child.AttributeOr("exposure", ""),
				Dimension: child.AttributeOr("dimension", "none"),
				Kind:      KindState,
			})
		case "DerivedVariable":
			v, err := parseDerivedVariable(child, owner)
			if err != nil {
				return nil, nil, nil, err
			}
			vars = append(vars, v)
		case "ConditionalDerivedVariable":
			v, err := parseConditionalDerivedVariable(child, owner)
			if err != nil {
				return nil, nil, nil, err
			}
			vars = append(vars, v)
		case "TimeDerivative":
			n, ok := child.Attribute("variable")
			v, okV := child.Attribute("value")
			if !ok || !okV {
				return nil, nil, nil, nmlerr.New(nmlerr.XmlParse, "<TimeDerivative> missing \"variable\" or \"value\" in ComponentType %q", owner)
			}
			e, err := expr.Parse(v)
			if err != nil {
				return nil, nil, nil, nmlerr.Wrap(nmlerr.BadExpr, err)
			}
			if !setDerivative(vars, n, e) {
				return nil, nil, nil, nmlerr.New(nmlerr.MalformedDynamics,
					"<TimeDerivative> targets %q, which is not a declared StateVariable, in ComponentType %q", n, owner)
			}
		case "OnStart":
			for _, sa := range child.Children {
				if sa.Tag != "StateAssignment" {
					continue
				}
				v, e, err := parseStateAssignment(sa, owner)
				if err != nil {
					return nil, nil, nil, err
				}
				if !setInitial(vars, v, e) {
					return nil, nil, nil, nmlerr.New(nmlerr.MalformedDynamics,
						"<OnStart> assigns %q, which is not a declared StateVariable, in ComponentType %q", v, owner)
				}
			}
		case "OnEvent":
			for _, sa := range child.Children {
				if sa.Tag != "StateAssignment" {
					continue
				}
				v, e, err := parseStateAssignment(sa, owner)
				if err != nil {
					return nil, nil, nil, err
				}
				if !isStateVariable(vars, v) {
					return nil, nil, nil, nmlerr.New(nmlerr.MalformedDynamics,
						"<OnEvent> assigns %q, which is not a declared StateVariable, in ComponentType %q", v, owner)
				}
				events = append(events, Event{Variable: v, Value: e})
			}
		case "KineticScheme":
			k, err := parseKineticScheme(child, owner)
			if err != nil {
				return nil, nil, nil, err
			}
			kinetic = append(kinetic, k)
		}
	}
	return vars, events, kinetic, nil
}

func parseStateAssignment(node *xmltree.Node, owner string) (string, expr.Expr, error) {
	v, ok := node.Attribute("variable")
	val, okV := node.Attribute("value")
	if !ok || !okV {
		return "", expr.Expr{}, nmlerr.New(nmlerr.XmlParse, "<StateAssignment> missing \"variable\" or \"value\" in ComponentType %q", owner)
	}
	e, err := expr.Parse(val)
	if err != nil {
		return "", expr.Expr{}, nmlerr.Wrap(nmlerr.BadExpr, err)
	}
	return v, e, nil
}

// setDerivative/setInitial locate an already-declared State variable by
// name and fill in the half of its payload named by the caller, reporting
// whether a match was found. Per the ComponentType invariant, every
// TimeDerivative/OnStart/OnEvent target must name a variable declared
// earlier in the same Dynamics block as a StateVariable; the caller raises
// MalformedDynamics when it doesn't.
func setDerivative(vars []Variable, name string, e expr.Expr) bool {
	for i := range vars {
		if vars[i].Name == name && vars[i].Kind == KindState {
			d := e
			vars[i].Derivative = &d
			return true
		}
	}
	return false
}

func setInitial(vars []Variable, name string, e expr.Expr) bool {
	for i := range vars {
		if vars[i].Name == name && vars[i].Kind == KindState {
			d := e
			vars[i].Initial = &d
			return true
		}
	}
	return false
}

func isStateVariable(vars []Variable, name string) bool {
	for i := range vars {
		if vars[i].Name == name && vars[i].Kind == KindState {
			return true
		}
	}
	return false
}

func parseDerivedVariable(node *xmltree.Node, owner string) (Variable, error) {
	n, ok := node.Attribute("name")
	if !ok {
		return Variable{}, nmlerr.New(nmlerr.XmlParse, "<DerivedVariable> missing \"name\" in ComponentType %q", owner)
	}
	v := Variable{
		Name:      n,
		Exposure:  node.AttributeOr("exposure", ""),
		Dimension: node.AttributeOr("dimension", "none"),
	}
	if sel, ok := node.Attribute("select"); ok {
		v.Kind = KindSelect
		m, err := ParseMatch(sel)
		if err != nil {
			return Variable{}, nmlerr.Wrap(nmlerr.BadExpr, err)
		}
		v.Match = m
		switch node.AttributeOr("reduce", "") {
		case "", "get":
			v.By = SelectGet
		case "add":
			v.By = SelectSum
		case "multiply":
			v.By = SelectProduct
		default:
			return Variable{}, nmlerr.New(nmlerr.MalformedDynamics,
				"<DerivedVariable> %q has unknown reduce %q in ComponentType %q", n, node.AttributeOr("reduce", ""), owner)
		}
		return v, nil
	}
	v.Kind = KindDerived
	if val, ok := node.Attribute("value"); ok {
		e, err := expr.Parse(val)
		if err != nil {
			return Variable{}, nmlerr.Wrap(nmlerr.BadExpr, err)
		}
		v.Default = &e
	}
	return v, nil
}

func parseConditionalDerivedVariable(node *xmltree.Node, owner string) (Variable, error) {
	n, ok := node.Attribute("name")
	if !ok {
		return Variable{}, nmlerr.New(nmlerr.XmlParse, "<ConditionalDerivedVariable> missing \"name\" in ComponentType %q", owner)
	}
	v := Variable{
		Name:      n,
		Exposure:  node.AttributeOr("exposure", ""),
		Dimension: node.AttributeOr("dimension", "none"),
		Kind:      KindDerived,
	}
	for _, c := range node.Children {
		if c.Tag != "Case" {
			continue
		}
		val, ok := c.Attribute("value")
		if !ok {
			return Variable{}, nmlerr.New(nmlerr.XmlParse, "<Case> missing \"value\" in ComponentType %q", owner)
		}
		e, err := expr.Parse(val)
		if err != nil {
			return Variable{}, nmlerr.Wrap(nmlerr.BadExpr, err)
		}
		cond, hasCond := c.Attribute("condition")
		if !hasCond {
			v.Default = &e
			continue
		}
		g, err := expr.ParseBool(cond)
		if err != nil {
			return Variable{}, nmlerr.Wrap(nmlerr.BadExpr, err)
		}
		v.Cases = append(v.Cases, Case{Guard: g, Value: e})
	}
	return v, nil
}

func parseKineticScheme(node *xmltree.Node, owner string) (Kinetic, error) {
	get := func(attr string) (string, error) {
		v, ok := node.Attribute(attr)
		if !ok {
			return "", nmlerr.New(nmlerr.XmlParse, "<KineticScheme> missing %q in ComponentType %q", attr, owner)
		}
		return v, nil
	}
	name, err := get("name")
	if err != nil {
		return Kinetic{}, err
	}
	nodes, err := get("nodes")
	if err != nil {
		return Kinetic{}, err
	}
	edges, err := get("edges")
	if err != nil {
		return Kinetic{}, err
	}
	stateVar, err := get("stateVariable")
	if err != nil {
		return Kinetic{}, err
	}
	fwd, err := get("forwardRate")
	if err != nil {
		return Kinetic{}, err
	}
	bwd, err := get("reverseRate")
	if err != nil {
		return Kinetic{}, err
	}
	nodeMatch, err := ParseMatch(nodes + "[*]")
	if err != nil {
		return Kinetic{}, nmlerr.Wrap(nmlerr.UnsupportedPattern, err)
	}
	edgeMatch, err := ParseMatch(edges + "[*]")
	if err != nil {
		return Kinetic{}, nmlerr.Wrap(nmlerr.UnsupportedPattern, err)
	}
	return Kinetic{
		Name:     name,
		Node:     nodeMatch,
		Edge:     edgeMatch,
		StateVar: stateVar,
		Forward:  fwd,
		Backward: bwd,
	}, nil
}
