package collapse

import (
	"strings"

	"github.com/golang/glog"

	"github.com/brenthuisman/nmlcc/internal/expr"
	"github.com/brenthuisman/nmlcc/lems"
	"github.com/brenthuisman/nmlcc/nmlerr"
)

// Simplify applies the parameter retention filter described by filter, then
// iteratively propagates every dropped parameter's value, every constant,
// and every trivial (bare literal or bare variable) Derived variable into
// the remaining State/Derived expressions until a fixed point is reached
// (§4.7). The receiver is left untouched; Simplify returns a new Collapsed.
func (c *Collapsed) Simplify(filter string) (*Collapsed, error) {
	retain, err := computeRetain(filter, c.Parameters)
	if err != nil {
		return nil, err
	}

	cur := c.clone()
	for {
		next := propagateOnce(cur, retain)
		if collapsedVarsEqual(cur, next) {
			cur = next
			break
		}
		cur = next
	}

	cur.Constants = map[string]float64{}
	for name := range cur.Parameters {
		if !retain[name] {
			delete(cur.Parameters, name)
		}
	}
	return cur, nil
}

// computeRetain parses filter (a comma-separated list of "+name", "-name",
// "+prefix*" or "-prefix*" tokens, applied in order against params' keys)
// into the set of parameter names to keep as user-supplied dials. Every
// parameter with an unspecified (nil) value is retained unconditionally,
// regardless of filter, since it has no value to propagate.
func computeRetain(filter string, params map[string]*float64) (map[string]bool, error) {
	retain := map[string]bool{}
	if strings.TrimSpace(filter) != "" {
		for _, tok := range strings.Split(filter, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			var add bool
			switch tok[0] {
			case '+':
				add = true
			case '-':
				add = false
			default:
				return nil, nmlerr.New(nmlerr.BadFilter, "filter token %q lacks a leading + or -", tok)
			}
			stem := tok[1:]
			wildcard := strings.HasSuffix(stem, "*")
			prefix := strings.TrimSuffix(stem, "*")
			for name := range params {
				matched := stem == name
				if wildcard {
					matched = strings.HasPrefix(name, prefix)
				}
				if !matched {
					continue
				}
				if add {
					retain[name] = true
				} else {
					delete(retain, name)
				}
			}
		}
	}
	for name, val := range params {
		if val == nil {
			retain[name] = true
		}
	}
	return retain, nil
}

// buildSubstitution collects every symbol whose value is known in cur: a
// dropped parameter's numeric value, every constant, and every Derived
// variable with no guards whose Default is a bare literal or a bare
// variable reference (a pure alias).
func buildSubstitution(cur *Collapsed, retain map[string]bool) map[string]expr.Expr {
	subst := map[string]expr.Expr{}
	for name, val := range cur.Parameters {
		if !retain[name] && val != nil {
			subst[name] = expr.F64(*val)
		}
	}
	for name, val := range cur.Constants {
		subst[name] = expr.F64(val)
	}
	for _, v := range cur.Variables {
		if v.Kind != lems.KindDerived || len(v.Cases) != 0 || v.Default == nil {
			continue
		}
		if f, ok := v.Default.IsF64(); ok {
			subst[v.Name] = expr.F64(f)
			continue
		}
		if name, ok := v.Default.IsVar(); ok {
			subst[v.Name] = expr.Var(name)
		}
	}
	return subst
}

func substitute(e expr.Expr, subst map[string]expr.Expr) expr.Expr {
	return expr.Map(e, func(n expr.Expr) expr.Expr {
		if name, ok := n.IsVar(); ok {
			if r, ok := subst[name]; ok {
				return r
			}
		}
		return n
	})
}

func substituteBool(b expr.Boolean, subst map[string]expr.Expr) expr.Boolean {
	return expr.MapBool(b, func(n expr.Expr) expr.Expr {
		if name, ok := n.IsVar(); ok {
			if r, ok := subst[name]; ok {
				return r
			}
		}
		return n
	})
}

// propagateOnce runs a single substitution + algebraic simplification pass
// over every State/Derived variable in cur, returning the result as a new
// Collapsed. Select variables cannot reach here: From always resolves them
// before returning (see ResolveSelects).
func propagateOnce(cur *Collapsed, retain map[string]bool) *Collapsed {
	subst := buildSubstitution(cur, retain)
	next := cur.clone()
	for i, v := range next.Variables {
		switch v.Kind {
		case lems.KindState:
			if v.Initial != nil {
				e := expr.Simplify(substitute(*v.Initial, subst))
				v.Initial = &e
			}
			if v.Derivative != nil {
				e := expr.Simplify(substitute(*v.Derivative, subst))
				v.Derivative = &e
			}
		case lems.KindDerived:
			cases := make([]lems.Case, len(v.Cases))
			for j, cs := range v.Cases {
				cases[j] = lems.Case{
					Guard: expr.SimplifyBool(substituteBool(cs.Guard, subst)),
					Value: expr.Simplify(substitute(cs.Value, subst)),
				}
			}
			v.Cases = cases
			if v.Default != nil {
				e := expr.Simplify(substitute(*v.Default, subst))
				v.Default = &e
			}
		default:
			glog.V(2).Infof("collapse: simplify: variable %q has unexpected kind %v, leaving untouched", v.Name, v.Kind)
		}
		next.Variables[i] = v
	}
	return next
}

// collapsedVarsEqual reports whether a and b carry identical Variables,
// in identical order — the fixed-point test for Simplify's propagation
// loop. Every other field is untouched by propagateOnce.
func collapsedVarsEqual(a, b *Collapsed) bool {
	if len(a.Variables) != len(b.Variables) {
		return false
	}
	for i := range a.Variables {
		if !variableEqual(a.Variables[i], b.Variables[i]) {
			return false
		}
	}
	return true
}

func variableEqual(a, b lems.Variable) bool {
	if a.Name != b.Name || a.Exposure != b.Exposure || a.Dimension != b.Dimension || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case lems.KindState:
		return exprPtrEqual(a.Initial, b.Initial) && exprPtrEqual(a.Derivative, b.Derivative)
	case lems.KindDerived:
		if len(a.Cases) != len(b.Cases) {
			return false
		}
		for i := range a.Cases {
			if !a.Cases[i].Guard.Equal(b.Cases[i].Guard) || !a.Cases[i].Value.Equal(b.Cases[i].Value) {
				return false
			}
		}
		return exprPtrEqual(a.Default, b.Default)
	case lems.KindSelect:
		return a.Match.String() == b.Match.String() && a.By == b.By
	}
	return true
}

func exprPtrEqual(a, b *expr.Expr) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return a.Equal(*b)
}

// clone deep-copies c so propagateOnce and Simplify never mutate the
// receiver in place.
func (c *Collapsed) clone() *Collapsed {
	out := &Collapsed{
		Name:          c.Name,
		HasName:       c.HasName,
		Exposures:     make(map[string]string, len(c.Exposures)),
		Constants:     make(map[string]float64, len(c.Constants)),
		Parameters:    make(map[string]*float64, len(c.Parameters)),
		Attributes:    make(map[string]*string, len(c.Attributes)),
		Events:        append([]lems.Event(nil), c.Events...),
		Kinetic:       append([]lems.Kinetic(nil), c.Kinetic...),
		Transitions:   append([]Transition(nil), c.Transitions...),
		exposureOrder: append([]string(nil), c.exposureOrder...),
	}
	for k, v := range c.Exposures {
		out.Exposures[k] = v
	}
	for k, v := range c.Constants {
		out.Constants[k] = v
	}
	for k, v := range c.Parameters {
		if v == nil {
			out.Parameters[k] = nil
			continue
		}
		vv := *v
		out.Parameters[k] = &vv
	}
	for k, v := range c.Attributes {
		if v == nil {
			out.Attributes[k] = nil
			continue
		}
		vv := *v
		out.Attributes[k] = &vv
	}
	out.Variables = make([]lems.Variable, len(c.Variables))
	for i, v := range c.Variables {
		out.Variables[i] = cloneVariable(v)
	}
	return out
}

func cloneVariable(v lems.Variable) lems.Variable {
	out := v
	if v.Initial != nil {
		e := *v.Initial
		out.Initial = &e
	}
	if v.Derivative != nil {
		e := *v.Derivative
		out.Derivative = &e
	}
	if v.Default != nil {
		e := *v.Default
		out.Default = &e
	}
	out.Cases = append([]lems.Case(nil), v.Cases...)
	return out
}
