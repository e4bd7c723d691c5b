// Package collapse flattens an instance tree into a single-namespace
// symbolic IR: it resolves Select variables against the exposures reachable
// from the component hierarchy, materialises kinetic schemes into explicit
// transition tuples, and (via Simplify) performs iterative constant
// propagation under a user-supplied parameter retention filter.
package collapse

import (
	"fmt"
	"sort"

	"github.com/golang/glog"

	"github.com/brenthuisman/nmlcc/instance"
	"github.com/brenthuisman/nmlcc/internal/expr"
	"github.com/brenthuisman/nmlcc/lems"
	"github.com/brenthuisman/nmlcc/nmlerr"
)

// Transition is one materialised kinetic-scheme edge: a pair of state
// symbols linked by a pair of rate symbols.
type Transition struct {
	From, To         string
	Forward, Backward string
}

// Collapsed is the flattened IR produced by From/Simplify: every symbol
// name is a flat string built by joining scope labels with "_".
type Collapsed struct {
	Name        string
	HasName     bool
	Exposures   map[string]string
	Variables   []lems.Variable
	Constants   map[string]float64
	Parameters  map[string]*float64
	Attributes  map[string]*string
	Events      []lems.Event
	Kinetic     []lems.Kinetic
	Transitions []Transition

	// exposureOrder mirrors Exposures' keys in deterministic path order:
	// sub-instances in document order (see instance.SlotRef), each
	// component's own exposures sorted by name. Select resolution (ResolveSelects) must
	// consult this instead of ranging over the Exposures map.
	exposureOrder []string
}

func newCollapsed() *Collapsed {
	return &Collapsed{
		Exposures:  map[string]string{},
		Constants:  map[string]float64{},
		Parameters: map[string]*float64{},
		Attributes: map[string]*string{},
	}
}

// From collapses the root instance into a Collapsed IR. useName controls
// whether the root instance's own id (or "Unknown") seeds the symbol
// namespace; passing false means top-level symbols carry no root prefix.
func From(root *instance.Instance, useName bool) (*Collapsed, error) {
	ctx := &Context{}
	coll, err := fromInstance(root, ctx, "", useName)
	if err != nil {
		return nil, err
	}
	if err := materialiseTransitions(coll, root); err != nil {
		return nil, err
	}
	return coll, nil
}

func localSymbols(ct *lems.ComponentType) []string {
	var out []string
	for k := range ct.Exposures {
		out = append(out, k)
	}
	out = append(out, ct.Parameters...)
	for k := range ct.Constants {
		out = append(out, k)
	}
	for _, v := range ct.Variables {
		out = append(out, v.Name)
	}
	return out
}

func fromInstance(inst *instance.Instance, ctx *Context, slotName string, addName bool) (*Collapsed, error) {
	ct := inst.ComponentType

	label := ""
	if addName {
		switch {
		case inst.HasID:
			label = inst.ID
		case slotName != "":
			label = slotName
		default:
			glog.Infof("collapse: instance of %q has no id, defaulting label to \"Unknown\"", ct.Name)
			label = "Unknown"
		}
	}
	ctx.Enter(label, localSymbols(ct))
	defer ctx.Exit()

	result := newCollapsed()
	if inst.HasID {
		result.Name, result.HasName = inst.ID, true
	}

	expNames := make([]string, 0, len(ct.Exposures))
	for k := range ct.Exposures {
		expNames = append(expNames, k)
	}
	sort.Strings(expNames)
	for _, k := range expNames {
		key := ctx.AddPrefix(k)
		result.Exposures[key] = ct.Exposures[k]
		result.exposureOrder = append(result.exposureOrder, key)
	}
	for _, e := range ct.Events {
		result.Events = append(result.Events, lems.Event{Variable: ctx.AddPrefix(e.Variable), Value: e.Value})
	}
	for k, v := range ct.Constants {
		result.Constants[ctx.AddPrefix(k)] = v
	}
	for _, p := range ct.Parameters {
		var val *float64
		if q, ok := inst.Parameters[p]; ok {
			v := q.Value
			val = &v
		}
		result.Parameters[ctx.AddPrefix(p)] = val
	}
	for _, a := range ct.Attributes {
		var val *string
		if s, ok := inst.Attributes[a]; ok {
			v := s
			val = &v
		}
		result.Attributes[ctx.AddPrefix(a)] = val
	}
	for _, k := range ct.Kinetic {
		result.Kinetic = append(result.Kinetic, k.AddPrefix(ctx.Keys()))
	}
	for _, v := range ct.Variables {
		result.Variables = append(result.Variables, ctx.RenameVariable(v))
	}

	for _, ref := range inst.Order {
		if ref.Collection {
			ctx.Enter(ref.Name, nil)
			for _, child := range inst.Children[ref.Name] {
				sub, err := fromInstance(child, ctx, "", true)
				if err != nil {
					return nil, err
				}
				mergeInto(result, sub)
			}
			ctx.Exit()
			continue
		}
		sub, err := fromInstance(inst.Child[ref.Name], ctx, ref.Name, true)
		if err != nil {
			return nil, err
		}
		mergeInto(result, sub)
	}

	if err := ResolveSelects(result); err != nil {
		return nil, err
	}

	return result, nil
}

// mergeInto extends dst with src's fields: mapping fields are unioned with
// src's entries overwriting same-keyed dst entries; sequence fields are
// appended, preserving insertion order.
func mergeInto(dst, src *Collapsed) {
	for k, v := range src.Exposures {
		dst.Exposures[k] = v
	}
	dst.exposureOrder = append(dst.exposureOrder, src.exposureOrder...)
	for k, v := range src.Constants {
		dst.Constants[k] = v
	}
	for k, v := range src.Parameters {
		dst.Parameters[k] = v
	}
	for k, v := range src.Attributes {
		dst.Attributes[k] = v
	}
	dst.Variables = append(dst.Variables, src.Variables...)
	dst.Events = append(dst.Events, src.Events...)
	dst.Kinetic = append(dst.Kinetic, src.Kinetic...)
	dst.Transitions = append(dst.Transitions, src.Transitions...)
}

// ResolveSelects rewrites every Select variable still present in coll's
// Variables in place, per §4.6: its match pattern is evaluated against
// coll's exposures in path order and folded into a Derived([], Some(e))
// using the variable's reducer.
func ResolveSelects(coll *Collapsed) error {
	for i := range coll.Variables {
		v := coll.Variables[i]
		if v.Kind != lems.KindSelect {
			continue
		}
		matches := v.Match.OnPath(coll.exposureOrder)
		ms := make([]expr.Expr, len(matches))
		for j, m := range matches {
			ms[j] = expr.Var(m)
		}
		var e expr.Expr
		switch v.By {
		case lems.SelectGet:
			if len(ms) != 1 {
				return nmlerr.New(nmlerr.MissingRequired,
					"select %q on %q matched %d exposures, want exactly 1", v.Match, v.Name, len(ms))
			}
			e = ms[0]
		case lems.SelectSum:
			if len(ms) == 0 {
				e = expr.F64(0)
			} else {
				e = expr.Add(ms...)
			}
		case lems.SelectProduct:
			if len(ms) == 0 {
				e = expr.F64(1)
			} else {
				e = expr.Mul(ms...)
			}
		default:
			return fmt.Errorf("collapse: unknown select reducer %v on %q", v.By, v.Name)
		}
		v.Kind = lems.KindDerived
		v.Cases = nil
		v.Default = &e
		v.Match = lems.Match{}
		coll.Variables[i] = v
	}
	return nil
}
