package collapse

import (
	"github.com/golang/glog"

	"github.com/brenthuisman/nmlcc/internal/expr"
	"github.com/brenthuisman/nmlcc/lems"
)

type frame struct {
	label  string
	locals map[string]bool
}

// Context is a stack of (prefix-label, local-symbol-set) frames used to
// build flat, globally-qualified symbol names and to rewrite variable
// references as the instance tree is flattened. The zero value is an
// empty context, ready to use.
type Context struct {
	frames []frame
}

// Enter pushes a frame. label == "" marks an invisible prefix frame: it
// still participates in Rename (its locals are visible to descendants) but
// contributes nothing to Keys/AddPrefix. The root instance's own frame is
// the only caller that passes "" (when collapsing with use_name=false); a
// `children` group enters with the slot name itself as a real, visible
// label, same as a `child` slot.
func (c *Context) Enter(label string, locals []string) {
	set := make(map[string]bool, len(locals))
	for _, l := range locals {
		set[l] = true
	}
	c.frames = append(c.frames, frame{label: label, locals: set})
}

// Exit pops the innermost frame.
func (c *Context) Exit() {
	c.frames = c.frames[:len(c.frames)-1]
}

// Keys returns the labels of every non-empty frame, outermost first.
func (c *Context) Keys() []string {
	var out []string
	for _, f := range c.frames {
		if f.label != "" {
			out = append(out, f.label)
		}
	}
	return out
}

// AddPrefix returns name qualified by the current scope chain.
func (c *Context) AddPrefix(name string) string {
	ks := c.Keys()
	if len(ks) == 0 {
		return name
	}
	out := ks[0]
	for _, k := range ks[1:] {
		out += "_" + k
	}
	return out + "_" + name
}

// Rename resolves a bare symbol name to its fully-qualified form: it walks
// frames innermost-to-outermost, and the moment a frame's locals declare
// name, every frame label from there outward is prepended. A name that no
// frame declares is returned unchanged (logged at trace level — it may be a
// forward reference or an externally supplied symbol).
func (c *Context) Rename(name string) string {
	found := false
	pfx := []string{name}
	for i := len(c.frames) - 1; i >= 0; i-- {
		f := c.frames[i]
		if f.locals[name] {
			found = true
		}
		if found && f.label != "" {
			pfx = append(pfx, f.label)
		}
	}
	if !found {
		glog.V(2).Infof("collapse: could not find %q in context", name)
	}
	out := pfx[len(pfx)-1]
	for i := len(pfx) - 2; i >= 0; i-- {
		out += "_" + pfx[i]
	}
	return out
}

// RenameExpr rewrites every Var leaf of e via Rename.
func (c *Context) RenameExpr(e expr.Expr) expr.Expr {
	return expr.Map(e, func(n expr.Expr) expr.Expr {
		if name, ok := n.IsVar(); ok {
			return expr.Var(c.Rename(name))
		}
		return n
	})
}

// RenameBool rewrites every Var leaf reachable from b via Rename.
func (c *Context) RenameBool(b expr.Boolean) expr.Boolean {
	return expr.MapBool(b, func(n expr.Expr) expr.Expr {
		if name, ok := n.IsVar(); ok {
			return expr.Var(c.Rename(name))
		}
		return n
	})
}

// RenameVariable rewrites v's name, exposure and kind-specific payload
// through the current context: State initial/derivative expressions,
// Derived case guards/values/default, or a Select match's path prefix.
func (c *Context) RenameVariable(v lems.Variable) lems.Variable {
	out := v
	out.Name = c.AddPrefix(v.Name)
	if v.Exposure != "" {
		out.Exposure = c.AddPrefix(v.Exposure)
	}
	switch v.Kind {
	case lems.KindState:
		if v.Initial != nil {
			e := c.RenameExpr(*v.Initial)
			out.Initial = &e
		}
		if v.Derivative != nil {
			e := c.RenameExpr(*v.Derivative)
			out.Derivative = &e
		}
	case lems.KindDerived:
		cases := make([]lems.Case, len(v.Cases))
		for i, cs := range v.Cases {
			cases[i] = lems.Case{Guard: c.RenameBool(cs.Guard), Value: c.RenameExpr(cs.Value)}
		}
		out.Cases = cases
		if v.Default != nil {
			e := c.RenameExpr(*v.Default)
			out.Default = &e
		}
	case lems.KindSelect:
		out.Match = v.Match.AddPrefix(c.Keys())
	}
	return out
}
