package lems

import (
	"fmt"

	"github.com/brenthuisman/nmlcc/internal/quantity"
	"github.com/brenthuisman/nmlcc/nmlerr"
)

// Registry holds the raw (uncomposed) ComponentType declarations parsed
// from a LEMS document, indexed by name. Compose resolves `extends` chains
// on demand and caches the result.
type Registry struct {
	raw      map[string]*ComponentType
	composed map[string]*ComponentType
}

// NewRegistry returns an empty Registry. Callers add declarations with
// Add, typically via ParseDocument.
func NewRegistry() *Registry {
	return &Registry{
		raw:      map[string]*ComponentType{},
		composed: map[string]*ComponentType{},
	}
}

// Add registers a single, as-declared (pre-composition) ComponentType.
func (r *Registry) Add(ct *ComponentType) {
	r.raw[ct.Name] = ct
}

// Compose returns the transitive merge of name with every ComponentType it
// extends, most-derived values winning per the merge rules in §4.1.
// Results are cached; calling Compose twice with the same name returns the
// same composed value.
func (r *Registry) Compose(name string) (*ComponentType, error) {
	if ct, ok := r.composed[name]; ok {
		return ct, nil
	}
	ct, err := r.compose(name, map[string]bool{})
	if err != nil {
		return nil, err
	}
	r.composed[name] = ct
	return ct, nil
}

func (r *Registry) compose(name string, visiting map[string]bool) (*ComponentType, error) {
	if visiting[name] {
		return nil, nmlerr.New(nmlerr.Cycle, "ComponentType %q participates in an extends cycle", name)
	}
	own, ok := r.raw[name]
	if !ok {
		return nil, nmlerr.New(nmlerr.UnknownType, "no ComponentType registered for %q", name)
	}
	var ct *ComponentType
	if own.Base == "" {
		ct = cloneComponentType(own)
	} else {
		visiting[name] = true
		base, err := r.compose(own.Base, visiting)
		if err != nil {
			return nil, fmt.Errorf("composing %q (extends %q): %w", name, own.Base, err)
		}
		delete(visiting, name)
		ct = merge(base, own)
	}
	if err := resolveFixed(ct); err != nil {
		return nil, fmt.Errorf("resolving Fixed entries of %q: %w", name, err)
	}
	return ct, nil
}

// resolveFixed applies every pending <Fixed> entry: the named parameter is
// dropped from Parameters and reappears as a Constant holding its fixed
// value. Entries are cleared afterwards so an ancestor's Fixed directives
// are never reapplied once a descendant has already absorbed them.
func resolveFixed(ct *ComponentType) error {
	if len(ct.Fixed) == 0 {
		return nil
	}
	for _, f := range ct.Fixed {
		q, err := quantity.Parse(f.Value)
		if err != nil {
			return nmlerr.Wrap(nmlerr.BadQuantity, err)
		}
		kept := ct.Parameters[:0]
		for _, p := range ct.Parameters {
			if p != f.Parameter {
				kept = append(kept, p)
			}
		}
		ct.Parameters = kept
		ct.Constants[f.Parameter] = q.Value
	}
	ct.Fixed = nil
	return nil
}

// merge combines a composed ancestor with a directly-declared descendant,
// per the rules in §4.1: scalars from the descendant win; mapping fields
// union with descendant entries overriding; sequence fields place ancestor
// entries first with descendant entries replacing same-named ones in
// place.
func merge(base, child *ComponentType) *ComponentType {
	out := cloneComponentType(base)
	out.Name = child.Name
	out.Base = child.Base

	for k, v := range child.Child {
		out.Child[k] = v
	}
	for k, v := range child.Children {
		out.Children[k] = v
	}
	for k, v := range child.Exposures {
		out.Exposures[k] = v
	}
	for k, v := range child.Constants {
		out.Constants[k] = v
	}
	for k, v := range child.Links {
		out.Links[k] = v
	}

	out.Parameters = mergeSeq(out.Parameters, child.Parameters, func(s string) string { return s })
	out.Attributes = mergeSeq(out.Attributes, child.Attributes, func(s string) string { return s })
	out.Variables = mergeSeq(out.Variables, child.Variables, func(v Variable) string { return v.Name })
	out.Events = mergeSeq(out.Events, child.Events, func(e Event) string { return e.Variable })
	out.Kinetic = mergeSeq(out.Kinetic, child.Kinetic, func(k Kinetic) string { return k.Name })
	out.Fixed = mergeSeq(out.Fixed, child.Fixed, func(f FixedEntry) string { return f.Parameter })

	return out
}

// mergeSeq places ancestor entries first, then descendant entries,
// replacing an ancestor entry in place when a descendant entry shares its
// key (as produced by keyOf), and appending descendant entries with no
// ancestor counterpart.
func mergeSeq[T any](ancestor, descendant []T, keyOf func(T) string) []T {
	out := append([]T(nil), ancestor...)
	index := make(map[string]int, len(out))
	for i, v := range out {
		index[keyOf(v)] = i
	}
	for _, v := range descendant {
		k := keyOf(v)
		if i, ok := index[k]; ok {
			out[i] = v
			continue
		}
		index[k] = len(out)
		out = append(out, v)
	}
	return out
}

// DerivedFrom reports whether a equals b or a transitively extends b. It
// walks the raw (uncomposed) declarations' extends chain upward from a;
// when a, or an ancestor on that chain, has no registration, it returns
// false alongside an UnknownType error.
func (r *Registry) DerivedFrom(a, b string) (bool, error) {
	if a == b {
		return true, nil
	}
	ct, ok := r.raw[a]
	if !ok {
		return false, nmlerr.New(nmlerr.UnknownType, "no ComponentType registered for %q", a)
	}
	if ct.Base == "" {
		return false, nil
	}
	return r.DerivedFrom(ct.Base, b)
}
