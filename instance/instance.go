// Package instance turns a parsed XML component fragment into an Instance
// tree: a ComponentType bound to concrete parameter values, string
// attributes, and nested child/children sub-instances, ready for the
// collapse pass.
package instance

import (
	"github.com/brenthuisman/nmlcc/internal/quantity"
	"github.com/brenthuisman/nmlcc/internal/xmltree"
	"github.com/brenthuisman/nmlcc/lems"
	"github.com/brenthuisman/nmlcc/nmlerr"
)

// Instance is a ComponentType realised against a concrete XML fragment.
type Instance struct {
	ComponentType *lems.ComponentType
	ID            string // "" if the fragment carried no id attribute
	HasID         bool
	Parameters    map[string]quantity.Quantity
	Attributes    map[string]string
	Child         map[string]*Instance
	Children      map[string][]*Instance

	// Order lists, in XML document order, every distinct child/children
	// slot this instance populated. Collapse walks sub-instances through
	// Order rather than by ranging over Child/Children directly, so that
	// the flattened IR's deterministic output (variable order, select
	// match order) never depends on Go's randomised map iteration.
	Order []SlotRef
}

// SlotRef names one child/children slot in the order it was first
// populated.
type SlotRef struct {
	Name       string
	Collection bool
}

// Build realises node against reg: it resolves node's ComponentType (via
// its "type" attribute, falling back to the element's tag name), composes
// it, classifies each XML attribute as a parameter/attribute/link/ignored
// key, and recurses into child elements, routing each one into the `child`
// slot named by its tag (failing that, into the single `child` slot whose
// declared type the element's type derives from), or else into every
// `children` slot whose declared type the element's type derives from.
func Build(reg *lems.Registry, node *xmltree.Node) (*Instance, error) {
	typeName := node.AttributeOr("type", node.Tag)
	ct, err := reg.Compose(typeName)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		ComponentType: ct,
		Parameters:    map[string]quantity.Quantity{},
		Attributes:    map[string]string{},
		Child:         map[string]*Instance{},
		Children:      map[string][]*Instance{},
	}

	isParam := toSet(ct.Parameters)
	isAttr := toSet(ct.Attributes)
	links := linkSet(ct)

	// Every attribute-classification and child-build failure on this node is
	// collected rather than bailing on the first one, so an invalid fragment
	// reports everything wrong with it in a single pass.
	var errs nmlerr.Errors

	for key, val := range node.Attrs {
		switch {
		case key == "id":
			inst.ID, inst.HasID = val, true
		case key == "type":
			// handled above
		case isParam[key]:
			q, err := quantity.Parse(val)
			if err != nil {
				errs = nmlerr.AppendErr(errs, nmlerr.Wrap(nmlerr.BadQuantity, err))
				continue
			}
			q, err = quantity.Normalise(q)
			if err != nil {
				errs = nmlerr.AppendErr(errs, nmlerr.Wrap(nmlerr.BadQuantity, err))
				continue
			}
			inst.Parameters[key] = q
		case isAttr[key] || links[key]:
			inst.Attributes[key] = val
		default:
			errs = nmlerr.AppendErr(errs, nmlerr.New(nmlerr.UnknownKey, "attribute %q is not a parameter, attribute, link, id or type of %q", key, typeName))
		}
	}

	for _, child := range node.Children {
		slot := child.Tag
		if _, ok := ct.Child[slot]; !ok {
			// No child slot is named after the tag: fall back to the one
			// child slot (if exactly one) whose declared type the element's
			// type derives from.
			slot = ""
			for name, slotType := range ct.Child {
				if ok, err := reg.DerivedFrom(childElementType(child), slotType); err == nil && ok {
					if slot != "" {
						slot = ""
						break
					}
					slot = name
				}
			}
		}
		if slot != "" {
			sub, err := Build(reg, child)
			if err != nil {
				errs = nmlerr.AppendErr(errs, err)
				continue
			}
			inst.Child[slot] = sub
			inst.Order = append(inst.Order, SlotRef{Name: slot})
			continue
		}
		// Elements matching no child/children slot (documentation nodes,
		// schema stragglers) are silently skipped; an element whose type is
		// not a registered ComponentType derives from no slot type.
		for slot, slotType := range ct.Children {
			if ok, err := reg.DerivedFrom(childElementType(child), slotType); err != nil || !ok {
				continue
			}
			sub, err := Build(reg, child)
			if err != nil {
				errs = nmlerr.AppendErr(errs, err)
				continue
			}
			if len(inst.Children[slot]) == 0 {
				inst.Order = append(inst.Order, SlotRef{Name: slot, Collection: true})
			}
			inst.Children[slot] = append(inst.Children[slot], sub)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return inst, nil
}

func childElementType(node *xmltree.Node) string {
	return node.AttributeOr("type", node.Tag)
}

func toSet(xs []string) map[string]bool {
	out := make(map[string]bool, len(xs))
	for _, x := range xs {
		out[x] = true
	}
	return out
}

func linkSet(ct *lems.ComponentType) map[string]bool {
	out := make(map[string]bool, len(ct.Links))
	for k := range ct.Links {
		out[k] = true
	}
	return out
}
