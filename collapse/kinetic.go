package collapse

import (
	"strings"

	"github.com/brenthuisman/nmlcc/instance"
	"github.com/brenthuisman/nmlcc/lems"
	"github.com/brenthuisman/nmlcc/nmlerr"
)

// walkLeaf is one instance reached by walking a kinetic Match against the
// original instance tree, paired with the path of slot/id labels taken to
// reach it.
type walkLeaf struct {
	pfx  []string
	inst *instance.Instance
}

// walkMatch walks m against root segment-by-segment, per §4.5:
//   - a Fixed(s) segment immediately followed by another Fixed(q) enters
//     the children collection s and keeps only the member whose id is q
//     (consumes both segments);
//   - a standalone Fixed(s) descends into the single child s;
//   - a When(s, "*") segment descends into every member of children
//     collection s.
//
// Any other segment shape is rejected as UnsupportedPattern.
func walkMatch(m lems.Match, root *instance.Instance) ([]walkLeaf, error) {
	nodes := []walkLeaf{{inst: root}}
	segs := m.Segments
	for i := 0; i < len(segs); {
		seg := segs[i]
		switch seg.Kind {
		case lems.PathFixed:
			if i+1 < len(segs) && segs[i+1].Kind == lems.PathFixed {
				s, q := seg.Name, segs[i+1].Name
				var next []walkLeaf
				for _, n := range nodes {
					for _, x := range n.inst.Children[s] {
						if x.HasID && x.ID == q {
							next = append(next, walkLeaf{pfx: appendPfx(n.pfx, s, x.ID), inst: x})
						}
					}
				}
				nodes = next
				i += 2
				continue
			}
			s := seg.Name
			var next []walkLeaf
			for _, n := range nodes {
				if child, ok := n.inst.Child[s]; ok {
					next = append(next, walkLeaf{pfx: appendPfx(n.pfx, s), inst: child})
				}
			}
			nodes = next
			i++
		case lems.PathWhen:
			if seg.Selector != "*" {
				return nil, nmlerr.New(nmlerr.UnsupportedPattern,
					"kinetic pattern segment %q: only wildcard selectors are supported here", seg)
			}
			s := seg.Name
			var next []walkLeaf
			for _, n := range nodes {
				for _, x := range n.inst.Children[s] {
					next = append(next, walkLeaf{pfx: appendPfx(n.pfx, s, x.ID), inst: x})
				}
			}
			nodes = next
			i++
		default:
			return nil, nmlerr.New(nmlerr.UnsupportedPattern, "unrecognised kinetic pattern segment kind")
		}
	}
	return nodes, nil
}

func appendPfx(pfx []string, more ...string) []string {
	out := make([]string, 0, len(pfx)+len(more))
	out = append(out, pfx...)
	return append(out, more...)
}

// nodePrefix derives the (known-lossy — see §9) node-side symbol prefix by
// joining every node-pattern segment's name, regardless of whether it was
// Fixed or When-selected. This discards per-node id information on
// purpose, matching the original pipeline's behaviour exactly: consumers
// that need distinct per-state-node symbols must give every node a unique
// id within its collection.
func nodePrefix(m lems.Match) string {
	names := make([]string, len(m.Segments))
	for i, s := range m.Segments {
		names[i] = s.Name
	}
	return strings.Join(names, "_")
}

// materialiseTransitions walks every Kinetic descriptor collected in coll
// against root (the original, pre-collapse instance tree) and appends one
// Transition per matched edge instance.
func materialiseTransitions(coll *Collapsed, root *instance.Instance) error {
	for _, k := range coll.Kinetic {
		leaves, err := walkMatch(k.Edge, root)
		if err != nil {
			return err
		}
		qfx := nodePrefix(k.Node)
		for _, leaf := range leaves {
			from, ok := leaf.inst.Attributes["from"]
			if !ok {
				return nmlerr.New(nmlerr.XmlParse, "kinetic edge instance in scheme %q missing required attribute \"from\"", k.Name)
			}
			to, ok := leaf.inst.Attributes["to"]
			if !ok {
				return nmlerr.New(nmlerr.XmlParse, "kinetic edge instance in scheme %q missing required attribute \"to\"", k.Name)
			}
			pfx := strings.Join(leaf.pfx, "_")
			coll.Transitions = append(coll.Transitions, Transition{
				From:     qfx + "_" + from + "_" + k.StateVar,
				To:       qfx + "_" + to + "_" + k.StateVar,
				Forward:  pfx + "_" + k.Forward,
				Backward: pfx + "_" + k.Backward,
			})
		}
	}
	return nil
}
