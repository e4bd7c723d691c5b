package lems

import (
	"fmt"
	"strings"
)

// PathKind tags a single segment of a Match pattern.
type PathKind int

const (
	// PathFixed matches a single named child slot exactly.
	PathFixed PathKind = iota
	// PathWhen matches every member of a named children collection whose id
	// satisfies Selector ("*" accepts any id).
	PathWhen
)

// Path is one segment of a Match pattern.
type Path struct {
	Kind     PathKind
	Name     string
	Selector string // only meaningful when Kind == PathWhen
}

func (p Path) String() string {
	if p.Kind == PathWhen {
		return fmt.Sprintf("%s[%s]", p.Name, p.Selector)
	}
	return p.Name
}

// Match is an ordered sequence of Path segments, the pattern language used
// by both Select variables (matched against flattened exposure names, see
// collapse.ResolveSelects) and Kinetic node/edge descriptors (matched
// directly against the instance tree, see collapse's transition
// materialization).
type Match struct {
	Segments []Path
}

// ParseMatch parses a pattern such as "transitions[*]" or "gates/m/fcond"
// into a Match. Each '/'-separated component is either a bare slot name
// (PathFixed) or "name[selector]" (PathWhen).
func ParseMatch(s string) (Match, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Match{}, fmt.Errorf("lems: empty match pattern")
	}
	parts := strings.Split(s, "/")
	segs := make([]Path, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		open := strings.IndexByte(part, '[')
		if open < 0 {
			segs = append(segs, Path{Kind: PathFixed, Name: part})
			continue
		}
		if !strings.HasSuffix(part, "]") {
			return Match{}, fmt.Errorf("lems: malformed match segment %q", part)
		}
		name := part[:open]
		sel := part[open+1 : len(part)-1]
		segs = append(segs, Path{Kind: PathWhen, Name: name, Selector: sel})
	}
	return Match{Segments: segs}, nil
}

// AddPrefix returns a copy of m with each element of pfx prepended as a
// literal (PathFixed) segment, outermost first. Used to re-anchor a
// pattern declared inside a nested ComponentType against the absolute
// instance tree once that type has been merged into an enclosing scope.
func (m Match) AddPrefix(pfx []string) Match {
	segs := make([]Path, 0, len(pfx)+len(m.Segments))
	for _, p := range pfx {
		segs = append(segs, Path{Kind: PathFixed, Name: p})
	}
	segs = append(segs, m.Segments...)
	return Match{Segments: segs}
}

func (m Match) String() string {
	parts := make([]string, len(m.Segments))
	for i, s := range m.Segments {
		parts[i] = s.String()
	}
	return strings.Join(parts, "/")
}

// OnPath matches m against every key in keys, in the order given, and
// returns the matching subset in that same order. keys must be supplied in
// deterministic path order (see collapse's exposure bookkeeping) — callers
// must never source keys from unordered map iteration, since Select
// resolution order has to be stable across runs.
func (m Match) OnPath(keys []string) []string {
	var out []string
	for _, k := range keys {
		if matchKey(m.Segments, k) {
			out = append(out, k)
		}
	}
	return out
}

func matchKey(segs []Path, key string) bool {
	tokens := strings.Split(key, "_")
	i := 0
	for _, seg := range segs {
		switch seg.Kind {
		case PathFixed:
			if i >= len(tokens) || tokens[i] != seg.Name {
				return false
			}
			i++
		case PathWhen:
			if i+1 >= len(tokens) || tokens[i] != seg.Name {
				return false
			}
			if seg.Selector != "*" && tokens[i+1] != seg.Selector {
				return false
			}
			i += 2
		}
	}
	return i == len(tokens)
}
