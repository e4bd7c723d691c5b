package lems

// Kinetic is a <KineticScheme> descriptor: Node matches the children
// collection holding the scheme's states, Edge matches the collection
// holding its transitions. StateVar names the state symbol carried by each
// node member; Forward and Backward name the forward and reverse rate
// symbols on each edge member. An edge's source and target node ids come
// from its "from" and "to" attributes.
//
// Materializing a Kinetic into Transition tuples (source and target state
// symbols plus the edge's forward and reverse rate symbols) happens once,
// after collapse, directly against the original instance tree (see
// collapse's transition pass) — Node and Edge are re-anchored with
// AddPrefix at each scope during collapse so that walk can start from the
// absolute instance root.
type Kinetic struct {
	Name     string
	Node     Match
	Edge     Match
	StateVar string
	Forward  string
	Backward string
}

// AddPrefix returns a copy of k with Node and Edge both re-anchored by pfx.
func (k Kinetic) AddPrefix(pfx []string) Kinetic {
	k.Node = k.Node.AddPrefix(pfx)
	k.Edge = k.Edge.AddPrefix(pfx)
	return k
}
