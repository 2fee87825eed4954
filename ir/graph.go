package ir

import "fmt"

// NodeID is the stable arena index of a node. Ids are never reused within
// a graph, so a dead node's id stays dead.
type NodeID int32

const (
	// NoNode is the null reference. It may sit in a phi value slot as a
	// placeholder but never carries a usage edge.
	NoNode NodeID = 0

	// NoValue is returned by single-value detection when a phi's inputs
	// disagree. It is distinct from every real node and from NoNode and
	// must never be stored in an edge.
	NoValue NodeID = -1
)

func (id NodeID) String() string {
	switch id {
	case NoNode:
		return "-"
	case NoValue:
		return "<no-value>"
	}
	return fmt.Sprintf("#%d", int32(id))
}

// node is the common record shared by every variant. Variant payload is
// limited to the payload field; its meaning depends on kind.
type node struct {
	kind    Kind
	stamp   Stamp
	payload int64
	inputs  []NodeID
	usages  []NodeID
	alive   bool
}

// Graph is the arena holding every node of one compilation unit.
//
// A Graph is not safe for concurrent use. Each compilation unit owns its
// graph and mutates it from a single goroutine.
type Graph struct {
	name  string
	nodes []node // nodes[0] is the NoNode slot
	live  int
	mods  uint64
}

// New returns an empty graph.
func New(name string) *Graph {
	return &Graph{
		name:  name,
		nodes: make([]node, 1, 64),
	}
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return g.live }

// IDBound returns one past the largest id ever allocated.
func (g *Graph) IDBound() NodeID { return NodeID(len(g.nodes)) }

// ModCount increases on every node or edge mutation. Passes compare it
// before and after a run to observe whether anything changed.
func (g *Graph) ModCount() uint64 { return g.mods }

// NewNode creates a node of the given kind with the given inputs and returns
// its id. Usage edges for the inputs are registered immediately.
func (g *Graph) NewNode(kind Kind, stamp Stamp, payload int64, inputs ...NodeID) NodeID {
	if !kind.Valid() {
		g.Fatalf(NoNode, ViolationWrongKind, "cannot add node of kind %s", kind)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{
		kind:    kind,
		stamp:   stamp,
		payload: payload,
		alive:   true,
	})
	g.live++
	g.mods++
	for _, in := range inputs {
		g.AddInput(id, in)
	}
	return id
}

// Delete removes a node that has no remaining usages. All of its input
// edges are cleared first, so it disappears from every usage list at once.
func (g *Graph) Delete(id NodeID) {
	n := g.mustLive(id)
	if len(n.usages) > 0 {
		g.Fatalf(id, ViolationDanglingEdge, "cannot delete node with %d usages", len(n.usages))
	}
	for _, in := range n.inputs {
		if in != NoNode {
			g.removeUsage(in, id)
		}
	}
	n.inputs = nil
	n.alive = false
	g.live--
	g.mods++
}

// IsAlive reports whether id names a live node.
func (g *Graph) IsAlive(id NodeID) bool {
	return g.valid(id) && g.nodes[id].alive
}

// Kind returns the kind of a live node.
func (g *Graph) Kind(id NodeID) Kind { return g.mustLive(id).kind }

// Stamp returns the stamp of a live node.
func (g *Graph) Stamp(id NodeID) Stamp { return g.mustLive(id).stamp }

// Payload returns the variant payload: the value of a constant, the index
// of a parameter, or the registration index of a loop end.
func (g *Graph) Payload(id NodeID) int64 { return g.mustLive(id).payload }

// Nodes returns the ids of all live nodes in ascending order.
func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, 0, g.live)
	for i := 1; i < len(g.nodes); i++ {
		if g.nodes[i].alive {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// NodesOf returns the live nodes of one kind in ascending id order.
func (g *Graph) NodesOf(kind Kind) []NodeID {
	var ids []NodeID
	for i := 1; i < len(g.nodes); i++ {
		if g.nodes[i].alive && g.nodes[i].kind == kind {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

func (g *Graph) valid(id NodeID) bool {
	return id > NoNode && int(id) < len(g.nodes)
}

func (g *Graph) mustLive(id NodeID) *node {
	if !g.valid(id) {
		if id == NoValue {
			g.Fatalf(NoNode, ViolationSentinelEdge, "no-value sentinel used as a node")
		}
		g.Fatalf(NoNode, ViolationDanglingEdge, "invalid node id %d", int32(id))
	}
	n := &g.nodes[id]
	if !n.alive {
		g.Fatalf(id, ViolationDeadNode, "node was deleted")
	}
	return n
}

func (g *Graph) mustKind(id NodeID, kinds ...Kind) *node {
	n := g.mustLive(id)
	for _, k := range kinds {
		if n.kind == k {
			return n
		}
	}
	g.Fatalf(id, ViolationWrongKind, "expected %v", kinds)
	return nil
}

// Describe renders a node as Kind#id(inputs) for diagnostics.
func (g *Graph) Describe(id NodeID) string {
	if !g.IsAlive(id) {
		return id.String()
	}
	n := &g.nodes[id]
	s := fmt.Sprintf("%s%s(", n.kind, id)
	for i, in := range n.inputs {
		if i > 0 {
			s += " "
		}
		s += in.String()
	}
	return s + ")"
}
