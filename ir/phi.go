package ir

import "strings"

// Phi is a view of a value-merging node. Input 0 is the association edge
// to its merge; inputs 1..n are the values, one per merge predecessor and
// index-aligned with the merge's predecessor order.
type Phi struct {
	g  *Graph
	id NodeID
}

// PhiAt returns the phi view of a Phi node.
func (g *Graph) PhiAt(id NodeID) Phi {
	g.mustKind(id, KindPhi)
	return Phi{g: g, id: id}
}

// ID returns the phi's node id.
func (p Phi) ID() NodeID { return p.id }

// MergeID returns the raw merge reference, which is NoNode on a phi whose
// merge was cleared.
func (p Phi) MergeID() NodeID { return p.g.Input(p.id, 0) }

// Merge returns the merge this phi belongs to.
func (p Phi) Merge() Merge {
	m := p.MergeID()
	if m == NoNode {
		p.g.Fatalf(p.id, ViolationMissingMerge, "phi has no merge")
	}
	return p.g.MergeAt(m)
}

// SetMerge moves the phi to another merge.
func (p Phi) SetMerge(m NodeID) {
	if m != NoNode {
		p.g.mustKind(m, KindMerge, KindLoopBegin)
	}
	p.g.SetInput(p.id, 0, m)
}

// IsLoopPhi reports whether the phi belongs to a loop header.
func (p Phi) IsLoopPhi() bool {
	m := p.MergeID()
	return m != NoNode && p.g.Kind(m) == KindLoopBegin
}

// ValueCount returns the number of values, placeholders included.
func (p Phi) ValueCount() int { return p.g.InputCount(p.id) - 1 }

// Values returns a copy of the values in predecessor order.
func (p Phi) Values() []NodeID { return p.g.Inputs(p.id)[1:] }

// ValueAt returns the value for the i'th predecessor of the merge.
func (p Phi) ValueAt(i int) NodeID {
	p.checkIndex(i)
	return p.values()[i]
}

// FirstValue returns the value for predecessor 0; for a loop phi this is
// the value on loop entry.
func (p Phi) FirstValue() NodeID { return p.ValueAt(0) }

// SetValueAt replaces the value for the i'th predecessor.
func (p Phi) SetValueAt(i int, x NodeID) {
	p.checkIndex(i)
	p.checkValue(x)
	p.g.SetInput(p.id, i+1, x)
}

// ValueAtEnd returns the value flowing in along a specific control path.
func (p Phi) ValueAtEnd(end NodeID) NodeID {
	return p.ValueAt(p.Merge().PhiPredecessorIndex(end))
}

// SetValueAtEnd replaces the value flowing in along a specific control path.
func (p Phi) SetValueAtEnd(end, x NodeID) {
	p.SetValueAt(p.Merge().PhiPredecessorIndex(end), x)
}

// InitializeValueAt sets the value at index i, first growing the value
// list with NoNode placeholders when predecessors are discovered out of
// order.
func (p Phi) InitializeValueAt(i int, x NodeID) {
	if i < 0 {
		p.g.Fatalf(p.id, ViolationIndexOutOfRange, "value %d", i)
	}
	for p.ValueCount() <= i {
		p.g.AddInput(p.id, NoNode)
	}
	p.SetValueAt(i, x)
}

// AddInput appends a value. Callers keep this in step with adding a
// predecessor to the merge.
func (p Phi) AddInput(x NodeID) {
	p.checkValue(x)
	p.g.AddInput(p.id, x)
}

// RemoveInput removes the value at index i. Callers keep this in step with
// removing the matching predecessor from the merge.
func (p Phi) RemoveInput(i int) {
	p.checkIndex(i)
	p.g.RemoveInputAt(p.id, i+1)
}

// ClearValues drops every value, keeping the merge association.
func (p Phi) ClearValues() {
	for p.ValueCount() > 0 {
		p.g.RemoveInputAt(p.id, p.ValueCount())
	}
}

// SingleValue returns the one node every input agrees on, ignoring inputs
// that refer to the phi itself. It returns NoValue if two inputs differ, if
// any input is a placeholder, or if only self-references remain.
func (p Phi) SingleValue() NodeID {
	single := NoNode
	for _, v := range p.values() {
		if v == p.id {
			continue
		}
		if v == NoNode {
			return NoValue
		}
		if single == NoNode {
			single = v
		} else if v != single {
			return NoValue
		}
	}
	if single == NoNode {
		return NoValue
	}
	return single
}

// SingleBackValue is the loop variant of SingleValue: it looks only at the
// back-edge values (indices 1 and up) and compares them literally.
func (p Phi) SingleBackValue() NodeID {
	if !p.IsLoopPhi() {
		p.g.Fatalf(p.id, ViolationLoopOnly, "SingleBackValue")
	}
	values := p.values()
	if len(values) < 2 {
		return NoValue
	}
	single := values[1]
	if single == NoNode {
		return NoValue
	}
	for _, v := range values[2:] {
		if v != single {
			return NoValue
		}
	}
	return single
}

// String renders the phi as Phi#id(v0 v1 ...) with "-" for placeholders.
func (p Phi) String() string {
	var b strings.Builder
	b.WriteString("Phi")
	b.WriteString(p.id.String())
	b.WriteByte('(')
	for i, v := range p.values() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.String())
	}
	b.WriteByte(')')
	return b.String()
}

// values aliases the value slots; callers must not mutate the graph while
// holding it.
func (p Phi) values() []NodeID {
	in := p.g.mustLive(p.id).inputs
	if len(in) == 0 {
		p.g.Fatalf(p.id, ViolationMissingMerge, "phi has no merge slot")
	}
	return in[1:]
}

func (p Phi) checkIndex(i int) {
	if n := p.ValueCount(); i < 0 || i >= n {
		p.g.Fatalf(p.id, ViolationIndexOutOfRange, "value %d of %d", i, n)
	}
}

// checkValue rejects values a phi may never hold: a stamp the phi cannot
// carry, or another phi of the same non-loop merge.
func (p Phi) checkValue(x NodeID) {
	if x == NoNode || x == p.id {
		return
	}
	if x == NoValue {
		p.g.Fatalf(p.id, ViolationSentinelEdge, "no-value sentinel stored as phi value")
	}
	xn := p.g.mustLive(x)
	if !p.g.nodes[p.id].stamp.Compatible(xn.stamp) {
		p.g.Fatalf(p.id, ViolationStampMismatch, "value %s has stamp %s, phi is %s",
			p.g.Describe(x), xn.stamp, p.g.nodes[p.id].stamp)
	}
	if m := p.MergeID(); xn.kind == KindPhi && m != NoNode && !p.IsLoopPhi() && len(xn.inputs) > 0 && xn.inputs[0] == m {
		p.g.Fatalf(p.id, ViolationWrongKind, "value %s is a phi of the same merge", x)
	}
}
