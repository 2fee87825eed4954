package ir

import "sort"

// Merge is a view of a control-flow join point: either a plain merge or a
// loop header. Its predecessor order is the order phi values follow.
//
// For a plain merge the predecessors are its forward ends in input order.
// For a loop header, index 0 is the single forward end and indices 1..k
// are its loop ends in registration order.
type Merge struct {
	g  *Graph
	id NodeID
}

// MergeAt returns the merge view of a Merge or LoopBegin node.
func (g *Graph) MergeAt(id NodeID) Merge {
	g.mustKind(id, KindMerge, KindLoopBegin)
	return Merge{g: g, id: id}
}

// ID returns the merge's node id.
func (m Merge) ID() NodeID { return m.id }

// IsLoop reports whether the merge is a loop header.
func (m Merge) IsLoop() bool { return m.g.Kind(m.id) == KindLoopBegin }

// Ends returns the forward ends in predecessor order.
func (m Merge) Ends() []NodeID { return m.g.Inputs(m.id) }

// ForwardEndCount returns the number of forward ends.
func (m Merge) ForwardEndCount() int { return m.g.InputCount(m.id) }

// LoopEnds returns the back edges of a loop header in registration order.
func (m Merge) LoopEnds() []NodeID {
	m.requireLoop("LoopEnds")
	return m.loopEnds()
}

func (m Merge) loopEnds() []NodeID {
	var ends []NodeID
	for _, u := range m.g.mustLive(m.id).usages {
		if m.g.nodes[u].kind == KindLoopEnd {
			ends = append(ends, u)
		}
	}
	sort.Slice(ends, func(i, j int) bool {
		return m.g.nodes[ends[i]].payload < m.g.nodes[ends[j]].payload
	})
	return ends
}

// LoopExits returns the loop exits of a loop header in id order.
func (m Merge) LoopExits() []NodeID {
	m.requireLoop("LoopExits")
	return m.usagesOf(KindLoopExit)
}

// Phis returns the phis attached to the merge in id order.
func (m Merge) Phis() []NodeID { return m.usagesOf(KindPhi) }

func (m Merge) usagesOf(kind Kind) []NodeID {
	var out []NodeID
	seen := make(map[NodeID]bool)
	for _, u := range m.g.mustLive(m.id).usages {
		if m.g.nodes[u].kind == kind && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PredecessorCount returns the number of incoming control paths, which is
// the number of values every attached phi must carry.
func (m Merge) PredecessorCount() int {
	n := m.ForwardEndCount()
	if m.IsLoop() {
		n += len(m.loopEnds())
	}
	return n
}

// PhiPredecessorIndex maps an incoming control path to the index of its
// value in every attached phi.
func (m Merge) PhiPredecessorIndex(end NodeID) int {
	switch m.g.Kind(end) {
	case KindEnd:
		for i, e := range m.g.mustLive(m.id).inputs {
			if e == end {
				return i
			}
		}
	case KindLoopEnd:
		if m.IsLoop() && m.g.Input(end, 0) == m.id {
			return m.ForwardEndCount() + int(m.g.Payload(end))
		}
	default:
		m.g.Fatalf(end, ViolationWrongKind, "not a control-path end")
	}
	m.g.Fatalf(end, ViolationDanglingEdge, "end is not a predecessor of %s", m.g.Describe(m.id))
	return -1
}

// PhiPredecessorAt returns the end whose phi index is i.
func (m Merge) PhiPredecessorAt(i int) NodeID {
	fwd := m.ForwardEndCount()
	if i >= 0 && i < fwd {
		return m.g.Input(m.id, i)
	}
	if m.IsLoop() {
		ends := m.loopEnds()
		if j := i - fwd; j >= 0 && j < len(ends) {
			return ends[j]
		}
	}
	m.g.Fatalf(m.id, ViolationIndexOutOfRange, "predecessor %d of %d", i, m.PredecessorCount())
	return NoNode
}

// AddForwardEnd appends a forward end. A loop header accepts exactly one.
// Callers must add the matching value to every attached phi.
func (m Merge) AddForwardEnd(end NodeID) {
	m.g.mustKind(end, KindEnd)
	if m.g.HasUsages(end) {
		m.g.Fatalf(end, ViolationDanglingEdge, "end already feeds a merge")
	}
	if m.IsLoop() && m.ForwardEndCount() > 0 {
		m.g.Fatalf(m.id, ViolationBadArity, "loop header already has a forward end")
	}
	m.g.AddInput(m.id, end)
}

// RemoveEnd detaches an incoming control path and drops the matching value
// from every attached phi, keeping phi counts in step with the merge. A
// removed loop end is deleted and later loop ends are renumbered; a removed
// forward end is left in the graph without a merge.
func (m Merge) RemoveEnd(end NodeID) {
	idx := m.PhiPredecessorIndex(end)
	for _, p := range m.Phis() {
		m.g.PhiAt(p).RemoveInput(idx)
	}
	if m.g.Kind(end) == KindEnd {
		m.g.RemoveInputAt(m.id, idx)
		return
	}
	removed := m.g.Payload(end)
	m.g.Delete(end)
	for _, le := range m.loopEnds() {
		if p := m.g.Payload(le); p > removed {
			m.g.setPayload(le, p-1)
		}
	}
}

func (m Merge) requireLoop(op string) {
	if !m.IsLoop() {
		m.g.Fatalf(m.id, ViolationLoopOnly, "%s", op)
	}
}

func (g *Graph) setPayload(id NodeID, v int64) {
	g.mustLive(id).payload = v
	g.mods++
}
