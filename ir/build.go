package ir

// ---------------------------------------------------------------------------
// Typed constructors. Each one fixes the input layout of its kind; NewNode
// remains available to passes that copy nodes generically.
// ---------------------------------------------------------------------------

// NewStart adds the graph's entry node.
func (g *Graph) NewStart() NodeID {
	return g.NewNode(KindStart, StampVoid, 0)
}

// NewConstant adds an integer constant.
func (g *Graph) NewConstant(v int64) NodeID {
	return g.NewNode(KindConstant, StampInt, v)
}

// NewParameter adds the index'th incoming parameter.
func (g *Graph) NewParameter(index int, stamp Stamp) NodeID {
	return g.NewNode(KindParameter, stamp, int64(index))
}

// NewAdd adds an integer addition x + y.
func (g *Graph) NewAdd(x, y NodeID) NodeID {
	return g.NewNode(KindAdd, StampInt, 0, x, y)
}

// NewReturn adds a return of value.
func (g *Graph) NewReturn(value NodeID) NodeID {
	return g.NewNode(KindReturn, StampVoid, 0, value)
}

// NewEnd adds a forward control-path terminator, not yet attached to a
// merge.
func (g *Graph) NewEnd() NodeID {
	return g.NewNode(KindEnd, StampVoid, 0)
}

// NewMerge adds a merge whose predecessors are the given ends, in order.
func (g *Graph) NewMerge(ends ...NodeID) NodeID {
	m := g.NewNode(KindMerge, StampVoid, 0)
	mv := g.MergeAt(m)
	for _, e := range ends {
		mv.AddForwardEnd(e)
	}
	return m
}

// NewLoopBegin adds a loop header entered through forwardEnd.
func (g *Graph) NewLoopBegin(forwardEnd NodeID) NodeID {
	lb := g.NewNode(KindLoopBegin, StampVoid, 0)
	g.MergeAt(lb).AddForwardEnd(forwardEnd)
	return lb
}

// NewLoopEnd registers a new back edge of loopBegin. Its phi index is one
// past the current last predecessor; callers add the matching value to
// every loop phi.
func (g *Graph) NewLoopEnd(loopBegin NodeID) NodeID {
	m := g.MergeAt(loopBegin)
	m.requireLoop("NewLoopEnd")
	return g.NewNode(KindLoopEnd, StampVoid, int64(len(m.loopEnds())), loopBegin)
}

// NewLoopExit adds an exit of loopBegin.
func (g *Graph) NewLoopExit(loopBegin NodeID) NodeID {
	g.MergeAt(loopBegin).requireLoop("NewLoopExit")
	return g.NewNode(KindLoopExit, StampVoid, 0, loopBegin)
}

// NewPhi adds a phi of the given stamp on merge with the given values.
func (g *Graph) NewPhi(stamp Stamp, merge NodeID, values ...NodeID) NodeID {
	g.mustKind(merge, KindMerge, KindLoopBegin)
	id := g.NewNode(KindPhi, stamp, 0, merge)
	p := Phi{g: g, id: id}
	for _, v := range values {
		p.AddInput(v)
	}
	return id
}

// NewProxy wraps value as seen after leaving the loop through exit.
func (g *Graph) NewProxy(value, exit NodeID) NodeID {
	g.mustKind(exit, KindLoopExit)
	return g.NewNode(KindProxy, g.Stamp(value), 0, value, exit)
}
