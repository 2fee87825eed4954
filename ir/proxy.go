package ir

// Proxy is a view of a loop-exit proxy: a value as observed after control
// leaves a loop through a specific exit. Input 0 is the wrapped value and
// input 1 is the loop exit. The exit does not own the proxy.
type Proxy struct {
	g  *Graph
	id NodeID
}

// ProxyAt returns the proxy view of a Proxy node.
func (g *Graph) ProxyAt(id NodeID) Proxy {
	g.mustKind(id, KindProxy)
	return Proxy{g: g, id: id}
}

// ID returns the proxy's node id.
func (p Proxy) ID() NodeID { return p.id }

// Value returns the wrapped value.
func (p Proxy) Value() NodeID { return p.g.Input(p.id, 0) }

// SetValue replaces the wrapped value.
func (p Proxy) SetValue(x NodeID) { p.g.SetInput(p.id, 0, x) }

// LoopExit returns the exit the proxy is attached to.
func (p Proxy) LoopExit() NodeID { return p.g.Input(p.id, 1) }

// LoopBegin returns the header of the loop being exited, or NoNode if the
// proxy is not attached to a loop exit.
func (p Proxy) LoopBegin() NodeID {
	exit := p.LoopExit()
	if exit == NoNode || p.g.Kind(exit) != KindLoopExit {
		return NoNode
	}
	return p.g.Input(exit, 0)
}

// Exits reports whether the proxy sits on an exit of the given loop.
func (p Proxy) Exits(loopBegin NodeID) bool {
	return loopBegin != NoNode && p.LoopBegin() == loopBegin
}
