package ir

// ---------------------------------------------------------------------------
// Edge mutation primitives.
//
// Every input edge owner -> target has exactly one matching entry for owner
// in target's usage list. A node that consumes the same target twice appears
// twice in that target's usages. NoNode inputs carry no usage.
// ---------------------------------------------------------------------------

// Inputs returns a copy of a node's ordered inputs.
func (g *Graph) Inputs(id NodeID) []NodeID {
	n := g.mustLive(id)
	out := make([]NodeID, len(n.inputs))
	copy(out, n.inputs)
	return out
}

// Input returns the i'th input of a node.
func (g *Graph) Input(id NodeID, i int) NodeID {
	n := g.mustLive(id)
	if i < 0 || i >= len(n.inputs) {
		g.Fatalf(id, ViolationIndexOutOfRange, "input %d of %d", i, len(n.inputs))
	}
	return n.inputs[i]
}

// InputCount returns the number of input slots of a node.
func (g *Graph) InputCount(id NodeID) int { return len(g.mustLive(id).inputs) }

// Usages returns a snapshot of a node's usages. The caller may mutate the
// graph while iterating over it.
func (g *Graph) Usages(id NodeID) []NodeID {
	n := g.mustLive(id)
	out := make([]NodeID, len(n.usages))
	copy(out, n.usages)
	return out
}

// UsageCount returns the number of usage edges of a node.
func (g *Graph) UsageCount(id NodeID) int { return len(g.mustLive(id).usages) }

// HasUsages reports whether any node consumes id.
func (g *Graph) HasUsages(id NodeID) bool { return len(g.mustLive(id).usages) > 0 }

// AddInput appends target to owner's inputs and registers owner as a usage
// of target. A NoNode target appends a placeholder slot.
func (g *Graph) AddInput(owner, target NodeID) {
	n := g.mustLive(owner)
	g.checkTarget(owner, target)
	n.inputs = append(n.inputs, target)
	if target != NoNode {
		g.addUsage(target, owner)
	}
	g.mods++
}

// RemoveInput removes the first input slot of owner that holds target.
// It reports whether such a slot existed.
func (g *Graph) RemoveInput(owner, target NodeID) bool {
	n := g.mustLive(owner)
	for i, in := range n.inputs {
		if in == target {
			g.RemoveInputAt(owner, i)
			return true
		}
	}
	return false
}

// RemoveInputAt removes owner's i'th input slot, shifting later slots down.
func (g *Graph) RemoveInputAt(owner NodeID, i int) {
	n := g.mustLive(owner)
	if i < 0 || i >= len(n.inputs) {
		g.Fatalf(owner, ViolationIndexOutOfRange, "remove input %d of %d", i, len(n.inputs))
	}
	target := n.inputs[i]
	n.inputs = append(n.inputs[:i], n.inputs[i+1:]...)
	if target != NoNode {
		g.removeUsage(target, owner)
	}
	g.mods++
}

// SetInput replaces owner's i'th input with target.
func (g *Graph) SetInput(owner NodeID, i int, target NodeID) {
	n := g.mustLive(owner)
	if i < 0 || i >= len(n.inputs) {
		g.Fatalf(owner, ViolationIndexOutOfRange, "set input %d of %d", i, len(n.inputs))
	}
	g.checkTarget(owner, target)
	old := n.inputs[i]
	if old == target {
		return
	}
	n.inputs[i] = target
	if old != NoNode {
		g.removeUsage(old, owner)
	}
	if target != NoNode {
		g.addUsage(target, owner)
	}
	g.mods++
}

// ReplaceUsages retargets every input slot that refers to old so that it
// refers to repl instead. Slot order within each owner is preserved and
// old is left without usages. repl may be NoNode.
func (g *Graph) ReplaceUsages(old, repl NodeID) {
	o := g.mustLive(old)
	if old == repl {
		return
	}
	g.checkTarget(old, repl)
	users := o.usages
	o.usages = nil
	for _, u := range users {
		un := &g.nodes[u]
		for i, in := range un.inputs {
			if in == old {
				un.inputs[i] = repl
				if repl != NoNode {
					g.addUsage(repl, u)
				}
				// One usage entry per slot; the next entry for u, if any,
				// covers the next matching slot.
				break
			}
		}
	}
	g.mods++
}

// ReplaceFloating replaces every usage of old with repl and deletes old.
func (g *Graph) ReplaceFloating(old, repl NodeID) {
	g.ReplaceUsages(old, repl)
	g.Delete(old)
}

func (g *Graph) checkTarget(owner, target NodeID) {
	if target == NoValue {
		g.Fatalf(owner, ViolationSentinelEdge, "no-value sentinel stored as input")
	}
	if target != NoNode {
		g.mustLive(target)
	}
}

func (g *Graph) addUsage(target, user NodeID) {
	t := &g.nodes[target]
	t.usages = append(t.usages, user)
}

func (g *Graph) removeUsage(target, user NodeID) {
	t := &g.nodes[target]
	for i, u := range t.usages {
		if u == user {
			t.usages = append(t.usages[:i], t.usages[i+1:]...)
			return
		}
	}
	g.Fatalf(target, ViolationEdgeAsymmetry, "%s is not registered as a usage", user)
}
