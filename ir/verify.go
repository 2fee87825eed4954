package ir

import (
	"fmt"
	"sort"
)

// Verify checks the structural invariants of the whole graph and returns
// the violation on the lowest node id as an *InternalError, or nil.
//
// It is meant to run after graph construction and after any pass that may
// have desynchronized merges and phis. A failure always indicates a
// compiler bug.
func (g *Graph) Verify() error {
	if vs := g.Violations(); len(vs) > 0 {
		return vs[0]
	}
	return nil
}

// Violations returns every invariant violation, ordered by node id.
func (g *Graph) Violations() []*InternalError {
	v := &verifier{g: g}
	for i := 1; i < len(g.nodes); i++ {
		if g.nodes[i].alive {
			v.node(NodeID(i))
		}
	}
	v.symmetry()
	sort.SliceStable(v.errs, func(i, j int) bool { return v.errs[i].Node < v.errs[j].Node })
	return v.errs
}

type verifier struct {
	g    *Graph
	errs []*InternalError
}

func (v *verifier) fail(id NodeID, viol Violation, format string, args ...any) {
	v.errs = append(v.errs, v.g.internalError(id, viol, fmt.Sprintf(format, args...)))
}

// live reports whether in is a usable edge target, recording a dangling
// edge on id otherwise.
func (v *verifier) live(id, in NodeID) bool {
	switch {
	case in == NoValue:
		v.fail(id, ViolationSentinelEdge, "no-value sentinel stored as input")
		return false
	case !v.g.IsAlive(in):
		v.fail(id, ViolationDanglingEdge, "input %s is not a live node", in)
		return false
	}
	return true
}

func (v *verifier) kindOf(id NodeID) Kind {
	if v.g.IsAlive(id) {
		return v.g.nodes[id].kind
	}
	return KindInvalid
}

func (v *verifier) node(id NodeID) {
	n := &v.g.nodes[id]

	if a := n.kind.arity(); a >= 0 && len(n.inputs) != a {
		v.fail(id, ViolationBadArity, "%d inputs, want %d", len(n.inputs), a)
		return
	}
	for i, in := range n.inputs {
		if in == NoNode {
			if n.kind != KindPhi {
				v.fail(id, ViolationNullInput, "input %d is null", i)
			}
			continue
		}
		if !v.live(id, in) {
			return
		}
	}

	switch n.kind {
	case KindMerge, KindLoopBegin:
		for _, e := range n.inputs {
			if k := v.kindOf(e); k != KindEnd {
				v.fail(id, ViolationWrongKind, "predecessor %s is %s, want End", e, k)
			}
		}
		if n.kind == KindLoopBegin {
			if len(n.inputs) != 1 {
				v.fail(id, ViolationBadArity, "loop header has %d forward ends, want 1", len(n.inputs))
			}
			v.loopEnds(id)
		}
	case KindLoopEnd, KindLoopExit:
		if k := v.kindOf(n.inputs[0]); k != KindLoopBegin {
			v.fail(id, ViolationWrongKind, "loop reference is %s, want LoopBegin", k)
		}
	case KindProxy:
		if k := v.kindOf(n.inputs[1]); k != KindLoopExit {
			v.fail(id, ViolationWrongKind, "proxy point is %s, want LoopExit", k)
		}
	case KindAdd:
		for _, in := range n.inputs {
			if s := v.g.nodes[in].stamp; in != NoNode && s != StampInt {
				v.fail(id, ViolationStampMismatch, "operand %s has stamp %s", in, s)
			}
		}
	case KindPhi:
		v.phi(id)
	}
}

func (v *verifier) phi(id NodeID) {
	n := &v.g.nodes[id]
	if len(n.inputs) == 0 || n.inputs[0] == NoNode {
		v.fail(id, ViolationMissingMerge, "missing merge")
		return
	}
	merge := n.inputs[0]
	if !v.g.nodes[merge].kind.IsMerge() {
		v.fail(id, ViolationMissingMerge, "merge reference %s is %s", merge, v.g.nodes[merge].kind)
		return
	}
	values := n.inputs[1:]
	if preds := v.g.MergeAt(merge).PredecessorCount(); preds != len(values) {
		v.fail(id, ViolationCountMismatch,
			"mismatch between merge predecessor count and phi value count: %d != %d", preds, len(values))
	}
	for i, x := range values {
		switch {
		case x == NoNode:
			v.fail(id, ViolationNullInput, "value %d is null", i)
		case x != id && !n.stamp.Compatible(v.g.nodes[x].stamp):
			v.fail(id, ViolationStampMismatch, "value %d (%s) has stamp %s, phi is %s",
				i, x, v.g.nodes[x].stamp, n.stamp)
		}
	}
}

func (v *verifier) loopEnds(lb NodeID) {
	for i, le := range v.g.MergeAt(lb).loopEnds() {
		if p := v.g.nodes[le].payload; p != int64(i) {
			v.fail(le, ViolationLoopEndIndex, "loop end index %d at position %d", p, i)
		}
	}
}

// symmetry checks that usage lists mirror input lists exactly, counting
// repeated edges.
func (v *verifier) symmetry() {
	type edge struct{ target, user NodeID }
	want := make(map[edge]int)
	for i := 1; i < len(v.g.nodes); i++ {
		n := &v.g.nodes[i]
		if !n.alive {
			continue
		}
		for _, in := range n.inputs {
			if in != NoNode {
				want[edge{in, NodeID(i)}]++
			}
		}
	}
	got := make(map[edge]int)
	for i := 1; i < len(v.g.nodes); i++ {
		n := &v.g.nodes[i]
		if !n.alive {
			continue
		}
		for _, u := range n.usages {
			if !v.g.IsAlive(u) {
				v.fail(NodeID(i), ViolationDanglingEdge, "usage %s is not a live node", u)
				continue
			}
			got[edge{NodeID(i), u}]++
		}
	}
	var bad []edge
	for e, c := range want {
		if got[e] != c {
			bad = append(bad, e)
		}
	}
	for e := range got {
		if _, ok := want[e]; !ok {
			bad = append(bad, e)
		}
	}
	sort.Slice(bad, func(i, j int) bool {
		if bad[i].target != bad[j].target {
			return bad[i].target < bad[j].target
		}
		return bad[i].user < bad[j].user
	})
	for _, e := range bad {
		v.fail(e.target, ViolationEdgeAsymmetry, "%s holds %d input edges but %d usages are registered",
			e.user, want[e], got[e])
	}
}
