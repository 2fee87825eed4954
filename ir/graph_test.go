package ir

import (
	"errors"
	"math/rand"
	"testing"
)

// expectFatal runs fn and checks that it aborts with the given violation.
func expectFatal(t *testing.T, want Violation, fn func()) *InternalError {
	t.Helper()
	var err error
	func() {
		defer Recover(&err)
		fn()
	}()
	if err == nil {
		t.Fatalf("expected %s, got no error", want)
	}
	ie, ok := AsInternal(err)
	if !ok {
		t.Fatalf("expected *InternalError, got %T: %v", err, err)
	}
	if ie.Violation != want {
		t.Fatalf("violation: got %s, want %s (%v)", ie.Violation, want, ie)
	}
	return ie
}

// checkSymmetry asserts that every input edge has exactly one matching
// usage entry and vice versa.
func checkSymmetry(t *testing.T, g *Graph) {
	t.Helper()
	for _, a := range g.Nodes() {
		for _, b := range g.Nodes() {
			in := count(g.Inputs(a), b)
			use := count(g.Usages(b), a)
			if in != use {
				t.Fatalf("%s has %d input edges to %s but %s lists it %d times",
					g.Describe(a), in, g.Describe(b), b, use)
			}
		}
	}
}

func count(ids []NodeID, x NodeID) int {
	n := 0
	for _, id := range ids {
		if id == x {
			n++
		}
	}
	return n
}

func TestAddInput_RegistersUsage(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	y := g.NewConstant(2)
	add := g.NewAdd(x, y)

	if got := g.Usages(x); len(got) != 1 || got[0] != add {
		t.Fatalf("usages of x: got %v, want [%s]", got, add)
	}
	if got := g.Inputs(add); len(got) != 2 || got[0] != x || got[1] != y {
		t.Fatalf("inputs of add: got %v", got)
	}
	checkSymmetry(t, g)
}

func TestAddInput_DuplicateEdgesCounted(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	add := g.NewAdd(x, x)

	if g.UsageCount(x) != 2 {
		t.Fatalf("usage count: got %d, want 2", g.UsageCount(x))
	}
	if !g.RemoveInput(add, x) {
		t.Fatal("RemoveInput reported no edge")
	}
	if g.UsageCount(x) != 1 {
		t.Fatalf("usage count after remove: got %d, want 1", g.UsageCount(x))
	}
	checkSymmetry(t, g)
}

func TestRemoveInput_Missing(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	y := g.NewConstant(2)
	ret := g.NewReturn(x)

	if g.RemoveInput(ret, y) {
		t.Fatal("RemoveInput removed an edge that does not exist")
	}
	if g.InputCount(ret) != 1 {
		t.Fatalf("input count: got %d, want 1", g.InputCount(ret))
	}
}

func TestSetInput_MovesUsage(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	y := g.NewConstant(2)
	ret := g.NewReturn(x)

	g.SetInput(ret, 0, y)

	if g.HasUsages(x) {
		t.Error("x still has usages")
	}
	if got := g.Usages(y); len(got) != 1 || got[0] != ret {
		t.Errorf("usages of y: got %v", got)
	}
	checkSymmetry(t, g)
}

func TestReplaceUsages_PreservesSlotOrder(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	y := g.NewConstant(2)
	z := g.NewConstant(3)
	a := g.NewAdd(x, y)
	b := g.NewAdd(y, x)
	c := g.NewAdd(x, x)

	g.ReplaceUsages(x, z)

	for _, tc := range []struct {
		node NodeID
		want []NodeID
	}{
		{a, []NodeID{z, y}},
		{b, []NodeID{y, z}},
		{c, []NodeID{z, z}},
	} {
		got := g.Inputs(tc.node)
		if len(got) != len(tc.want) || got[0] != tc.want[0] || got[1] != tc.want[1] {
			t.Errorf("%s: got %v, want %v", g.Describe(tc.node), got, tc.want)
		}
	}
	if g.HasUsages(x) {
		t.Errorf("x keeps %d usages", g.UsageCount(x))
	}
	if g.UsageCount(z) != 4 {
		t.Errorf("usage count of z: got %d, want 4", g.UsageCount(z))
	}
	checkSymmetry(t, g)
}

func TestUsages_SnapshotSurvivesMutation(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	y := g.NewConstant(2)
	r1 := g.NewReturn(x)
	r2 := g.NewReturn(x)
	r3 := g.NewReturn(x)

	snap := g.Usages(x)
	for _, u := range snap {
		g.SetInput(u, 0, y)
	}

	if len(snap) != 3 || snap[0] != r1 || snap[1] != r2 || snap[2] != r3 {
		t.Fatalf("snapshot changed under mutation: %v", snap)
	}
	if g.HasUsages(x) {
		t.Fatal("x still has usages")
	}
	checkSymmetry(t, g)
}

func TestDelete_ClearsInputs(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	add := g.NewAdd(x, x)

	g.Delete(add)

	if g.IsAlive(add) {
		t.Fatal("deleted node is alive")
	}
	if g.HasUsages(x) {
		t.Fatal("deleted node left usage behind")
	}
	if g.NodeCount() != 1 {
		t.Fatalf("node count: got %d, want 1", g.NodeCount())
	}
	expectFatal(t, ViolationDeadNode, func() { g.Inputs(add) })
}

func TestDelete_WithUsagesIsFatal(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	g.NewReturn(x)

	expectFatal(t, ViolationDanglingEdge, func() { g.Delete(x) })
}

func TestReplaceFloating(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	y := g.NewConstant(2)
	add := g.NewAdd(x, y)
	ret := g.NewReturn(add)

	g.ReplaceFloating(add, x)

	if g.IsAlive(add) {
		t.Fatal("replaced node is still alive")
	}
	if g.Input(ret, 0) != x {
		t.Fatalf("return input: got %s, want %s", g.Input(ret, 0), x)
	}
	if g.HasUsages(y) {
		t.Fatal("y keeps the usage of the deleted add")
	}
	checkSymmetry(t, g)
}

func TestSentinelEdgeIsFatal(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	ret := g.NewReturn(x)

	expectFatal(t, ViolationSentinelEdge, func() { g.AddInput(ret, NoValue) })
	expectFatal(t, ViolationSentinelEdge, func() { g.ReplaceUsages(x, NoValue) })
}

func TestModCount(t *testing.T) {
	g := New("t")
	x := g.NewConstant(1)
	before := g.ModCount()
	g.Inputs(x)
	g.Usages(x)
	if g.ModCount() != before {
		t.Fatal("read-only calls changed the mod count")
	}
	g.NewReturn(x)
	if g.ModCount() == before {
		t.Fatal("mutation did not change the mod count")
	}
}

func TestInternalError_Is(t *testing.T) {
	g := New("unit")
	x := g.NewConstant(1)
	ie := expectFatal(t, ViolationIndexOutOfRange, func() { g.Input(x, 3) })

	if !errors.Is(ie, ErrInternal) {
		t.Error("errors.Is(err, ErrInternal) is false")
	}
	if ie.Node != x || ie.Kind != KindConstant || ie.Graph != "unit" {
		t.Errorf("context: got node=%s kind=%s graph=%q", ie.Node, ie.Kind, ie.Graph)
	}
}

func TestRecover_RepanicsForeignPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("recovered %v, want boom", r)
		}
	}()
	var err error
	func() {
		defer Recover(&err)
		panic("boom")
	}()
	t.Fatal("unreachable")
}

// Random edge rewiring must never break input/usage symmetry.
func TestEdgeSymmetry_RandomMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := New("t")
	var values []NodeID
	for i := 0; i < 8; i++ {
		values = append(values, g.NewConstant(int64(i)))
	}
	var users []NodeID
	for i := 0; i < 8; i++ {
		users = append(users, g.NewAdd(values[rng.Intn(len(values))], values[rng.Intn(len(values))]))
	}

	pick := func(ids []NodeID) NodeID { return ids[rng.Intn(len(ids))] }
	for step := 0; step < 500; step++ {
		switch rng.Intn(3) {
		case 0:
			g.SetInput(pick(users), rng.Intn(2), pick(values))
		case 1:
			g.ReplaceUsages(pick(values), pick(values))
		case 2:
			u := pick(users)
			g.RemoveInputAt(u, 1)
			g.AddInput(u, pick(values))
		}
	}
	checkSymmetry(t, g)
	if err := g.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
