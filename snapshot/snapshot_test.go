package snapshot

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/irgraph/fingerprint"
	"github.com/chazu/irgraph/ir"
)

func loopGraph() *ir.Graph {
	g := ir.New("loop")
	g.NewStart()
	lb := g.NewLoopBegin(g.NewEnd())
	g.NewLoopEnd(lb)
	g.NewLoopEnd(lb)
	exit := g.NewLoopExit(lb)
	e := g.NewParameter(0, ir.StampInt)
	phi := g.NewPhi(ir.StampInt, lb, e)
	g.PhiAt(phi).AddInput(g.NewAdd(phi, g.NewConstant(1)))
	g.PhiAt(phi).AddInput(phi)
	g.NewReturn(g.NewProxy(phi, exit))
	return g
}

func TestRoundTrip_PreservesFingerprint(t *testing.T) {
	g := loopGraph()
	// Leave a gap in the id space.
	g.Delete(g.NewConstant(42))

	data, err := Encode(g)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Name() != "loop" {
		t.Errorf("Name: got %q", got.Name())
	}
	if got.NodeCount() != g.NodeCount() {
		t.Errorf("NodeCount: got %d, want %d", got.NodeCount(), g.NodeCount())
	}
	if fingerprint.Of(got) != fingerprint.Of(g) {
		t.Fatal("fingerprint changed across round trip")
	}
	if err := got.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	a, err := Encode(loopGraph())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(loopGraph())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("canonical encoding differs between identical graphs")
	}
}

func TestCapture_DenseIDs(t *testing.T) {
	g := ir.New("g")
	dead := g.NewConstant(1)
	x := g.NewConstant(2)
	g.Delete(dead)
	g.NewReturn(x)

	want := &Snapshot{
		Version: Version,
		Name:    "g",
		Nodes: []NodeRecord{
			{ID: 1, Kind: "Constant", Stamp: "int", Payload: 2},
			{ID: 2, Kind: "Return", Stamp: "void", Inputs: []uint32{1}},
		},
	}
	if diff := cmp.Diff(want, Capture(g)); diff != "" {
		t.Fatalf("Capture (-want +got):\n%s", diff)
	}
}

func TestRestore_Placeholder(t *testing.T) {
	g := ir.New("g")
	m := g.NewMerge(g.NewEnd(), g.NewEnd())
	phi := g.NewPhi(ir.StampInt, m)
	g.PhiAt(phi).InitializeValueAt(1, g.NewConstant(3))

	got, err := Restore(Capture(g))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	p := got.PhiAt(got.NodesOf(ir.KindPhi)[0])
	if p.ValueAt(0) != ir.NoNode {
		t.Fatalf("placeholder lost: %s", p)
	}
}

func TestRestore_Errors(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
		want string
	}{
		{"version", &Snapshot{Version: 99}, "unsupported version"},
		{"kind", &Snapshot{Version: Version, Nodes: []NodeRecord{{ID: 1, Kind: "Bogus", Stamp: "int"}}}, "unknown kind"},
		{"stamp", &Snapshot{Version: Version, Nodes: []NodeRecord{{ID: 1, Kind: "Constant", Stamp: "float"}}}, "unknown stamp"},
		{"id", &Snapshot{Version: Version, Nodes: []NodeRecord{{ID: 5, Kind: "Constant", Stamp: "int"}}}, "has id"},
		{"range", &Snapshot{Version: Version, Nodes: []NodeRecord{{ID: 1, Kind: "Return", Stamp: "void", Inputs: []uint32{9}}}}, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore(tt.snap)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestRestore_InternalErrorDropsGraph(t *testing.T) {
	s := &Snapshot{Version: Version, Name: "bad", Nodes: []NodeRecord{
		{ID: 1, Kind: "Constant", Stamp: "int", Payload: 1},
		{ID: 2, Kind: "Invalid", Stamp: "void"},
	}}
	g, err := Restore(s)
	if !errors.Is(err, ir.ErrInternal) {
		t.Fatalf("Restore: got %v, want internal error", err)
	}
	if g != nil {
		t.Fatalf("Restore returned a partial graph with %d nodes", g.NodeCount())
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte{0xff})
	if err == nil || errors.Is(err, ir.ErrInternal) {
		t.Fatalf("Decode of garbage: got %v", err)
	}
}
