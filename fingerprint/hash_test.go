package fingerprint

import (
	"bytes"
	"testing"

	"github.com/chazu/irgraph/ir"
)

func diamondGraph(name string, a, b int64) *ir.Graph {
	g := ir.New(name)
	g.NewStart()
	e1, e2 := g.NewEnd(), g.NewEnd()
	m := g.NewMerge(e1, e2)
	x, y := g.NewConstant(a), g.NewConstant(b)
	g.NewReturn(g.NewPhi(ir.StampInt, m, x, y))
	return g
}

func TestTagUniqueness(t *testing.T) {
	seen := make(map[byte]bool, len(allTags))
	for _, tag := range allTags {
		if seen[tag] {
			t.Errorf("duplicate tag: 0x%02X", tag)
		}
		seen[tag] = true
	}
}

func TestTagsInRange(t *testing.T) {
	for _, tag := range allTags {
		if tag >= 0xFE {
			t.Errorf("tag 0x%02X is in reserved range 0xFE-0xFF", tag)
		}
	}
}

func TestEveryKindHasTag(t *testing.T) {
	for k := ir.KindStart; k.Valid(); k++ {
		if kindTag(k) == TagReservedZero {
			t.Errorf("kind %s maps to the reserved tag", k)
		}
	}
}

func TestFormatVersionNonZero(t *testing.T) {
	if FormatVersion == 0 {
		t.Error("FormatVersion must be non-zero")
	}
}

func TestSerialize_StartsWithVersion(t *testing.T) {
	data := Serialize(diamondGraph("g", 1, 2))
	if len(data) == 0 || data[0] != FormatVersion {
		t.Fatalf("first byte: got %v, want version %d", data[:1], FormatVersion)
	}
}

func TestOf_Deterministic(t *testing.T) {
	a := Of(diamondGraph("a", 1, 2))
	b := Of(diamondGraph("b", 1, 2))
	if a != b {
		t.Fatalf("same structure, different fingerprints: %s vs %s", a, b)
	}
}

func TestOf_SensitiveToPayloadAndOrder(t *testing.T) {
	base := Of(diamondGraph("g", 1, 2))
	if Of(diamondGraph("g", 1, 3)) == base {
		t.Error("payload change not reflected")
	}
	if Of(diamondGraph("g", 2, 1)) == base {
		t.Error("value order change not reflected")
	}
}

func TestOf_IgnoresDeletedIDs(t *testing.T) {
	g1 := ir.New("g")
	g1.NewConstant(7)

	g2 := ir.New("g")
	dead := g2.NewConstant(99)
	g2.Delete(dead)
	g2.NewConstant(7)

	if !bytes.Equal(Serialize(g1), Serialize(g2)) {
		t.Fatal("dead id changed the serialization")
	}
}

func TestOf_Mutation(t *testing.T) {
	g := diamondGraph("g", 1, 2)
	before := Of(g)
	phi := g.NodesOf(ir.KindPhi)[0]
	g.PhiAt(phi).SetValueAt(1, g.PhiAt(phi).ValueAt(0))
	if Of(g) == before {
		t.Fatal("edge rewrite not reflected")
	}
}

func TestSum_Short(t *testing.T) {
	s := Of(diamondGraph("g", 1, 2))
	if len(s.Short()) != 12 || s.String()[:12] != s.Short() {
		t.Fatalf("Short: %q of %q", s.Short(), s.String())
	}
}
