package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/chazu/irgraph/config"
	"github.com/chazu/irgraph/diag"
	"github.com/chazu/irgraph/ir"
	"github.com/chazu/irgraph/snapshot"
)

// redundant builds a diamond whose phi merges the same value twice.
func redundant(name string) *ir.Graph {
	g := ir.New(name)
	g.NewStart()
	m := g.NewMerge(g.NewEnd(), g.NewEnd())
	x := g.NewParameter(0, ir.StampInt)
	g.NewReturn(g.NewPhi(ir.StampInt, m, x, x))
	return g
}

// mismatched builds a phi with more values than its merge has ends.
func mismatched(name string) *ir.Graph {
	g := ir.New(name)
	g.NewStart()
	m := g.NewMerge(g.NewEnd(), g.NewEnd())
	x := g.NewParameter(0, ir.StampInt)
	y := g.NewParameter(1, ir.StampInt)
	g.NewReturn(g.NewPhi(ir.StampInt, m, x, y, x))
	return g
}

type memRecorder struct {
	reports chan *diag.Report
}

func newMemRecorder() *memRecorder {
	return &memRecorder{reports: make(chan *diag.Report, 16)}
}

func (m *memRecorder) Record(_ context.Context, r *diag.Report) error {
	m.reports <- r
	return nil
}

func (m *memRecorder) Close() error { return nil }

func testConfig(workers int) *config.Config {
	cfg := config.Default()
	cfg.Pipeline.Workers = workers
	cfg.Pipeline.VerifyInput = true
	cfg.Pipeline.VerifyOutput = true
	return cfg
}

func TestRun_BailoutIsolated(t *testing.T) {
	rec := newMemRecorder()
	p := New(testConfig(2), rec)

	units := []*Unit{
		NewUnit(redundant("good1")),
		NewUnit(mismatched("bad")),
		NewUnit(redundant("good2")),
	}
	results := p.Run(context.Background(), units)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, i := range []int{0, 2} {
		r := results[i]
		if r.Err != nil {
			t.Errorf("%s: unexpected error %v", r.Name, r.Err)
		}
		if r.Stats.PhisRemoved != 1 || !r.Changed() {
			t.Errorf("%s: stats %+v changed=%v", r.Name, r.Stats, r.Changed())
		}
		if r.UnitID != units[i].ID {
			t.Errorf("%s: result out of order", r.Name)
		}
	}

	bad := results[1]
	if !bad.Bailout || !errors.Is(bad.Err, ir.ErrInternal) {
		t.Fatalf("bad unit: bailout=%v err=%v", bad.Bailout, bad.Err)
	}
	ie, _ := ir.AsInternal(bad.Err)
	if ie.Violation != ir.ViolationCountMismatch {
		t.Errorf("violation = %s, want CountMismatch", ie.Violation)
	}

	select {
	case r := <-rec.reports:
		if r.UnitID != units[1].ID || r.Violation != ir.ViolationCountMismatch.String() {
			t.Errorf("report: %+v", r)
		}
		if r.Fingerprint != bad.Before.String() {
			t.Errorf("report fingerprint %s, want %s", r.Fingerprint, bad.Before)
		}
		g, err := snapshot.Decode(r.Snapshot)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if len(g.NodesOf(ir.KindPhi)) != 1 {
			t.Error("snapshot does not hold the input graph")
		}
	default:
		t.Fatal("no report recorded")
	}
	if len(rec.reports) != 0 {
		t.Errorf("%d extra reports", len(rec.reports))
	}

	s := Summarize(results)
	if s.Units != 3 || s.Changed != 2 || s.Bailouts != 1 || s.Stats.PhisRemoved != 2 {
		t.Errorf("summary: %s", s)
	}
}

func TestRun_OutputVerifyCatchesMismatch(t *testing.T) {
	cfg := testConfig(1)
	cfg.Pipeline.VerifyInput = false
	rec := newMemRecorder()

	results := New(cfg, rec).Run(context.Background(), []*Unit{NewUnit(mismatched("late"))})

	if !results[0].Bailout {
		t.Fatalf("expected bailout, got %+v", results[0])
	}
	if len(rec.reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(rec.reports))
	}
}

func TestRun_StepLimit(t *testing.T) {
	cfg := testConfig(1)
	cfg.Canonicalizer.MaxSteps = 2

	results := New(cfg, nil).Run(context.Background(), []*Unit{NewUnit(redundant("big"))})

	ie, ok := ir.AsInternal(results[0].Err)
	if !ok || ie.Violation != ir.ViolationStepLimit {
		t.Fatalf("got %v, want step limit", results[0].Err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	units := []*Unit{NewUnit(redundant("a")), NewUnit(redundant("b"))}
	results := New(testConfig(1), nil).Run(ctx, units)

	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) || r.Bailout {
			t.Errorf("%s: err=%v bailout=%v", r.Name, r.Err, r.Bailout)
		}
	}
	for _, u := range units {
		if len(u.Graph.NodesOf(ir.KindPhi)) != 1 {
			t.Errorf("%s: graph compiled after cancellation", u.Name)
		}
	}
	if s := Summarize(results); s.Cancelled != 2 {
		t.Errorf("summary: %s", s)
	}
}

func TestRun_Unchanged(t *testing.T) {
	g := mismatched("x")
	// Make it well formed but irreducible.
	phi := g.NodesOf(ir.KindPhi)[0]
	g.PhiAt(phi).RemoveInput(2)

	results := New(testConfig(1), nil).Run(context.Background(), []*Unit{NewUnit(g)})
	if r := results[0]; r.Err != nil || r.Changed() {
		t.Fatalf("err=%v changed=%v", r.Err, r.Changed())
	}
}
