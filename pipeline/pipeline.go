// Package pipeline compiles independent units concurrently. Each unit owns
// its graph; an internal error aborts that unit only, and is logged and
// handed to a diag.Recorder with a snapshot of the unit's input.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/irgraph/canon"
	"github.com/chazu/irgraph/config"
	"github.com/chazu/irgraph/diag"
	"github.com/chazu/irgraph/fingerprint"
	"github.com/chazu/irgraph/ir"
	"github.com/chazu/irgraph/snapshot"
)

var log = commonlog.GetLogger("irgraph.pipeline")

// Unit is one independently compiled graph.
type Unit struct {
	ID    uuid.UUID
	Name  string
	Graph *ir.Graph
}

// NewUnit wraps g in a unit with a fresh id, named after the graph.
func NewUnit(g *ir.Graph) *Unit {
	return &Unit{ID: uuid.New(), Name: g.Name(), Graph: g}
}

// Result is the outcome of compiling one unit.
type Result struct {
	UnitID uuid.UUID
	Name   string
	Stats  canon.Stats
	Before fingerprint.Sum
	After  fingerprint.Sum

	// Err is set when the unit did not complete. Bailout is set when Err
	// is an internal error, in which case the unit's graph is unusable.
	Err     error
	Bailout bool
}

// Changed reports whether compiling the unit altered its graph.
func (r *Result) Changed() bool { return r.Err == nil && r.Before != r.After }

// Pipeline runs the compile steps over many units.
type Pipeline struct {
	workers      int
	verifyInput  bool
	verifyOutput bool
	canon        *canon.Canonicalizer
	recorder     diag.Recorder
}

// New creates a pipeline from cfg. A nil recorder discards reports.
func New(cfg *config.Config, recorder diag.Recorder) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	if recorder == nil {
		recorder = diag.Discard
	}
	workers := cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 1
	}
	opts := cfg.CanonOptions()
	opts.Verify = false
	return &Pipeline{
		workers:      workers,
		verifyInput:  cfg.Pipeline.VerifyInput,
		verifyOutput: cfg.Pipeline.VerifyOutput,
		canon:        canon.New(opts),
		recorder:     recorder,
	}
}

// Run compiles every unit and returns one result per unit, in input order.
// Cancelling ctx stops units that have not started yet; their results carry
// the context error.
func (p *Pipeline) Run(ctx context.Context, units []*Unit) []Result {
	results := make([]Result, len(units))
	var eg errgroup.Group
	eg.SetLimit(p.workers)
	for i, u := range units {
		eg.Go(func() error {
			results[i] = p.runUnit(ctx, u)
			return nil
		})
	}
	eg.Wait()
	return results
}

func (p *Pipeline) runUnit(ctx context.Context, u *Unit) Result {
	res := Result{UnitID: u.ID, Name: u.Name}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	// Captured before any pass touches the graph, for the ICE report.
	input, err := snapshot.Encode(u.Graph)
	if err != nil {
		log.Warning("cannot snapshot unit", "unit", u.Name, "error", err)
	}

	res.Before = fingerprint.Of(u.Graph)
	log.Debug("compiling unit", "unit", u.Name, "id", u.ID.String(), "nodes", u.Graph.NodeCount(), "fingerprint", res.Before.Short())

	res.Stats, res.Err = p.compile(u.Graph)
	if res.Err != nil {
		if ie, ok := ir.AsInternal(res.Err); ok {
			res.Bailout = true
			p.bailout(ctx, u, ie, res.Before, input)
		}
		return res
	}

	res.After = fingerprint.Of(u.Graph)
	log.Debugf("%s: %d phis and %d proxies removed, fingerprint %s -> %s",
		u.Name, res.Stats.PhisRemoved, res.Stats.ProxiesRemoved, res.Before.Short(), res.After.Short())
	return res
}

// compile runs the passes over g. Internal errors panicked from any pass
// come back as errors.
func (p *Pipeline) compile(g *ir.Graph) (stats canon.Stats, err error) {
	defer ir.Recover(&err)

	if p.verifyInput {
		if err := g.Verify(); err != nil {
			return stats, err
		}
	}
	if stats, err = p.canon.Apply(g); err != nil {
		return stats, err
	}
	if p.verifyOutput {
		if err := g.Verify(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (p *Pipeline) bailout(ctx context.Context, u *Unit, ie *ir.InternalError, sum fingerprint.Sum, input []byte) {
	log.Error("internal compiler error, unit abandoned",
		"unit", u.Name,
		"id", u.ID.String(),
		"node", ie.Node.String(),
		"kind", ie.Kind.String(),
		"violation", ie.Violation.String(),
		"detail", ie.Detail)

	r := diag.NewReport(u.ID, u.Name, ie, sum, input)
	if err := p.recorder.Record(ctx, r); err != nil {
		log.Error("cannot record report", "unit", u.Name, "error", err)
	}
}

// Summary aggregates results for reporting.
type Summary struct {
	Units     int
	Changed   int
	Bailouts  int
	Cancelled int
	Stats     canon.Stats
}

// Summarize totals a batch of results.
func Summarize(results []Result) Summary {
	s := Summary{Units: len(results)}
	for i := range results {
		r := &results[i]
		switch {
		case r.Bailout:
			s.Bailouts++
		case r.Err != nil:
			s.Cancelled++
		case r.Changed():
			s.Changed++
		}
		s.Stats.Add(r.Stats)
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d units: %d changed, %d bailed out, %d cancelled; %d phis and %d proxies removed",
		s.Units, s.Changed, s.Bailouts, s.Cancelled, s.Stats.PhisRemoved, s.Stats.ProxiesRemoved)
}
