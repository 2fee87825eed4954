// Package canon keeps an ir.Graph in canonical form: phis whose inputs
// agree collapse into that value, and the rewrite propagates through a
// worklist until nothing more changes.
package canon

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/irgraph/ir"
)

var log = commonlog.GetLogger("irgraph.canon")

// Options configures a Canonicalizer.
type Options struct {
	// MaxSteps bounds the number of node visits per run; exceeding it is an
	// internal error. Zero means unbounded.
	MaxSteps int

	// SimplifyProxies enables folding proxies of constants.
	SimplifyProxies bool

	// Verify runs the graph verifier after reaching the fixpoint.
	Verify bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{SimplifyProxies: true}
}

// Stats summarizes one canonicalizer run.
type Stats struct {
	Visited        int
	PhisRemoved    int
	ProxiesRemoved int
}

// Changed reports whether the run rewrote anything.
func (s Stats) Changed() bool { return s.PhisRemoved > 0 || s.ProxiesRemoved > 0 }

// Add accumulates another run's stats.
func (s *Stats) Add(o Stats) {
	s.Visited += o.Visited
	s.PhisRemoved += o.PhisRemoved
	s.ProxiesRemoved += o.ProxiesRemoved
}

// Canonicalizer rewrites a graph to a fixpoint of local simplifications.
// It holds no per-graph state, so one Canonicalizer may serve many
// goroutines, each working on its own graph.
type Canonicalizer struct {
	opts Options
}

// New creates a canonicalizer.
func New(opts Options) *Canonicalizer {
	return &Canonicalizer{opts: opts}
}

// Apply canonicalizes the whole graph.
func (c *Canonicalizer) Apply(g *ir.Graph) (Stats, error) {
	return c.ApplyTo(g, g.Nodes())
}

// ApplyTo canonicalizes starting from seeds and follows every node the
// simplifications mark, until the worklist is empty. An *ir.InternalError
// raised along the way is returned rather than propagated as a panic.
func (c *Canonicalizer) ApplyTo(g *ir.Graph, seeds []ir.NodeID) (stats Stats, err error) {
	defer ir.Recover(&err)

	wl := NewWorklist()
	wl.AddToWorklist(seeds...)
	for {
		id, ok := wl.Pop()
		if !ok {
			break
		}
		if !g.IsAlive(id) {
			continue
		}
		stats.Visited++
		if c.opts.MaxSteps > 0 && stats.Visited > c.opts.MaxSteps {
			g.Fatalf(id, ir.ViolationStepLimit, "more than %d visits", c.opts.MaxSteps)
		}

		switch g.Kind(id) {
		case ir.KindPhi:
			removed, proxies := SimplifyPhi(g, id, wl)
			if removed {
				stats.PhisRemoved++
				stats.ProxiesRemoved += proxies
				log.Debug("phi collapsed", "graph", g.Name(), "phi", id.String(), "proxies", proxies)
			}
		case ir.KindProxy:
			if c.opts.SimplifyProxies && SimplifyProxy(g, id, wl) {
				stats.ProxiesRemoved++
				log.Debug("proxy folded", "graph", g.Name(), "proxy", id.String())
			}
		}
	}

	log.Debugf("%s: visited %d, removed %d phis and %d proxies",
		g.Name(), stats.Visited, stats.PhisRemoved, stats.ProxiesRemoved)

	if c.opts.Verify {
		if err := g.Verify(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
