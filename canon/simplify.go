package canon

import "github.com/chazu/irgraph/ir"

// SimplifyPhi removes a phi whose inputs all agree on one value.
//
// Proxies on exits of the phi's own loop that wrap the phi are replaced by
// the value first, with their usages queued, since a proxy only means
// something relative to the phi it wraps. Every remaining usage of the phi
// is then rewired to the value and queued for re-examination. Nothing is
// simplified recursively; propagation happens through tool.
//
// It reports whether the phi was removed and how many proxies went with it.
func SimplifyPhi(g *ir.Graph, phi ir.NodeID, tool Tool) (removed bool, proxies int) {
	p := g.PhiAt(phi)
	single := p.SingleValue()
	if single == ir.NoValue {
		return false, 0
	}

	merge := p.MergeID()
	for _, u := range g.Usages(phi) {
		if !g.IsAlive(u) || g.Kind(u) != ir.KindProxy {
			continue
		}
		px := g.ProxyAt(u)
		if u == single || px.Value() != phi || !px.Exits(merge) {
			continue
		}
		tool.AddToWorklist(g.Usages(u)...)
		g.ReplaceFloating(u, single)
		proxies++
	}

	users := g.Usages(phi)
	g.ReplaceFloating(phi, single)
	tool.AddToWorklist(users...)
	return true, proxies
}

// SimplifyProxy removes a proxy whose wrapped value is a constant: a
// constant is the same on every iteration, so the loop exit adds nothing.
func SimplifyProxy(g *ir.Graph, proxy ir.NodeID, tool Tool) bool {
	value := g.ProxyAt(proxy).Value()
	if value == ir.NoNode || g.Kind(value) != ir.KindConstant {
		return false
	}
	users := g.Usages(proxy)
	g.ReplaceFloating(proxy, value)
	tool.AddToWorklist(users...)
	return true
}
