package canon

import "github.com/chazu/irgraph/ir"

// Tool is what a simplification needs from the scheduler driving it.
type Tool interface {
	// AddToWorklist marks nodes for re-examination.
	AddToWorklist(ids ...ir.NodeID)
}

// Worklist is a FIFO of nodes pending re-examination. A node already
// queued is not queued twice, so processing order is deterministic.
type Worklist struct {
	queue   []ir.NodeID
	head    int
	pending map[ir.NodeID]bool
}

// NewWorklist returns an empty worklist.
func NewWorklist() *Worklist {
	return &Worklist{pending: make(map[ir.NodeID]bool)}
}

// AddToWorklist queues every id that is not already pending.
func (w *Worklist) AddToWorklist(ids ...ir.NodeID) {
	for _, id := range ids {
		if id <= ir.NoNode || w.pending[id] {
			continue
		}
		w.pending[id] = true
		w.queue = append(w.queue, id)
	}
}

// Pop removes and returns the oldest pending node.
func (w *Worklist) Pop() (ir.NodeID, bool) {
	if w.head == len(w.queue) {
		return ir.NoNode, false
	}
	id := w.queue[w.head]
	w.head++
	delete(w.pending, id)
	if w.head == len(w.queue) {
		w.queue = w.queue[:0]
		w.head = 0
	}
	return id, true
}

// Len returns the number of pending nodes.
func (w *Worklist) Len() int { return len(w.queue) - w.head }
