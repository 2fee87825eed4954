// Package snapshot captures an ir.Graph as plain data and encodes it as
// canonical CBOR, so graphs can be written to disk, attached to ICE
// reports and fed back into the pipeline.
package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/irgraph/ir"
)

// Version is the snapshot schema version.
const Version = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is the serializable form of a graph. Node ids are dense: the
// i'th record has ID i+1, and inputs refer to those ids with 0 standing
// for a placeholder.
type Snapshot struct {
	Version int          `cbor:"1,keyasint"`
	Name    string       `cbor:"2,keyasint"`
	Nodes   []NodeRecord `cbor:"3,keyasint"`
}

// NodeRecord is one live node.
type NodeRecord struct {
	ID      uint32   `cbor:"1,keyasint"`
	Kind    string   `cbor:"2,keyasint"`
	Stamp   string   `cbor:"3,keyasint"`
	Payload int64    `cbor:"4,keyasint,omitempty"`
	Inputs  []uint32 `cbor:"5,keyasint,omitempty"`
}

// Capture records the live nodes of g in id order.
func Capture(g *ir.Graph) *Snapshot {
	live := g.Nodes()
	dense := make(map[ir.NodeID]uint32, len(live))
	for i, id := range live {
		dense[id] = uint32(i + 1)
	}

	s := &Snapshot{Version: Version, Name: g.Name(), Nodes: make([]NodeRecord, 0, len(live))}
	for _, id := range live {
		rec := NodeRecord{
			ID:      dense[id],
			Kind:    g.Kind(id).String(),
			Stamp:   g.Stamp(id).String(),
			Payload: g.Payload(id),
		}
		for _, in := range g.Inputs(id) {
			rec.Inputs = append(rec.Inputs, dense[in])
		}
		s.Nodes = append(s.Nodes, rec)
	}
	return s
}

// Restore rebuilds a graph from s. Nodes are created first and wired
// second, so records may refer forward. The result is not verified. An
// internal error raised while rebuilding is returned with a nil graph.
func Restore(s *Snapshot) (g *ir.Graph, err error) {
	if s.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", s.Version)
	}

	defer func() {
		if err != nil {
			g = nil
		}
	}()
	defer ir.Recover(&err)

	g = ir.New(s.Name)

	ids := make([]ir.NodeID, len(s.Nodes)+1)
	for i, rec := range s.Nodes {
		if rec.ID != uint32(i+1) {
			return nil, fmt.Errorf("snapshot: record %d has id %d", i, rec.ID)
		}
		kind, ok := ir.ParseKind(rec.Kind)
		if !ok {
			return nil, fmt.Errorf("snapshot: node %d: unknown kind %q", rec.ID, rec.Kind)
		}
		stamp, ok := ir.ParseStamp(rec.Stamp)
		if !ok {
			return nil, fmt.Errorf("snapshot: node %d: unknown stamp %q", rec.ID, rec.Stamp)
		}
		ids[i+1] = g.NewNode(kind, stamp, rec.Payload)
	}
	for _, rec := range s.Nodes {
		owner := ids[rec.ID]
		for _, in := range rec.Inputs {
			if int(in) >= len(ids) {
				return nil, fmt.Errorf("snapshot: node %d: input %d out of range", rec.ID, in)
			}
			g.AddInput(owner, ids[in])
		}
	}
	return g, nil
}

// Marshal serializes s to canonical CBOR.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return &s, nil
}

// Encode captures and marshals g in one step.
func Encode(g *ir.Graph) ([]byte, error) {
	return Marshal(Capture(g))
}

// Decode unmarshals and restores a graph in one step.
func Decode(data []byte) (*ir.Graph, error) {
	s, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return Restore(s)
}
