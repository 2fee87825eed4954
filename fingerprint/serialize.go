package fingerprint

import (
	"encoding/binary"

	"github.com/chazu/irgraph/ir"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of graph structure.
//
// Encoding conventions:
//   - First byte: FormatVersion (0x01)
//   - Live node count: uint32 big-endian
//   - Per live node, in id order: tag byte, stamp byte, payload int64,
//     input count uint32, then each input as a uint32 dense index
//     (0 = placeholder, i+1 = the i'th live node)
//   - Usages are not written; they mirror the inputs.
//
// Dense indices make the output independent of ids freed by deletion, so
// two graphs with the same live structure serialize identically.
// ---------------------------------------------------------------------------

// Serialize produces a deterministic byte serialization of g's live
// structure. The graph name is not part of it.
func Serialize(g *ir.Graph) []byte {
	live := g.Nodes()
	dense := make(map[ir.NodeID]uint32, len(live))
	for i, id := range live {
		dense[id] = uint32(i + 1)
	}

	s := &serializer{buf: make([]byte, 0, 16*len(live)+8)}
	s.writeByte(FormatVersion)
	s.writeUint32(uint32(len(live)))
	for _, id := range live {
		s.writeByte(kindTag(g.Kind(id)))
		s.writeByte(byte(g.Stamp(id)))
		s.writeInt64(g.Payload(id))
		inputs := g.Inputs(id)
		s.writeUint32(uint32(len(inputs)))
		for _, in := range inputs {
			s.writeUint32(dense[in])
		}
	}
	return s.buf
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	s.buf = append(s.buf, b[:]...)
}
