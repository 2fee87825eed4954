package fingerprint

import "github.com/chazu/irgraph/ir"

// ---------------------------------------------------------------------------
// Frozen tag bytes for the graph fingerprint format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// every fingerprint recorded in ICE reports.
// ---------------------------------------------------------------------------

// FormatVersion is the version prefix of the serialization format.
// Bumping this invalidates all existing fingerprints.
const FormatVersion byte = 1

// Node kind tags.
const (
	TagReservedZero byte = 0x00

	// Fixed control
	TagStart  byte = 0x01
	TagReturn byte = 0x02

	// Values
	TagConstant  byte = 0x03
	TagParameter byte = 0x04
	TagAdd       byte = 0x05

	// Control-path ends
	TagEnd     byte = 0x08
	TagLoopEnd byte = 0x09

	// Merges and loop structure
	TagMerge     byte = 0x10
	TagLoopBegin byte = 0x11
	TagLoopExit  byte = 0x12

	// Value merging and proxies
	TagPhi   byte = 0x18
	TagProxy byte = 0x19

	// Reserved 0xFE-0xFF
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagStart, TagReturn,
	TagConstant, TagParameter, TagAdd,
	TagEnd, TagLoopEnd,
	TagMerge, TagLoopBegin, TagLoopExit,
	TagPhi, TagProxy,
}

// kindTag maps a node kind to its frozen tag.
func kindTag(k ir.Kind) byte {
	switch k {
	case ir.KindStart:
		return TagStart
	case ir.KindReturn:
		return TagReturn
	case ir.KindConstant:
		return TagConstant
	case ir.KindParameter:
		return TagParameter
	case ir.KindAdd:
		return TagAdd
	case ir.KindEnd:
		return TagEnd
	case ir.KindLoopEnd:
		return TagLoopEnd
	case ir.KindMerge:
		return TagMerge
	case ir.KindLoopBegin:
		return TagLoopBegin
	case ir.KindLoopExit:
		return TagLoopExit
	case ir.KindPhi:
		return TagPhi
	case ir.KindProxy:
		return TagProxy
	}
	panic("fingerprint: no tag for kind " + k.String())
}
