package ir

import "fmt"

// Kind is the closed set of node variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindStart
	KindConstant
	KindParameter
	KindAdd
	KindReturn
	KindEnd
	KindLoopEnd
	KindMerge
	KindLoopBegin
	KindLoopExit
	KindPhi
	KindProxy

	kindCount
)

var kindNames = [...]string{
	KindInvalid:   "Invalid",
	KindStart:     "Start",
	KindConstant:  "Constant",
	KindParameter: "Parameter",
	KindAdd:       "Add",
	KindReturn:    "Return",
	KindEnd:       "End",
	KindLoopEnd:   "LoopEnd",
	KindMerge:     "Merge",
	KindLoopBegin: "LoopBegin",
	KindLoopExit:  "LoopExit",
	KindPhi:       "Phi",
	KindProxy:     "Proxy",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind returns the kind named name, as printed by Kind.String.
// "Invalid" parses to KindInvalid; callers creating nodes must still check
// Valid.
func ParseKind(name string) (Kind, bool) {
	for k := KindInvalid; k < kindCount; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return KindInvalid, false
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool { return k > KindInvalid && k < kindCount }

// IsMerge reports whether k is a control-flow join point.
func (k Kind) IsMerge() bool { return k == KindMerge || k == KindLoopBegin }

// IsEnd reports whether k terminates an incoming control path of a merge.
func (k Kind) IsEnd() bool { return k == KindEnd || k == KindLoopEnd }

// IsValue reports whether nodes of kind k produce a value.
func (k Kind) IsValue() bool {
	switch k {
	case KindConstant, KindParameter, KindAdd, KindPhi, KindProxy:
		return true
	}
	return false
}

// arity returns the fixed input count of k, or -1 if it is variable.
func (k Kind) arity() int {
	switch k {
	case KindStart, KindConstant, KindParameter, KindEnd:
		return 0
	case KindReturn, KindLoopEnd, KindLoopExit:
		return 1
	case KindAdd, KindProxy:
		return 2
	}
	return -1
}

// Stamp is the type of the value a node produces.
type Stamp uint8

const (
	StampVoid Stamp = iota
	StampInt
	StampObject
)

func (s Stamp) String() string {
	switch s {
	case StampVoid:
		return "void"
	case StampInt:
		return "int"
	case StampObject:
		return "object"
	}
	return fmt.Sprintf("Stamp(%d)", uint8(s))
}

// ParseStamp is the inverse of Stamp.String.
func ParseStamp(name string) (Stamp, bool) {
	for s := StampVoid; s <= StampObject; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return StampVoid, false
}

// Compatible reports whether a value of stamp o may flow into s.
func (s Stamp) Compatible(o Stamp) bool {
	return s == o && s != StampVoid
}
