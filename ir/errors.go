package ir

import (
	"errors"
	"fmt"
)

// ErrInternal is matched by every *InternalError via errors.Is.
var ErrInternal = errors.New("internal compiler error")

// Violation names the structural invariant or usage rule that failed.
type Violation uint8

const (
	ViolationNone Violation = iota
	ViolationCountMismatch
	ViolationMissingMerge
	ViolationDanglingEdge
	ViolationNullInput
	ViolationEdgeAsymmetry
	ViolationDeadNode
	ViolationWrongKind
	ViolationIndexOutOfRange
	ViolationStampMismatch
	ViolationLoopOnly
	ViolationBadArity
	ViolationLoopEndIndex
	ViolationSentinelEdge
	ViolationStepLimit
)

var violationNames = [...]string{
	ViolationNone:            "none",
	ViolationCountMismatch:   "phi value count / merge predecessor count mismatch",
	ViolationMissingMerge:    "missing merge",
	ViolationDanglingEdge:    "dangling edge",
	ViolationNullInput:       "null required input",
	ViolationEdgeAsymmetry:   "input/usage asymmetry",
	ViolationDeadNode:        "operation on deleted node",
	ViolationWrongKind:       "wrong node kind",
	ViolationIndexOutOfRange: "index out of range",
	ViolationStampMismatch:   "stamp mismatch",
	ViolationLoopOnly:        "loop-only operation on non-loop merge",
	ViolationBadArity:        "bad input arity",
	ViolationLoopEndIndex:    "loop end index out of order",
	ViolationSentinelEdge:    "sentinel stored in edge",
	ViolationStepLimit:       "canonicalizer step limit exceeded",
}

func (v Violation) String() string {
	if int(v) < len(violationNames) {
		return violationNames[v]
	}
	return fmt.Sprintf("Violation(%d)", uint8(v))
}

// InternalError reports a broken graph invariant or a misuse of the graph
// API by a calling pass. Either way the compilation unit cannot continue.
type InternalError struct {
	Graph     string
	Node      NodeID
	Kind      Kind
	Violation Violation
	Detail    string
}

func (e *InternalError) Error() string {
	msg := fmt.Sprintf("ir: %s: %s", e.Violation, e.Detail)
	if e.Node > 0 {
		msg = fmt.Sprintf("ir: %s on %s#%d", e.Violation, e.Kind, e.Node)
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
	}
	if e.Graph != "" {
		msg += " (graph " + e.Graph + ")"
	}
	return msg
}

// Is makes errors.Is(err, ErrInternal) hold.
func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

// AsInternal unwraps err to an *InternalError, if it is one.
func AsInternal(err error) (*InternalError, bool) {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// Fatalf aborts the current compilation unit by panicking with an
// *InternalError. Recover converts the panic back into an error.
func (g *Graph) Fatalf(n NodeID, v Violation, format string, args ...any) {
	panic(g.internalError(n, v, fmt.Sprintf(format, args...)))
}

func (g *Graph) internalError(n NodeID, v Violation, detail string) *InternalError {
	e := &InternalError{Graph: g.name, Node: n, Violation: v, Detail: detail}
	if g.valid(n) {
		e.Kind = g.nodes[n].kind
	}
	return e
}

// Recover stops a panic carrying an *InternalError and stores it in *errp.
// Any other panic is re-raised. It must be called directly by a deferred
// function:
//
//	defer ir.Recover(&err)
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*InternalError); ok {
		*errp = ie
		return
	}
	panic(r)
}
