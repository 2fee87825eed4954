// Package fingerprint computes a content hash of a graph's live structure.
// Passes and the pipeline compare fingerprints to tell whether a run
// changed anything, and ICE reports carry one to identify the input graph.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/irgraph/ir"
)

// Sum is a SHA-256 graph fingerprint.
type Sum [32]byte

// Of computes the SHA-256 fingerprint of g.
//
// The hash covers kinds, stamps, payloads and input order of every live
// node, with ids renumbered densely. Two graphs built the same way hash
// equal regardless of how many nodes were deleted along the way.
func Of(g *ir.Graph) Sum {
	return sha256.Sum256(Serialize(g))
}

// String returns the hex encoding of the fingerprint.
func (s Sum) String() string { return hex.EncodeToString(s[:]) }

// Short returns the first 12 hex digits, for log lines.
func (s Sum) Short() string { return s.String()[:12] }
