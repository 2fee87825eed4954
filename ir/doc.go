// Package ir implements the program-representation graph used by the
// optimizing compiler: a mutable, cyclic graph of typed nodes with ordered
// input edges and mirrored usage edges.
//
// Nodes live in an arena owned by a Graph and are addressed by NodeID.
// Every node shares one record (kind, stamp, payload, inputs, usages); the
// variant-specific operations are reached through small views:
//
//	m := g.MergeAt(id)   // Merge or LoopBegin
//	p := g.PhiAt(id)     // Phi, index-aligned with its merge
//	x := g.ProxyAt(id)   // value observed after a loop exit
//
// Input layouts per kind:
//
//	Merge, LoopBegin  ends...            (LoopBegin: exactly one forward end)
//	LoopEnd, LoopExit loopBegin
//	Phi               merge, v0, v1, ...
//	Proxy             value, loopExit
//	Add               x, y
//	Return            value
//
// For a loop phi, v0 is the value on loop entry and v1..vk follow the loop
// ends in registration order.
//
// # Errors
//
// Misusing the API (indexing past the end of a phi, asking a plain merge
// for its loop ends, storing the NoValue sentinel in an edge) panics with
// an *InternalError, following the Fatalf convention of compiler passes.
// Verify reports broken structural invariants as an *InternalError too.
// Both mean the current compilation unit must be abandoned; callers at the
// unit boundary use Recover to turn the panic into an error.
package ir
