// Package diag records internal compiler errors for offline diagnosis.
// Every report carries the violated invariant, the offending node and a
// snapshot of the unit's input graph, so the failure can be replayed.
package diag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/irgraph/fingerprint"
	"github.com/chazu/irgraph/ir"
)

var log = commonlog.GetLogger("irgraph.diag")

// Report describes one internal error raised while compiling a unit.
type Report struct {
	UnitID      uuid.UUID `cbor:"1,keyasint"`
	UnitName    string    `cbor:"2,keyasint"`
	Node        int32     `cbor:"3,keyasint"`
	NodeKind    string    `cbor:"4,keyasint"`
	Violation   string    `cbor:"5,keyasint"`
	Message     string    `cbor:"6,keyasint"`
	Time        time.Time `cbor:"7,keyasint"`
	Fingerprint string    `cbor:"8,keyasint,omitempty"`

	// Snapshot is the CBOR snapshot of the unit's input graph.
	Snapshot []byte `cbor:"9,keyasint,omitempty"`
}

// NewReport builds a report for ie raised in the named unit. input is the
// encoded input graph and sum its fingerprint; either may be zero.
func NewReport(unit uuid.UUID, name string, ie *ir.InternalError, sum fingerprint.Sum, input []byte) *Report {
	r := &Report{
		UnitID:    unit,
		UnitName:  name,
		Node:      int32(ie.Node),
		NodeKind:  ie.Kind.String(),
		Violation: ie.Violation.String(),
		Message:   ie.Error(),
		Time:      time.Now().UTC(),
		Snapshot:  input,
	}
	if sum != (fingerprint.Sum{}) {
		r.Fingerprint = sum.String()
	}
	return r
}

func (r *Report) String() string {
	return fmt.Sprintf("%s %s: %s", r.UnitID, r.UnitName, r.Message)
}

// Recorder persists reports.
type Recorder interface {
	Record(ctx context.Context, r *Report) error
	Close() error
}

// Discard is a Recorder that drops every report.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(context.Context, *Report) error { return nil }
func (discard) Close() error                          { return nil }

// MultiRecorder fans a report out to several recorders. Every recorder is
// tried; the errors are joined.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, r *Report) error {
	var errs []error
	for _, rec := range m {
		if err := rec.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiRecorder) Close() error {
	var errs []error
	for _, rec := range m {
		if err := rec.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
