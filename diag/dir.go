package diag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("diag: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// DirRecorder writes each report as <unit-id>.cbor into a directory.
type DirRecorder struct {
	dir string
}

// NewDirRecorder creates dir if needed and returns a recorder writing to it.
func NewDirRecorder(dir string) (*DirRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("diag: creating %s: %w", dir, err)
	}
	return &DirRecorder{dir: dir}, nil
}

// Dir returns the directory reports are written to.
func (d *DirRecorder) Dir() string { return d.dir }

func (d *DirRecorder) Record(_ context.Context, r *Report) error {
	data, err := cborEncMode.Marshal(r)
	if err != nil {
		return fmt.Errorf("diag: marshal report: %w", err)
	}
	path := filepath.Join(d.dir, r.UnitID.String()+".cbor")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("diag: writing %s: %w", path, err)
	}
	log.Debug("report written", "path", path)
	return nil
}

func (d *DirRecorder) Close() error { return nil }

// List reads every report in the directory, ordered by file name.
func (d *DirRecorder) List() ([]*Report, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("diag: reading %s: %w", d.dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".cbor") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	reports := make([]*Report, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(d.dir, name))
		if err != nil {
			return nil, fmt.Errorf("diag: reading %s: %w", name, err)
		}
		r, err := UnmarshalReport(data)
		if err != nil {
			return nil, fmt.Errorf("diag: %s: %w", name, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// UnmarshalReport deserializes a report from CBOR bytes.
func UnmarshalReport(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("diag: unmarshal report: %w", err)
	}
	return &r, nil
}
