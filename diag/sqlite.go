package diag

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder archives reports in a SQLite database, one row per report.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens or creates the report archive at path.
func OpenSQLite(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("diag: opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("diag: setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS reports (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		unit_id     TEXT NOT NULL,
		unit_name   TEXT NOT NULL,
		node        INTEGER NOT NULL,
		node_kind   TEXT NOT NULL,
		violation   TEXT NOT NULL,
		message     TEXT NOT NULL,
		time        TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		snapshot    BLOB
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("diag: creating table: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

func (s *SQLiteRecorder) Record(ctx context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (unit_id, unit_name, node, node_kind, violation, message, time, fingerprint, snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UnitID.String(), r.UnitName, r.Node, r.NodeKind, r.Violation, r.Message,
		r.Time.UTC().Format(time.RFC3339Nano), r.Fingerprint, r.Snapshot,
	)
	if err != nil {
		return fmt.Errorf("diag: saving report: %w", err)
	}
	log.Debug("report archived", "unit", r.UnitID.String(), "violation", r.Violation)
	return nil
}

// List returns every archived report in insertion order.
func (s *SQLiteRecorder) List(ctx context.Context) ([]*Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_id, unit_name, node, node_kind, violation, message, time, fingerprint, snapshot
		 FROM reports ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("diag: querying reports: %w", err)
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		var (
			r        Report
			id, when string
		)
		if err := rows.Scan(&id, &r.UnitName, &r.Node, &r.NodeKind, &r.Violation,
			&r.Message, &when, &r.Fingerprint, &r.Snapshot); err != nil {
			return nil, fmt.Errorf("diag: scanning report: %w", err)
		}
		if r.UnitID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("diag: report unit id %q: %w", id, err)
		}
		if r.Time, err = time.Parse(time.RFC3339Nano, when); err != nil {
			return nil, fmt.Errorf("diag: report time %q: %w", when, err)
		}
		reports = append(reports, &r)
	}
	return reports, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteRecorder) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
