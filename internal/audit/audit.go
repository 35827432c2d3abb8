// Package audit persists a write-only trail of ban/unban decisions to
// sqlite, with event logs rotated through lumberjack the way the
// teacher's own sqlite-backed access log store does. It never restores
// firewall state on startup: the trail is for forensics, not recovery.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Trail is a sqlite-backed sink for firewall events.
type Trail struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

// Open creates (if needed) the sqlite database at path and its schema, and
// returns a Trail ready to record events.
func Open(path string) (*Trail, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		occurred_at TIMESTAMP NOT NULL,
		reason TEXT NOT NULL,
		address TEXT NOT NULL,
		verdict TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS events_address_idx ON events (address)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit index: %w", err)
	}

	stmt, err := db.Prepare("INSERT INTO events (id, occurred_at, reason, address, verdict) VALUES ($1,$2,$3,$4,$5)")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing audit insert: %w", err)
	}

	return &Trail{db: db, insertStmt: stmt}, nil
}

// Close releases the underlying database handle.
func (t *Trail) Close() error {
	t.insertStmt.Close()
	return t.db.Close()
}

// Record inserts one event row. Each call gets a fresh random UUID as its
// primary key, the way the teacher's RandomUUID helper mints per-instance
// identifiers.
func (t *Trail) Record(now time.Time, reason, dotted, verdict string) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("generating event id: %w", err)
	}
	_, err = t.insertStmt.Exec(id.String(), now, reason, dotted, verdict)
	if err != nil {
		return fmt.Errorf("recording audit event: %w", err)
	}
	return nil
}

// CountByAddress returns how many events have been recorded for addr,
// across all reasons. Useful for post-incident review.
func (t *Trail) CountByAddress(dotted string) (int, error) {
	var n int
	err := t.db.QueryRow("SELECT COUNT(*) FROM events WHERE address = $1", dotted).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting audit events: %w", err)
	}
	return n, nil
}
