// Package sqlite implements db.Store on SQLite for local and single-host
// deployments. It mirrors the postgres package behind the same interface;
// the schema is auto-migrated on open.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/harborview-rehab/scheduler/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT 'therapist',
    active INTEGER NOT NULL DEFAULT 1,
    on_fmla INTEGER NOT NULL DEFAULT 0,
    employment_type TEXT NOT NULL DEFAULT 'full_time',
    lead_eligible INTEGER NOT NULL DEFAULT 0,
    weekly_shift_limit INTEGER NOT NULL DEFAULT 0,
    shift_team TEXT NOT NULL DEFAULT 'day'
);

CREATE TABLE IF NOT EXISTS work_pattern (
    user_id TEXT PRIMARY KEY REFERENCES users(id),
    works_weekdays TEXT NOT NULL DEFAULT '',
    never_weekdays TEXT NOT NULL DEFAULT '',
    weekend_rotation TEXT NOT NULL DEFAULT 'none',
    anchor_saturday TEXT NOT NULL DEFAULT '',
    enforcement TEXT NOT NULL DEFAULT 'hard',
    shift_preference TEXT NOT NULL DEFAULT 'either'
);

CREATE TABLE IF NOT EXISTS schedule_cycle (
    id TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS availability_override (
    id TEXT PRIMARY KEY,
    cycle_id TEXT NOT NULL REFERENCES schedule_cycle(id),
    user_id TEXT NOT NULL REFERENCES users(id),
    override_date TEXT NOT NULL,
    scope TEXT NOT NULL DEFAULT 'both',
    override_type TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT 'manager',
    UNIQUE (cycle_id, user_id, override_date, scope)
);

CREATE TABLE IF NOT EXISTS shift (
    id TEXT PRIMARY KEY,
    cycle_id TEXT NOT NULL REFERENCES schedule_cycle(id),
    user_id TEXT NOT NULL REFERENCES users(id),
    shift_date TEXT NOT NULL,
    shift_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'scheduled',
    role TEXT NOT NULL DEFAULT 'staff',
    override_applied INTEGER NOT NULL DEFAULT 0,
    override_reason TEXT NOT NULL DEFAULT '',
    override_by TEXT NOT NULL DEFAULT '',
    override_at TEXT NOT NULL DEFAULT '',
    UNIQUE (cycle_id, user_id, shift_date, shift_type)
);

CREATE UNIQUE INDEX IF NOT EXISTS shift_one_lead_per_slot
    ON shift (cycle_id, shift_date, shift_type)
    WHERE role = 'lead';

CREATE INDEX IF NOT EXISTS shift_by_user_date ON shift (user_id, shift_date);

CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    actor_id TEXT NOT NULL,
    action TEXT NOT NULL,
    target_type TEXT NOT NULL,
    target_id TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notification (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    target_type TEXT NOT NULL,
    target_id TEXT NOT NULL,
    created_at TEXT NOT NULL
);
`

// DB provides database operations using SQLite
type DB struct {
	conn *sql.DB
}

// NewDB opens (or creates) a SQLite database at path and migrates the
// schema. Use ":memory:" for an in-memory database.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.conn.Close()
}

// mapWriteErr converts a SQLite uniqueness violation into db.ErrDuplicate
func mapWriteErr(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return db.ErrDuplicate
		}
	}
	return err
}

// mapReadErr converts sql.ErrNoRows into db.ErrNotFound
func mapReadErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return db.ErrNotFound
	}
	return err
}
