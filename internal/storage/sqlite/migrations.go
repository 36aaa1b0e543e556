package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// The partial unique index on join_code scopes code uniqueness to
// non-finished sessions: a finished session releases its code for reuse.
// The composite unique indexes on participants and claims are the
// concurrency mechanism itself; concurrent upserts land on them instead
// of requiring any locking in the engine.
const schema = `
CREATE TABLE IF NOT EXISTS receipts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    merchant_name TEXT,
    address TEXT,
    date_time TEXT,
    subtotal REAL,
    tax REAL,
    tip REAL,
    total REAL,
    items TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    receipt_id TEXT NOT NULL,
    host_id TEXT NOT NULL,
    join_code TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'lobby',
    created_at INTEGER NOT NULL,
    FOREIGN KEY (receipt_id) REFERENCES receipts(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_open_join_code
    ON sessions(join_code) WHERE status != 'finished';

CREATE TABLE IF NOT EXISTS session_participants (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    joined_at INTEGER NOT NULL,
    UNIQUE (session_id, user_id),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS item_claims (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    item_index INTEGER NOT NULL,
    user_id TEXT NOT NULL,
    claimed_at INTEGER NOT NULL,
    UNIQUE (session_id, item_index, user_id),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_participants_session_id ON session_participants(session_id);
CREATE INDEX IF NOT EXISTS idx_claims_session_id ON item_claims(session_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
