// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to the configured database and verifies the connection.
func Open(dbType, url string) (*sql.DB, error) {
	var driver, dsn string
	switch dbType {
	case TypePostgres:
		driver, dsn = "postgres", url
	case TypeSQLite, "":
		driver, dsn = "sqlite", sqliteDSN(url)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// SQLite allows a single writer; one connection keeps transactions
		// from failing with SQLITE_BUSY under concurrent requests.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

func sqliteDSN(url string) string {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if strings.Contains(url, "?") {
		return url + "&" + pragmas
	}
	return url + "?" + pragmas
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The schema is shared by PostgreSQL and SQLite, so it avoids server-side
// defaults like NOW(); the application always supplies timestamps in UTC.
const schema = `
-- Members (directory)
CREATE TABLE IF NOT EXISTS member (
    id TEXT PRIMARY KEY,
    full_name TEXT NOT NULL,
    biography TEXT,
    role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('member', 'full_member', 'admin', 'leader')),
    updated_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_member_role ON member(role);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    is_finalized BOOLEAN NOT NULL DEFAULT FALSE,
    finalized_at TIMESTAMP,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Candidates (slate)
CREATE TABLE IF NOT EXISTS candidate (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    full_name TEXT NOT NULL,
    biography TEXT,
    position INTEGER NOT NULL,
    PRIMARY KEY (election_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_candidate_election_id ON candidate(election_id);

-- Ballots (append-only)
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_user_id TEXT NOT NULL,
    cast_at TIMESTAMP NOT NULL,
    UNIQUE (election_id, voter_user_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_election_id ON ballot(election_id);

-- Ballot choices (exactly 3 per ballot)
CREATE TABLE IF NOT EXISTS ballot_choice (
    ballot_id TEXT NOT NULL REFERENCES ballot(id) ON DELETE CASCADE,
    candidate_user_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (ballot_id, candidate_user_id)
);

-- Final result snapshots
CREATE TABLE IF NOT EXISTS result_snapshot (
    election_id TEXT PRIMARY KEY REFERENCES election(id) ON DELETE CASCADE,
    computed_at TIMESTAMP NOT NULL,
    payload TEXT NOT NULL
);

-- Role promotions recorded at finalization; pending until issued_at is set.
-- claim marks the finalize call currently issuing them.
CREATE TABLE IF NOT EXISTS promotion (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    seat INTEGER NOT NULL,
    user_id TEXT NOT NULL,
    full_name TEXT NOT NULL,
    role TEXT NOT NULL,
    claim TEXT,
    issued_at TIMESTAMP,
    PRIMARY KEY (election_id, seat)
);
`
