// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database connection and creates the schema.

# Drivers

Two database types are supported:

  - postgres: github.com/lib/pq, for production
  - sqlite: modernc.org/sqlite (pure Go), for development and tests

	conn, err := db.Open(db.TypeSQLite, "file:boardvote.db")

SQLite connections get foreign_keys and busy_timeout pragmas and are limited
to a single open connection.

# Schema

CreateSchema is idempotent and uses IF NOT EXISTS throughout:

  - member: directory entries and roles
  - election: metadata, window, finalized flag
  - candidate: the slate, one row per (election_id, user_id)
  - ballot: UNIQUE (election_id, voter_user_id) enforces one vote per member
  - ballot_choice: the three candidates named on a ballot
  - result_snapshot: frozen results written at finalization

Election status is not a column. It is derived from start_date and end_date
at read time.
*/
package db
