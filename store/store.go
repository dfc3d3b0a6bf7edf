// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/danielhkuo/boardvote/db"
	"github.com/danielhkuo/boardvote/election"
)

// Store persists elections, slates, ballots and snapshots in SQL.
// Queries use $N placeholders, which both lib/pq and modernc.org/sqlite accept.
type Store struct {
	db     *sql.DB
	dbType string
	logger *slog.Logger
}

func New(conn *sql.DB, dbType string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: conn, dbType: dbType, logger: logger}
}

// forUpdate returns the row-lock suffix for the election row. SQLite has no
// row locks; its single connection already serializes writers.
func (s *Store) forUpdate() string {
	if s.dbType == db.TypePostgres {
		return " FOR UPDATE"
	}
	return ""
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockElection loads the finalized flag while holding the election row.
func (s *Store) lockElection(ctx context.Context, tx *sql.Tx, id string) (finalized bool, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT is_finalized FROM election WHERE id = $1`+s.forUpdate(), id,
	).Scan(&finalized)
	if errors.Is(err, sql.ErrNoRows) {
		return false, election.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock election: %w", err)
	}
	return finalized, nil
}

func (s *Store) logError(msg string, err error, attrs ...any) error {
	fields := append([]any{"error", err}, attrs...)
	s.logger.Error(msg, fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ election.Store = (*Store)(nil)
