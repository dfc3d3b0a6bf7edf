// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/boardvote/election"
	"github.com/danielhkuo/boardvote/models"
)

var ErrMemberNotFound = errors.New("member not found")

// Members is the SQL-backed member directory.
type Members struct {
	db *sql.DB
}

func NewMembers(conn *sql.DB) *Members {
	return &Members{db: conn}
}

// ListEligibleCandidates returns full members, admins and leaders by name.
func (m *Members) ListEligibleCandidates(ctx context.Context) ([]models.Member, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, full_name, biography, role
		FROM member
		WHERE role IN ($1, $2, $3)
		ORDER BY full_name, id
	`, models.RoleFullMember, models.RoleAdmin, models.RoleLeader)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var mem models.Member
		if err := rows.Scan(&mem.UserID, &mem.FullName, &mem.Biography, &mem.Role); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, mem)
	}
	return members, rows.Err()
}

// PromoteToRole sets the member's role, stamping updated_at with the caller's time.
func (m *Members) PromoteToRole(ctx context.Context, userID string, role models.Role, at time.Time) error {
	res, err := m.db.ExecContext(ctx, `
		UPDATE member SET role = $1, updated_at = $2 WHERE id = $3
	`, role, at.UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, userID)
	}
	return nil
}

func (m *Members) GetMember(ctx context.Context, userID string) (*models.Member, error) {
	var mem models.Member
	err := m.db.QueryRowContext(ctx, `
		SELECT id, full_name, biography, role FROM member WHERE id = $1
	`, userID).Scan(&mem.UserID, &mem.FullName, &mem.Biography, &mem.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query member: %w", err)
	}
	return &mem, nil
}

// UpsertMember inserts or replaces a directory entry. The directory is owned
// by the identity system; this exists for seeding and tests.
func (m *Members) UpsertMember(ctx context.Context, mem models.Member) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO member (id, full_name, biography, role, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET full_name = excluded.full_name, biography = excluded.biography,
		    role = excluded.role, updated_at = excluded.updated_at
	`, mem.UserID, mem.FullName, mem.Biography, mem.Role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

var _ election.Directory = (*Members)(nil)
