// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/boardvote/models"
)

// ClaimPromotions hands every unissued, unclaimed promotion of the election
// to claim. The single UPDATE is what keeps two callers from issuing the same
// promotion; rows held by another claim are left alone.
func (s *Store) ClaimPromotions(ctx context.Context, electionID, claim string) ([]models.RolePromotion, error) {
	var pending []models.RolePromotion
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE promotion SET claim = $1
			WHERE election_id = $2 AND claim IS NULL AND issued_at IS NULL
		`, claim, electionID)
		if err != nil {
			return s.logError("failed to claim promotions", err, "election_id", electionID)
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT seat, user_id, full_name, role
			FROM promotion
			WHERE election_id = $1 AND claim = $2 AND issued_at IS NULL
			ORDER BY seat
		`, electionID, claim)
		if err != nil {
			return s.logError("failed to query promotions", err, "election_id", electionID)
		}
		defer rows.Close()

		for rows.Next() {
			var p models.RolePromotion
			if err := rows.Scan(&p.Rank, &p.UserID, &p.FullName, &p.Role); err != nil {
				return fmt.Errorf("failed to scan promotion: %w", err)
			}
			pending = append(pending, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *Store) MarkPromotionIssued(ctx context.Context, electionID string, seat int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE promotion SET issued_at = $1 WHERE election_id = $2 AND seat = $3
	`, at.UTC(), electionID, seat)
	if err != nil {
		return s.logError("failed to mark promotion issued", err, "election_id", electionID, "seat", seat)
	}
	return nil
}

// ReleasePromotions returns the claim's unissued promotions to the pool so a
// later finalize call can pick them up.
func (s *Store) ReleasePromotions(ctx context.Context, electionID, claim string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE promotion SET claim = NULL
		WHERE election_id = $1 AND claim = $2 AND issued_at IS NULL
	`, electionID, claim)
	if err != nil {
		return s.logError("failed to release promotions", err, "election_id", electionID)
	}
	return nil
}
