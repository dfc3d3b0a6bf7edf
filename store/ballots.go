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

// InsertBallot appends a ballot. The UNIQUE (election_id, voter_user_id)
// index, not application code, decides which of two racing submissions wins.
// The voting window and slate are re-read under the election lock, so an edit
// that commits between validation and insert cannot admit a stale ballot.
func (s *Store) InsertBallot(ctx context.Context, b models.Ballot) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		finalized, err := s.lockElection(ctx, tx, b.ElectionID)
		if err != nil {
			return err
		}
		if finalized {
			return fmt.Errorf("%w: election is finalized", election.ErrNotActive)
		}

		var start, end time.Time
		err = tx.QueryRowContext(ctx,
			`SELECT start_date, end_date FROM election WHERE id = $1`, b.ElectionID,
		).Scan(&start, &end)
		if err != nil {
			return fmt.Errorf("failed to read voting window: %w", err)
		}
		if b.CastAt.Before(start) || !b.CastAt.Before(end) {
			return fmt.Errorf("%w: ballot cast outside the voting window", election.ErrNotActive)
		}

		for _, choice := range b.Choices {
			var onSlate bool
			err := tx.QueryRowContext(ctx, `
				SELECT EXISTS(SELECT 1 FROM candidate WHERE election_id = $1 AND user_id = $2)
			`, b.ElectionID, choice).Scan(&onSlate)
			if err != nil {
				return fmt.Errorf("failed to check candidate: %w", err)
			}
			if !onSlate {
				return fmt.Errorf("%w: %s is not a candidate in this election", election.ErrInvalidBallot, choice)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO ballot (id, election_id, voter_user_id, cast_at)
			VALUES ($1, $2, $3, $4)
		`, b.ID, b.ElectionID, b.VoterUserID, b.CastAt.UTC())
		if err != nil {
			if isUniqueViolation(err) {
				return election.ErrDuplicateVote
			}
			return s.logError("failed to insert ballot", err, "election_id", b.ElectionID)
		}

		for i, choice := range b.Choices {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO ballot_choice (ballot_id, candidate_user_id, position)
				VALUES ($1, $2, $3)
			`, b.ID, choice, i)
			if err != nil {
				return s.logError("failed to insert ballot choice", err, "ballot_id", b.ID)
			}
		}
		return nil
	})
}

func (s *Store) ListBallots(ctx context.Context, electionID string) ([]models.Ballot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.voter_user_id, b.cast_at, c.candidate_user_id
		FROM ballot b
		JOIN ballot_choice c ON c.ballot_id = b.id
		WHERE b.election_id = $1
		ORDER BY b.id, c.position
	`, electionID)
	if err != nil {
		return nil, s.logError("failed to query ballots", err, "election_id", electionID)
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		var b models.Ballot
		var choice string
		if err := rows.Scan(&b.ID, &b.VoterUserID, &b.CastAt, &choice); err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		if n := len(ballots); n > 0 && ballots[n-1].ID == b.ID {
			ballots[n-1].Choices = append(ballots[n-1].Choices, choice)
			continue
		}
		b.ElectionID = electionID
		b.CastAt = b.CastAt.UTC()
		b.Choices = []string{choice}
		ballots = append(ballots, b)
	}
	return ballots, rows.Err()
}

func (s *Store) GetBallot(ctx context.Context, electionID, voterUserID string) (*models.Ballot, error) {
	b := models.Ballot{ElectionID: electionID, VoterUserID: voterUserID}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, cast_at FROM ballot WHERE election_id = $1 AND voter_user_id = $2
	`, electionID, voterUserID).Scan(&b.ID, &b.CastAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no ballot cast by this member", election.ErrNotFound)
	}
	if err != nil {
		return nil, s.logError("failed to query ballot", err, "election_id", electionID)
	}
	b.CastAt = b.CastAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT candidate_user_id FROM ballot_choice WHERE ballot_id = $1 ORDER BY position
	`, b.ID)
	if err != nil {
		return nil, s.logError("failed to query ballot choices", err, "ballot_id", b.ID)
	}
	defer rows.Close()

	b.Choices = []string{}
	for rows.Next() {
		var choice string
		if err := rows.Scan(&choice); err != nil {
			return nil, fmt.Errorf("failed to scan ballot choice: %w", err)
		}
		b.Choices = append(b.Choices, choice)
	}
	return &b, rows.Err()
}
