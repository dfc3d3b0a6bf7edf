// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/boardvote/election"
	"github.com/danielhkuo/boardvote/models"
)

const electionColumns = `id, title, description, start_date, end_date, is_finalized, finalized_at, created_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElection(row rowScanner) (*models.Election, error) {
	var e models.Election
	var finalizedAt sql.NullTime
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate,
		&e.IsFinalized, &finalizedAt, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.StartDate = e.StartDate.UTC()
	e.EndDate = e.EndDate.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	if finalizedAt.Valid {
		t := finalizedAt.Time.UTC()
		e.FinalizedAt = &t
	}
	e.Candidates = []models.Candidate{}
	e.Notices = []models.TieNotice{}
	return &e, nil
}

func (s *Store) InsertElection(ctx context.Context, e *models.Election) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO election (id, title, description, start_date, end_date, is_finalized, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, e.ID, e.Title, e.Description, e.StartDate.UTC(), e.EndDate.UTC(), false, e.CreatedBy, e.CreatedAt.UTC())
		if err != nil {
			return s.logError("failed to insert election", err, "election_id", e.ID)
		}
		return insertSlate(ctx, tx, e.ID, e.Candidates)
	})
}

func insertSlate(ctx context.Context, tx *sql.Tx, electionID string, slate []models.Candidate) error {
	for i, c := range slate {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO candidate (election_id, user_id, full_name, biography, position)
			VALUES ($1, $2, $3, $4, $5)
		`, electionID, c.UserID, c.FullName, c.Biography, i)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: candidate %s listed twice", election.ErrValidation, c.UserID)
			}
			return fmt.Errorf("failed to insert candidate: %w", err)
		}
	}
	return nil
}

func (s *Store) GetElection(ctx context.Context, id string) (*models.Election, error) {
	e, err := scanElection(s.db.QueryRowContext(ctx,
		`SELECT `+electionColumns+` FROM election WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, election.ErrNotFound
	}
	if err != nil {
		return nil, s.logError("failed to query election", err, "election_id", id)
	}

	e.Candidates, err = s.loadSlate(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ballot WHERE election_id = $1`, id,
	).Scan(&e.TotalVotes)
	if err != nil {
		return nil, s.logError("failed to count ballots", err, "election_id", id)
	}
	return e, nil
}

func (s *Store) loadSlate(ctx context.Context, electionID string) ([]models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, full_name, biography
		FROM candidate
		WHERE election_id = $1
		ORDER BY position
	`, electionID)
	if err != nil {
		return nil, s.logError("failed to query candidates", err, "election_id", electionID)
	}
	defer rows.Close()

	slate := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.UserID, &c.FullName, &c.Biography); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		slate = append(slate, c)
	}
	return slate, rows.Err()
}

func (s *Store) ListElections(ctx context.Context) ([]models.Election, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+electionColumns+` FROM election`)
	if err != nil {
		return nil, s.logError("failed to query elections", err)
	}
	defer rows.Close()

	elections := []models.Election{}
	index := make(map[string]int)
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		index[e.ID] = len(elections)
		elections = append(elections, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	candRows, err := s.db.QueryContext(ctx, `
		SELECT election_id, user_id, full_name, biography
		FROM candidate
		ORDER BY election_id, position
	`)
	if err != nil {
		return nil, s.logError("failed to query candidates", err)
	}
	defer candRows.Close()
	for candRows.Next() {
		var electionID string
		var c models.Candidate
		if err := candRows.Scan(&electionID, &c.UserID, &c.FullName, &c.Biography); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if i, ok := index[electionID]; ok {
			elections[i].Candidates = append(elections[i].Candidates, c)
		}
	}
	if err := candRows.Err(); err != nil {
		return nil, err
	}
	candRows.Close()

	countRows, err := s.db.QueryContext(ctx, `
		SELECT election_id, COUNT(*) FROM ballot GROUP BY election_id
	`)
	if err != nil {
		return nil, s.logError("failed to count ballots", err)
	}
	defer countRows.Close()
	for countRows.Next() {
		var electionID string
		var count int
		if err := countRows.Scan(&electionID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan ballot count: %w", err)
		}
		if i, ok := index[electionID]; ok {
			elections[i].TotalVotes = count
		}
	}
	return elections, countRows.Err()
}

func (s *Store) UpdateElection(ctx context.Context, upd election.ElectionUpdate) error {
	e := upd.Election
	return s.withTx(ctx, func(tx *sql.Tx) error {
		finalized, err := s.lockElection(ctx, tx, e.ID)
		if err != nil {
			return err
		}
		if finalized {
			return election.ErrFinalizedElection
		}

		if upd.RequireNoBallots {
			var ballots int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM ballot WHERE election_id = $1`, e.ID,
			).Scan(&ballots)
			if err != nil {
				return fmt.Errorf("failed to count ballots: %w", err)
			}
			if ballots > 0 {
				return fmt.Errorf("%w: %d ballots already cast", election.ErrLockedElection, ballots)
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE election
			SET title = $1, description = $2, start_date = $3, end_date = $4
			WHERE id = $5 AND is_finalized = FALSE
		`, e.Title, e.Description, e.StartDate.UTC(), e.EndDate.UTC(), e.ID)
		if err != nil {
			return s.logError("failed to update election", err, "election_id", e.ID)
		}

		if upd.ReplaceSlate {
			if _, err := tx.ExecContext(ctx, `DELETE FROM candidate WHERE election_id = $1`, e.ID); err != nil {
				return fmt.Errorf("failed to clear candidates: %w", err)
			}
			return insertSlate(ctx, tx, e.ID, e.Candidates)
		}
		return nil
	})
}

func (s *Store) DeleteElection(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		finalized, err := s.lockElection(ctx, tx, id)
		if err != nil {
			return err
		}
		if finalized {
			return election.ErrFinalizedElection
		}

		statements := []string{
			`DELETE FROM ballot_choice WHERE ballot_id IN (SELECT id FROM ballot WHERE election_id = $1)`,
			`DELETE FROM ballot WHERE election_id = $1`,
			`DELETE FROM candidate WHERE election_id = $1`,
			`DELETE FROM result_snapshot WHERE election_id = $1`,
			`DELETE FROM election WHERE id = $1 AND is_finalized = FALSE`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return s.logError("failed to delete election", err, "election_id", id)
			}
		}
		return nil
	})
}

// FinalizeElection is the compare-and-set on is_finalized. Only the caller
// whose UPDATE affects a row writes the snapshot and the pending promotions,
// which are born held by claim.
func (s *Store) FinalizeElection(ctx context.Context, id string, at time.Time, final models.Results, promotions []models.RolePromotion, claim string) error {
	payload, err := json.Marshal(final)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE election
			SET is_finalized = TRUE, finalized_at = $1
			WHERE id = $2 AND is_finalized = FALSE
		`, at.UTC(), id)
		if err != nil {
			return s.logError("failed to finalize election", err, "election_id", id)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM election WHERE id = $1)`, id,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check election: %w", err)
			}
			if !exists {
				return election.ErrNotFound
			}
			return election.ErrAlreadyFinalized
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO result_snapshot (election_id, computed_at, payload)
			VALUES ($1, $2, $3)
		`, id, at.UTC(), string(payload))
		if err != nil {
			if isUniqueViolation(err) {
				return election.ErrAlreadyFinalized
			}
			return s.logError("failed to insert result snapshot", err, "election_id", id)
		}

		for _, p := range promotions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO promotion (election_id, seat, user_id, full_name, role, claim)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, id, p.Rank, p.UserID, p.FullName, p.Role, claim)
			if err != nil {
				return s.logError("failed to record promotion", err, "election_id", id, "user_id", p.UserID)
			}
		}
		return nil
	})
}

func (s *Store) GetSnapshot(ctx context.Context, electionID string) (*models.Results, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM result_snapshot WHERE election_id = $1`, electionID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no result snapshot for election %s", election.ErrNotFound, electionID)
	}
	if err != nil {
		return nil, s.logError("failed to query result snapshot", err, "election_id", electionID)
	}

	var results models.Results
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		return nil, fmt.Errorf("failed to parse result snapshot: %w", err)
	}
	return &results, nil
}
