// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielhkuo/boardvote/models"
)

// CastVote appends one immutable ballot for voterID. Ballots are never
// updated or deleted; a second submission fails with ErrDuplicateVote.
func (s *Service) CastVote(ctx context.Context, electionID, voterID string, choices []string) (*models.Ballot, error) {
	e, err := s.store.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if e.IsFinalized {
		return nil, fmt.Errorf("%w: election is finalized", ErrNotActive)
	}
	if status := Status(now, e.StartDate, e.EndDate); status != models.StatusActive {
		return nil, fmt.Errorf("%w: election is %s", ErrNotActive, status)
	}

	if err := validateBallot(e, voterID, choices); err != nil {
		return nil, err
	}

	ballot := models.Ballot{
		ID:          uuid.NewString(),
		ElectionID:  electionID,
		VoterUserID: voterID,
		Choices:     append([]string(nil), choices...),
		CastAt:      now,
	}
	if err := s.store.InsertBallot(ctx, ballot); err != nil {
		if errors.Is(err, ErrDuplicateVote) {
			s.logger.Info("duplicate vote rejected", "election_id", electionID, "voter", voterID)
		}
		return nil, err
	}
	s.invalidate(ctx, electionID)

	s.logger.Info("vote cast", "election_id", electionID, "ballot_id", ballot.ID)
	return &ballot, nil
}

// GetBallot returns the caller's own ballot, or ErrNotFound if they have not voted.
func (s *Service) GetBallot(ctx context.Context, electionID, voterID string) (*models.Ballot, error) {
	if _, err := s.store.GetElection(ctx, electionID); err != nil {
		return nil, err
	}
	return s.store.GetBallot(ctx, electionID, voterID)
}

func validateBallot(e *models.Election, voterID string, choices []string) error {
	if len(choices) != models.ChoicesPerBallot {
		return fmt.Errorf("%w: exactly %d candidates must be selected, got %d",
			ErrInvalidBallot, models.ChoicesPerBallot, len(choices))
	}

	onSlate := make(map[string]bool, len(e.Candidates))
	for _, c := range e.Candidates {
		onSlate[c.UserID] = true
	}

	picked := make(map[string]bool, len(choices))
	for _, id := range choices {
		if picked[id] {
			return fmt.Errorf("%w: candidate %s selected more than once", ErrInvalidBallot, id)
		}
		picked[id] = true

		if id == voterID {
			return fmt.Errorf("%w: members cannot vote for themselves", ErrInvalidBallot)
		}
		if !onSlate[id] {
			return fmt.Errorf("%w: %s is not a candidate in this election", ErrInvalidBallot, id)
		}
	}
	return nil
}
