// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/boardvote/models"
)

// Finalize freezes a completed election and promotes its top three members.
//
// The store's compare-and-set on the finalized flag decides the winner when
// two callers race; the loser sees ErrAlreadyFinalized and promotes nobody.
// Promotions are recorded with the snapshot before any is issued. If the
// directory fails partway, the election stays finalized and a later call
// issues only the promotions still outstanding.
// Tie notices are reported but do not change who is promoted.
func (s *Service) Finalize(ctx context.Context, id string) (*models.FinalizeResponse, error) {
	e, err := s.store.GetElection(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if status := Status(now, e.StartDate, e.EndDate); status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: election is %s", ErrNotActive, status)
	}
	if e.IsFinalized {
		return s.resumePromotions(ctx, e, now)
	}

	ballots, err := s.store.ListBallots(ctx, id)
	if err != nil {
		return nil, err
	}
	final := ComputeResults(e, ballots, now)
	promotions := promotionsFor(final.Candidates)

	claim := uuid.NewString()
	if err := s.store.FinalizeElection(ctx, id, now, final, promotions, claim); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	for _, n := range final.Notices {
		s.logger.Warn("election finalized with tie", "election_id", id, "severity", n.Severity, "notice", n.Message)
	}

	if err := s.issuePromotions(ctx, id, claim, promotions, now); err != nil {
		return nil, err
	}

	s.logger.Info("election finalized", "election_id", id, "total_votes", final.TotalVotes)

	return &models.FinalizeResponse{
		ElectionID:  id,
		FinalizedAt: now,
		Promotions:  promotions,
		Notices:     final.Notices,
	}, nil
}

// resumePromotions finishes a finalization whose promotions were cut short.
// With nothing left to claim the election is simply already finalized.
func (s *Service) resumePromotions(ctx context.Context, e *models.Election, now time.Time) (*models.FinalizeResponse, error) {
	claim := uuid.NewString()
	pending, err := s.store.ClaimPromotions(ctx, e.ID, claim)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, ErrAlreadyFinalized
	}

	s.logger.Warn("resuming outstanding promotions", "election_id", e.ID, "pending", len(pending))
	if err := s.issuePromotions(ctx, e.ID, claim, pending, now); err != nil {
		return nil, err
	}

	final, err := s.store.GetSnapshot(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final results: %w", err)
	}
	resp := &models.FinalizeResponse{
		ElectionID: e.ID,
		Promotions: promotionsFor(final.Candidates),
		Notices:    final.Notices,
	}
	if e.FinalizedAt != nil {
		resp.FinalizedAt = *e.FinalizedAt
	}
	return resp, nil
}

// issuePromotions sends each claimed promotion to the directory. On failure
// the unissued rest goes back to the pool for the next finalize call.
func (s *Service) issuePromotions(ctx context.Context, id, claim string, promotions []models.RolePromotion, at time.Time) error {
	for _, p := range promotions {
		if err := s.directory.PromoteToRole(ctx, p.UserID, p.Role, at); err != nil {
			if rerr := s.store.ReleasePromotions(context.WithoutCancel(ctx), id, claim); rerr != nil {
				s.logger.Error("failed to release promotions", "election_id", id, "error", rerr)
			}
			return fmt.Errorf("failed to promote %s to %s: %w", p.UserID, p.Role, err)
		}
		if err := s.store.MarkPromotionIssued(ctx, id, p.Rank, at); err != nil {
			return err
		}
		s.logger.Info("member promoted", "election_id", id, "user_id", p.UserID, "role", p.Role, "rank", p.Rank)
	}
	return nil
}
