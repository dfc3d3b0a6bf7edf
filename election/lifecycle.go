// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/boardvote/models"
)

// CreateElection validates and stores a new election with zero votes.
func (s *Service) CreateElection(ctx context.Context, actorID string, req models.CreateElectionRequest) (string, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	if err := validateWindow(req.StartDate, req.EndDate); err != nil {
		return "", err
	}

	slate, err := s.resolveSlate(ctx, req.CandidateUserIDs)
	if err != nil {
		return "", err
	}

	now := s.clock()
	e := &models.Election{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		StartDate:   req.StartDate.UTC(),
		EndDate:     req.EndDate.UTC(),
		CreatedBy:   actorID,
		CreatedAt:   now,
		Candidates:  slate,
	}
	if err := s.store.InsertElection(ctx, e); err != nil {
		return "", err
	}

	s.logger.Info("election created",
		"election_id", e.ID,
		"created_by", actorID,
		"candidates", len(slate),
		"status", Status(now, e.StartDate, e.EndDate),
	)
	return e.ID, nil
}

// UpdateElection applies the non-nil fields of req.
//
// Before the first ballot everything is mutable. Afterwards the start date
// and the slate are frozen; only the end date and the descriptive text may
// change. Finalized elections accept nothing.
func (s *Service) UpdateElection(ctx context.Context, id string, req models.UpdateElectionRequest) error {
	current, err := s.store.GetElection(ctx, id)
	if err != nil {
		return err
	}
	if current.IsFinalized {
		return ErrFinalizedElection
	}

	startChanged := req.StartDate != nil && !req.StartDate.Equal(current.StartDate)
	slateChanged := req.CandidateUserIDs != nil && !sameMembers(dedupe(req.CandidateUserIDs), current.CandidateIDs())

	if current.TotalVotes > 0 {
		if startChanged {
			return fmt.Errorf("%w: start date cannot change once votes are cast", ErrLockedElection)
		}
		if slateChanged {
			return fmt.Errorf("%w: candidates cannot change once votes are cast", ErrLockedElection)
		}
	}

	merged := *current
	if req.Title != nil {
		merged.Title = strings.TrimSpace(*req.Title)
		if merged.Title == "" {
			return fmt.Errorf("%w: title is required", ErrValidation)
		}
	}
	if req.Description != nil {
		merged.Description = strings.TrimSpace(*req.Description)
	}
	if req.StartDate != nil {
		merged.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		merged.EndDate = req.EndDate.UTC()
	}
	if err := validateWindow(merged.StartDate, merged.EndDate); err != nil {
		return err
	}
	if slateChanged {
		slate, err := s.resolveSlate(ctx, req.CandidateUserIDs)
		if err != nil {
			return err
		}
		merged.Candidates = slate
	}

	err = s.store.UpdateElection(ctx, ElectionUpdate{
		Election:         &merged,
		ReplaceSlate:     slateChanged,
		RequireNoBallots: startChanged || slateChanged,
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)

	s.logger.Info("election updated",
		"election_id", id,
		"start_changed", startChanged,
		"slate_changed", slateChanged,
	)
	return nil
}

// DeleteElection removes an unfinalized election with its slate and ballots.
func (s *Service) DeleteElection(ctx context.Context, id string) error {
	current, err := s.store.GetElection(ctx, id)
	if err != nil {
		return err
	}
	if current.IsFinalized {
		return ErrFinalizedElection
	}
	if err := s.store.DeleteElection(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	s.logger.Info("election deleted", "election_id", id, "ballots", current.TotalVotes)
	return nil
}

// ListEligibleCandidates passes the directory's view through for slate pickers.
func (s *Service) ListEligibleCandidates(ctx context.Context) ([]models.Member, error) {
	return s.directory.ListEligibleCandidates(ctx)
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrValidation)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end_date must be after start_date", ErrValidation)
	}
	return nil
}

// resolveSlate checks every id against the directory and copies the member's
// name and biography onto the candidate.
func (s *Service) resolveSlate(ctx context.Context, userIDs []string) ([]models.Candidate, error) {
	ids := dedupe(userIDs)
	if len(ids) < models.MinCandidates {
		return nil, fmt.Errorf("%w: at least %d distinct candidates are required, got %d",
			ErrValidation, models.MinCandidates, len(ids))
	}

	eligible, err := s.directory.ListEligibleCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible candidates: %w", err)
	}
	byID := make(map[string]models.Member, len(eligible))
	for _, m := range eligible {
		byID[m.UserID] = m
	}

	slate := make([]models.Candidate, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok || !m.Role.IsCandidateEligible() {
			return nil, fmt.Errorf("%w: %s is not an eligible member", ErrValidation, id)
		}
		slate = append(slate, models.Candidate{
			UserID:    m.UserID,
			FullName:  m.FullName,
			Biography: m.Biography,
		})
	}
	return slate, nil
}

// dedupe trims ids and drops blanks and repeats, keeping first occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
