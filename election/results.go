// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/boardvote/models"
)

// GetElection returns the election with its derived status, ranked slate,
// ballot count and tie notices. Finalized elections are served from their
// frozen snapshot; everything else is a live projection.
func (s *Service) GetElection(ctx context.Context, id string) (*models.Election, error) {
	e, err := s.store.GetElection(ctx, id)
	if err != nil {
		return nil, err
	}

	var results *models.Results
	if e.IsFinalized {
		results, err = s.store.GetSnapshot(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load final results: %w", err)
		}
	} else {
		results, err = s.liveResults(ctx, e)
		if err != nil {
			return nil, err
		}
	}

	e.Status = Status(s.clock(), e.StartDate, e.EndDate)
	e.Candidates = results.Candidates
	e.TotalVotes = results.TotalVotes
	e.Notices = results.Notices
	return e, nil
}

// liveResults prefers the tally cache, but only while its ballot count and
// slate still match the store; a stale entry is recomputed and replaced.
func (s *Service) liveResults(ctx context.Context, e *models.Election) (*models.Results, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, e.ID)
		if err != nil {
			s.logger.Warn("tally cache read failed", "election_id", e.ID, "error", err)
		} else if cached != nil && cached.TotalVotes == e.TotalVotes && sameSlate(cached.Candidates, e.Candidates) {
			return cached, nil
		}
	}

	ballots, err := s.store.ListBallots(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	results := ComputeResults(e, ballots, s.clock())

	if s.cache != nil {
		if err := s.cache.Set(ctx, results); err != nil {
			s.logger.Warn("tally cache write failed", "election_id", e.ID, "error", err)
		}
	}
	return &results, nil
}

// sameSlate reports whether ranked covers exactly the candidates on slate.
func sameSlate(ranked, slate []models.Candidate) bool {
	if len(ranked) != len(slate) {
		return false
	}
	onSlate := make(map[string]bool, len(slate))
	for _, c := range slate {
		onSlate[c.UserID] = true
	}
	for _, c := range ranked {
		if !onSlate[c.UserID] {
			return false
		}
	}
	return true
}

// ListElections summarizes every election, newest start first.
func (s *Service) ListElections(ctx context.Context) ([]models.ElectionSummary, error) {
	elections, err := s.store.ListElections(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	summaries := make([]models.ElectionSummary, 0, len(elections))
	for _, e := range elections {
		summaries = append(summaries, models.ElectionSummary{
			ID:             e.ID,
			Title:          e.Title,
			Status:         Status(now, e.StartDate, e.EndDate),
			IsFinalized:    e.IsFinalized,
			StartDate:      e.StartDate,
			EndDate:        e.EndDate,
			StartsIn:       humanize.RelTime(e.StartDate, now, "ago", "from now"),
			EndsIn:         humanize.RelTime(e.EndDate, now, "ago", "from now"),
			CandidateCount: len(e.Candidates),
			TotalVotes:     e.TotalVotes,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].StartDate.After(summaries[j].StartDate)
	})
	return summaries, nil
}
