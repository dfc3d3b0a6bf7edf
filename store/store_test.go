// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/boardvote/db"
	"github.com/danielhkuo/boardvote/election"
	"github.com/danielhkuo/boardvote/models"
	"github.com/danielhkuo/boardvote/store"
	"github.com/danielhkuo/boardvote/testutil"
)

var t0 = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*sql.DB, *store.Store) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	return conn, store.New(conn, db.TypeSQLite, nil)
}

func insertElection(t *testing.T, s *store.Store, id string) *models.Election {
	t.Helper()
	e := &models.Election{
		ID:        id,
		Title:     "Election " + id,
		StartDate: t0,
		EndDate:   t0.Add(time.Hour),
		CreatedBy: testutil.AdminID,
		CreatedAt: t0.Add(-time.Hour),
		Candidates: []models.Candidate{
			{UserID: testutil.EveID, FullName: "Eve Evans"},
			{UserID: testutil.BobID, FullName: "Bob Baker"},
			{UserID: testutil.DaveID, FullName: "Dave Diaz"},
			{UserID: testutil.CarolID, FullName: "Carol Chen"},
		},
	}
	require.NoError(t, s.InsertElection(context.Background(), e))
	return e
}

func ballot(id, electionID, voter string, choices ...string) models.Ballot {
	return models.Ballot{ID: id, ElectionID: electionID, VoterUserID: voter, Choices: choices, CastAt: t0}
}

func TestElectionRoundTrip(t *testing.T) {
	_, s := setup(t)
	ctx := context.Background()
	want := insertElection(t, s, "e1")

	got, err := s.GetElection(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, want.Title, got.Title)
	assert.True(t, got.StartDate.Equal(t0))
	assert.True(t, got.EndDate.Equal(t0.Add(time.Hour)))
	assert.Equal(t, time.UTC, got.StartDate.Location())
	assert.False(t, got.IsFinalized)
	assert.Nil(t, got.FinalizedAt)
	assert.Zero(t, got.TotalVotes)
	// Slate keeps insertion order.
	assert.Equal(t, []string{testutil.EveID, testutil.BobID, testutil.DaveID, testutil.CarolID}, got.CandidateIDs())

	_, err = s.GetElection(ctx, "missing")
	assert.ErrorIs(t, err, election.ErrNotFound)
}

func TestInsertElection_DuplicateCandidate(t *testing.T) {
	_, s := setup(t)
	e := &models.Election{
		ID: "dup", Title: "dup", StartDate: t0, EndDate: t0.Add(time.Hour), CreatedBy: testutil.AdminID, CreatedAt: t0,
		Candidates: []models.Candidate{{UserID: testutil.BobID, FullName: "Bob"}, {UserID: testutil.BobID, FullName: "Bob"}},
	}
	err := s.InsertElection(context.Background(), e)
	assert.ErrorIs(t, err, election.ErrValidation)

	// The failed transaction left nothing behind.
	_, err = s.GetElection(context.Background(), "dup")
	assert.ErrorIs(t, err, election.ErrNotFound)
}

func TestBallots(t *testing.T) {
	_, s := setup(t)
	ctx := context.Background()
	insertElection(t, s, "e1")
	insertElection(t, s, "e2")

	require.NoError(t, s.InsertBallot(ctx, ballot("b2", "e1", testutil.FrankID, testutil.CarolID, testutil.BobID, testutil.EveID)))
	require.NoError(t, s.InsertBallot(ctx, ballot("b1", "e1", testutil.GraceID, testutil.DaveID, testutil.EveID, testutil.BobID)))
	require.NoError(t, s.InsertBallot(ctx, ballot("b3", "e2", testutil.GraceID, testutil.BobID, testutil.CarolID, testutil.DaveID)))

	err := s.InsertBallot(ctx, ballot("b4", "e1", testutil.GraceID, testutil.BobID, testutil.CarolID, testutil.DaveID))
	assert.ErrorIs(t, err, election.ErrDuplicateVote)

	err = s.InsertBallot(ctx, ballot("b5", "nope", testutil.GraceID, testutil.BobID, testutil.CarolID, testutil.DaveID))
	assert.ErrorIs(t, err, election.ErrNotFound)

	ballots, err := s.ListBallots(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, ballots, 2)
	assert.Equal(t, "b1", ballots[0].ID)
	assert.Equal(t, []string{testutil.DaveID, testutil.EveID, testutil.BobID}, ballots[0].Choices)
	assert.Equal(t, []string{testutil.CarolID, testutil.BobID, testutil.EveID}, ballots[1].Choices)
	assert.True(t, ballots[1].CastAt.Equal(t0))

	mine, err := s.GetBallot(ctx, "e2", testutil.GraceID)
	require.NoError(t, err)
	assert.Equal(t, "b3", mine.ID)
	assert.Equal(t, []string{testutil.BobID, testutil.CarolID, testutil.DaveID}, mine.Choices)

	_, err = s.GetBallot(ctx, "e2", testutil.FrankID)
	assert.ErrorIs(t, err, election.ErrNotFound)

	e, err := s.GetElection(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, e.TotalVotes)

	all, err := s.ListElections(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, e := range all {
		assert.Len(t, e.Candidates, 4, e.ID)
		if e.ID == "e1" {
			assert.Equal(t, 2, e.TotalVotes)
		} else {
			assert.Equal(t, 1, e.TotalVotes)
		}
	}
}

func TestInsertBallot_ConcurrentSameVoter(t *testing.T) {
	conn, s := setup(t)
	insertElection(t, s, "e1")

	const attempts = 12
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.InsertBallot(context.Background(),
				ballot(fmt.Sprintf("b%d", i), "e1", testutil.FrankID, testutil.BobID, testutil.CarolID, testutil.DaveID))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, election.ErrDuplicateVote)
	}
	assert.Equal(t, 1, wins)

	var choices int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM ballot_choice`).Scan(&choices))
	assert.Equal(t, 3, choices)
}

func TestUpdateElection(t *testing.T) {
	_, s := setup(t)
	ctx := context.Background()
	e := insertElection(t, s, "e1")

	e.Title = "Renamed"
	e.Candidates = []models.Candidate{
		{UserID: testutil.FrankID, FullName: "Frank Fox"},
		{UserID: testutil.BobID, FullName: "Bob Baker"},
		{UserID: testutil.CarolID, FullName: "Carol Chen"},
		{UserID: testutil.DaveID, FullName: "Dave Diaz"},
	}
	require.NoError(t, s.UpdateElection(ctx, election.ElectionUpdate{Election: e, ReplaceSlate: true, RequireNoBallots: true}))

	got, err := s.GetElection(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, []string{testutil.FrankID, testutil.BobID, testutil.CarolID, testutil.DaveID}, got.CandidateIDs())

	// Once a ballot exists the guarded update is refused inside the transaction.
	require.NoError(t, s.InsertBallot(ctx, ballot("b1", "e1", testutil.GraceID, testutil.BobID, testutil.CarolID, testutil.DaveID)))
	e.StartDate = t0.Add(-time.Minute)
	err = s.UpdateElection(ctx, election.ElectionUpdate{Election: e, RequireNoBallots: true})
	assert.ErrorIs(t, err, election.ErrLockedElection)

	got, err = s.GetElection(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, got.StartDate.Equal(t0))

	// Unguarded edits still go through.
	e.StartDate = t0
	e.EndDate = t0.Add(3 * time.Hour)
	require.NoError(t, s.UpdateElection(ctx, election.ElectionUpdate{Election: e}))
}

func TestFinalizeElection_CompareAndSet(t *testing.T) {
	_, s := setup(t)
	ctx := context.Background()
	insertElection(t, s, "e1")
	require.NoError(t, s.InsertBallot(ctx, ballot("b1", "e1", testutil.GraceID, testutil.BobID, testutil.CarolID, testutil.DaveID)))

	final := models.Results{
		ElectionID: "e1",
		ComputedAt: t0.Add(time.Hour),
		TotalVotes: 1,
		Candidates: []models.Candidate{{UserID: testutil.BobID, FullName: "Bob Baker", Votes: 1, Percentage: 100}},
		Notices:    []models.TieNotice{},
	}

	_, err := s.GetSnapshot(ctx, "e1")
	assert.ErrorIs(t, err, election.ErrNotFound)

	promotions := []models.RolePromotion{{UserID: testutil.BobID, FullName: "Bob Baker", Rank: 0, Role: models.RoleLeader}}
	require.NoError(t, s.FinalizeElection(ctx, "e1", t0.Add(time.Hour), final, promotions, "first"))
	assert.ErrorIs(t, s.FinalizeElection(ctx, "e1", t0.Add(2*time.Hour), final, promotions, "second"), election.ErrAlreadyFinalized)
	assert.ErrorIs(t, s.FinalizeElection(ctx, "missing", t0, final, nil, "third"), election.ErrNotFound)

	e, err := s.GetElection(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, e.IsFinalized)
	require.NotNil(t, e.FinalizedAt)
	assert.True(t, e.FinalizedAt.Equal(t0.Add(time.Hour)))

	snap, err := s.GetSnapshot(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalVotes)
	assert.Equal(t, "Bob Baker", snap.Candidates[0].FullName)

	// Finalized elections accept no further writes.
	err = s.InsertBallot(ctx, ballot("b2", "e1", testutil.FrankID, testutil.BobID, testutil.CarolID, testutil.DaveID))
	assert.ErrorIs(t, err, election.ErrNotActive)
	assert.ErrorIs(t, s.DeleteElection(ctx, "e1"), election.ErrFinalizedElection)
	assert.ErrorIs(t, s.UpdateElection(ctx, election.ElectionUpdate{Election: e}), election.ErrFinalizedElection)
}

func TestInsertBallot_RechecksWindowAndSlate(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	e := insertElection(t, s, "e1")

	// The slate changes after the caller validated against the old one.
	e.Candidates = []models.Candidate{
		{UserID: testutil.AdminID, FullName: "Alice Admin"},
		{UserID: testutil.EveID, FullName: "Eve Evans"},
		{UserID: testutil.FrankID, FullName: "Frank Fox"},
		{UserID: testutil.DaveID, FullName: "Dave Diaz"},
	}
	require.NoError(t, s.UpdateElection(ctx, election.ElectionUpdate{Election: e, ReplaceSlate: true, RequireNoBallots: true}))

	err := s.InsertBallot(ctx, ballot("b1", "e1", testutil.GraceID, testutil.BobID, testutil.CarolID, testutil.DaveID))
	assert.ErrorIs(t, err, election.ErrInvalidBallot)

	tests := []struct {
		name   string
		castAt time.Time
	}{
		{"before start", t0.Add(-time.Second)},
		{"at end", t0.Add(time.Hour)},
		{"after end", t0.Add(2 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ballot("b-"+tt.name, "e1", testutil.GraceID, testutil.EveID, testutil.FrankID, testutil.DaveID)
			b.CastAt = tt.castAt
			assert.ErrorIs(t, s.InsertBallot(ctx, b), election.ErrNotActive)
		})
	}

	var ballots, choices int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM ballot`).Scan(&ballots))
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM ballot_choice`).Scan(&choices))
	assert.Zero(t, ballots)
	assert.Zero(t, choices)

	require.NoError(t, s.InsertBallot(ctx, ballot("b2", "e1", testutil.GraceID, testutil.EveID, testutil.FrankID, testutil.DaveID)))
}

func TestPromotions_ClaimIssueRelease(t *testing.T) {
	_, s := setup(t)
	ctx := context.Background()
	insertElection(t, s, "e1")

	final := models.Results{ElectionID: "e1", Candidates: []models.Candidate{}, Notices: []models.TieNotice{}}
	promotions := []models.RolePromotion{
		{UserID: testutil.BobID, FullName: "Bob Baker", Rank: 0, Role: models.RoleLeader},
		{UserID: testutil.CarolID, FullName: "Carol Chen", Rank: 1, Role: models.RoleAdmin},
		{UserID: testutil.DaveID, FullName: "Dave Diaz", Rank: 2, Role: models.RoleAdmin},
	}
	require.NoError(t, s.FinalizeElection(ctx, "e1", t0.Add(time.Hour), final, promotions, "winner"))

	// Everything is born held by the finalizing call.
	pending, err := s.ClaimPromotions(ctx, "e1", "other")
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.MarkPromotionIssued(ctx, "e1", 0, t0.Add(time.Hour)))
	require.NoError(t, s.ReleasePromotions(ctx, "e1", "winner"))

	pending, err = s.ClaimPromotions(ctx, "e1", "retry")
	require.NoError(t, err)
	assert.Equal(t, promotions[1:], pending)

	// A second claimant gets nothing while retry holds them.
	pending, err = s.ClaimPromotions(ctx, "e1", "late")
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.MarkPromotionIssued(ctx, "e1", 1, t0.Add(2*time.Hour)))
	require.NoError(t, s.MarkPromotionIssued(ctx, "e1", 2, t0.Add(2*time.Hour)))
	require.NoError(t, s.ReleasePromotions(ctx, "e1", "retry"))

	pending, err = s.ClaimPromotions(ctx, "e1", "after")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDeleteElection(t *testing.T) {
	conn, s := setup(t)
	ctx := context.Background()
	insertElection(t, s, "e1")
	require.NoError(t, s.InsertBallot(ctx, ballot("b1", "e1", testutil.GraceID, testutil.BobID, testutil.CarolID, testutil.DaveID)))

	require.NoError(t, s.DeleteElection(ctx, "e1"))
	assert.ErrorIs(t, s.DeleteElection(ctx, "e1"), election.ErrNotFound)

	for _, table := range []string{"ballot", "ballot_choice", "candidate", "election"} {
		var n int
		require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestMembers(t *testing.T) {
	conn, _ := setup(t)
	ctx := context.Background()
	members := store.NewMembers(conn)

	eligible, err := members.ListEligibleCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, eligible, 6)

	promotedAt := t0.Add(90 * time.Minute)
	require.NoError(t, members.PromoteToRole(ctx, testutil.BobID, models.RoleLeader, promotedAt))
	bob, err := members.GetMember(ctx, testutil.BobID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLeader, bob.Role)

	var updatedAt time.Time
	require.NoError(t, conn.QueryRow(`SELECT updated_at FROM member WHERE id = $1`, testutil.BobID).Scan(&updatedAt))
	assert.True(t, updatedAt.Equal(promotedAt), "updated_at = %v", updatedAt)

	assert.ErrorIs(t, members.PromoteToRole(ctx, "nobody", models.RoleAdmin, promotedAt), store.ErrMemberNotFound)
	_, err = members.GetMember(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrMemberNotFound)

	// Grace becomes eligible once the directory says so.
	require.NoError(t, members.UpsertMember(ctx, models.Member{UserID: testutil.GraceID, FullName: "Grace Green", Role: models.RoleFullMember}))
	eligible, err = members.ListEligibleCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, eligible, 7)
}
