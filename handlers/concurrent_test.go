// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/boardvote/testutil"
)

// TestConcurrentDuplicateVotes verifies that when one member submits the same
// ballot from several goroutines at once, exactly one is recorded.
func TestConcurrentDuplicateVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	clock := testutil.NewClock(testutil.Epoch)
	svc := testutil.NewService(t, db, clock)
	handler := NewVotingHandler(svc)

	id := testutil.CreateTestElection(t, svc, testutil.Epoch.Add(-time.Hour), testutil.Epoch.Add(time.Hour))

	numAttempts := 8
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := httptest.NewRecorder()
			handler.CastVote(w, castVoteRequest(id, testutil.FrankID, testutil.BobID, testutil.CarolID, testutil.DaveID))

			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			}
		}()
	}

	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 accepted ballot, got %d", created.Load())
	}
	if conflicts.Load() != int32(numAttempts-1) {
		t.Errorf("Expected %d duplicate rejections, got %d", numAttempts-1, conflicts.Load())
	}

	var ballotCount int
	err := db.QueryRow("SELECT COUNT(*) FROM ballot WHERE election_id = $1 AND voter_user_id = $2",
		id, testutil.FrankID).Scan(&ballotCount)
	if err != nil {
		t.Fatalf("Failed to count ballots: %v", err)
	}
	if ballotCount != 1 {
		t.Errorf("Expected 1 ballot in database, got %d", ballotCount)
	}
}

// TestConcurrentBallotsFromDifferentMembers verifies that distinct voters
// submitting at the same time are all counted.
func TestConcurrentBallotsFromDifferentMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	clock := testutil.NewClock(testutil.Epoch)
	svc := testutil.NewService(t, db, clock)
	handler := NewVotingHandler(svc)

	id := testutil.CreateTestElection(t, svc, testutil.Epoch.Add(-time.Hour), testutil.Epoch.Add(time.Hour))

	voters := []string{testutil.AdminID, testutil.FrankID, testutil.GraceID, "henry", "iris", "jack"}
	var created atomic.Int32
	var wg sync.WaitGroup

	for _, voter := range voters {
		wg.Add(1)
		go func(voter string) {
			defer wg.Done()

			w := httptest.NewRecorder()
			handler.CastVote(w, castVoteRequest(id, voter, testutil.CarolID, testutil.DaveID, testutil.EveID))
			if w.Code == http.StatusCreated {
				created.Add(1)
			}
		}(voter)
	}

	wg.Wait()

	if int(created.Load()) != len(voters) {
		t.Errorf("Expected %d accepted ballots, got %d", len(voters), created.Load())
	}

	e, err := svc.GetElection(t.Context(), id)
	if err != nil {
		t.Fatalf("Failed to load election: %v", err)
	}
	if e.TotalVotes != len(voters) {
		t.Errorf("Expected total_votes %d, got %d", len(voters), e.TotalVotes)
	}
	for _, c := range e.Candidates {
		want := len(voters)
		if c.UserID == testutil.BobID {
			want = 0
		}
		if c.Votes != want {
			t.Errorf("Candidate %s: expected %d votes, got %d", c.UserID, want, c.Votes)
		}
	}
}

// TestConcurrentFinalize verifies that racing finalize calls promote once.
func TestConcurrentFinalize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	clock := testutil.NewClock(testutil.Epoch)
	svc := testutil.NewService(t, db, clock)
	handler := NewElectionHandler(svc)

	id := testutil.CreateTestElection(t, svc, testutil.Epoch.Add(-time.Hour), testutil.Epoch.Add(time.Hour))
	if _, err := svc.CastVote(t.Context(), id, testutil.FrankID,
		[]string{testutil.BobID, testutil.CarolID, testutil.DaveID}); err != nil {
		t.Fatalf("Failed to cast vote: %v", err)
	}
	clock.Advance(2 * time.Hour)

	numAttempts := 4
	var succeeded atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/elections/"+id+"/finalize", nil, nil)
			req.SetPathValue("id", id)
			w := httptest.NewRecorder()
			handler.Finalize(w, req)
			if w.Code == http.StatusOK {
				succeeded.Add(1)
			}
		}()
	}

	wg.Wait()

	if succeeded.Load() != 1 {
		t.Errorf("Expected exactly 1 successful finalize, got %d", succeeded.Load())
	}

	var snapshots int
	if err := db.QueryRow("SELECT COUNT(*) FROM result_snapshot WHERE election_id = $1", id).Scan(&snapshots); err != nil {
		t.Fatalf("Failed to count snapshots: %v", err)
	}
	if snapshots != 1 {
		t.Errorf("Expected 1 result snapshot, got %d", snapshots)
	}
}
