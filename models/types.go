// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Election status constants (always derived, never stored)
const (
	StatusUpcoming  = "upcoming"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Member roles
type Role string

const (
	RoleMember     Role = "member"
	RoleFullMember Role = "full_member"
	RoleAdmin      Role = "admin"
	RoleLeader     Role = "leader"
)

// IsCandidateEligible reports whether a member with this role may stand for election.
func (r Role) IsCandidateEligible() bool {
	switch r {
	case RoleFullMember, RoleAdmin, RoleLeader:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role carries admin rights. Leader implies Admin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleLeader
}

// Tie notice severities
const (
	SeverityInfo = "info"
	SeverityWarn = "warn"
)

// Ballot shape
const (
	ChoicesPerBallot = 3
	MinCandidates    = 4
	RoleSeats        = 3
)

// Request types

type CreateElectionRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	CandidateUserIDs []string  `json:"candidate_user_ids"`
}

// Nil fields are left unchanged.
type UpdateElectionRequest struct {
	Title            *string    `json:"title,omitempty"`
	Description      *string    `json:"description,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	CandidateUserIDs []string   `json:"candidate_user_ids,omitempty"`
}

type CastVoteRequest struct {
	CandidateUserIDs []string `json:"candidate_user_ids"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
}

type CastVoteResponse struct {
	BallotID string    `json:"ballot_id"`
	CastAt   time.Time `json:"cast_at"`
	Message  string    `json:"message"`
}

type FinalizeResponse struct {
	ElectionID  string          `json:"election_id"`
	FinalizedAt time.Time       `json:"finalized_at"`
	Promotions  []RolePromotion `json:"promotions"`
	Notices     []TieNotice     `json:"notices"`
}

// Domain types

type Member struct {
	UserID    string  `json:"user_id"`
	FullName  string  `json:"full_name"`
	Biography *string `json:"biography,omitempty"`
	Role      Role    `json:"role"`
}

type Election struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Status      string      `json:"status"`
	IsFinalized bool        `json:"is_finalized"`
	FinalizedAt *time.Time  `json:"finalized_at,omitempty"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	Candidates  []Candidate `json:"candidates"`
	TotalVotes  int         `json:"total_votes"`
	Notices     []TieNotice `json:"notices"`
}

// CandidateIDs returns the slate's user ids in stored order.
func (e *Election) CandidateIDs() []string {
	ids := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		ids[i] = c.UserID
	}
	return ids
}

type Candidate struct {
	UserID     string  `json:"user_id"`
	FullName   string  `json:"full_name"`
	Biography  *string `json:"biography,omitempty"`
	Votes      int     `json:"votes"`
	Percentage int     `json:"percentage"`
	Rank       int     `json:"rank"` // 0-indexed; 0 is the Leader seat
}

type ElectionSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	IsFinalized    bool      `json:"is_finalized"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	StartsIn       string    `json:"starts"`
	EndsIn         string    `json:"ends"`
	CandidateCount int       `json:"candidate_count"`
	TotalVotes     int       `json:"total_votes"`
}

type Ballot struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	VoterUserID string    `json:"voter_user_id"`
	Choices     []string  `json:"choices"`
	CastAt      time.Time `json:"cast_at"`
}

type TieNotice struct {
	Severity string   `json:"severity"`
	Message  string   `json:"message"`
	Start    int      `json:"start"`
	Size     int      `json:"size"`
	UserIDs  []string `json:"user_ids"`
}

// Results is the ranked projection of an election's ballots.
type Results struct {
	ElectionID string      `json:"election_id"`
	ComputedAt time.Time   `json:"computed_at"`
	TotalVotes int         `json:"total_votes"`
	Candidates []Candidate `json:"candidates"`
	Notices    []TieNotice `json:"notices"`
}

type RolePromotion struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Rank     int    `json:"rank"`
	Role     Role   `json:"role"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
