// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: title, description, start/end dates, candidate_user_ids
  - UpdateElectionRequest: optional fields; nil means unchanged
  - CastVoteRequest: candidate_user_ids (exactly 3)

# Response Types

  - CreateElectionResponse: election_id
  - CastVoteResponse: ballot_id, cast_at
  - FinalizeResponse: finalized_at, promotions, notices
  - ErrorResponse: error, message

# Domain Types

  - Member: directory entry with role
  - Election: election metadata with derived status and ranked candidates
  - Candidate: slate entry with projected vote count, percentage and rank
  - Ballot: one member's three choices
  - TieNotice: human-readable tie warning for the role-bearing seats
  - Results: ranked projection, also stored as the final snapshot
  - RolePromotion: role granted at finalization

# Constants

Derived status values:

	StatusUpcoming  = "upcoming"
	StatusActive    = "active"
	StatusCompleted = "completed"

Roles:

	RoleMember, RoleFullMember, RoleAdmin, RoleLeader

Only full members, admins and leaders may be candidates.
*/
package models
