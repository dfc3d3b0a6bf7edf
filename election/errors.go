// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidBallot     = errors.New("invalid ballot")
	ErrDuplicateVote     = errors.New("member has already voted in this election")
	ErrNotActive         = errors.New("election is not in the required state")
	ErrLockedElection    = errors.New("election is locked after voting started")
	ErrFinalizedElection = errors.New("election is finalized")
	ErrAlreadyFinalized  = errors.New("election is already finalized")
	ErrNotFound          = errors.New("not found")
)
