// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the boardvote API.

# Handler Types

Each handler wraps the election service:

  - ElectionHandler: election lifecycle, results, finalization and the
    eligible-member list
  - VotingHandler: ballot submission and the caller's own ballot

	electionHandler := handlers.NewElectionHandler(svc)

Handlers read the caller from the request context, where
middleware.WithAuth put it. Role checks happen in the router.

# Errors

Engine errors map onto status codes with errors.Is:

	ErrValidation, ErrInvalidBallot             → 400
	ErrNotFound                                 → 404
	ErrDuplicateVote, ErrLockedElection,
	ErrFinalizedElection, ErrAlreadyFinalized,
	ErrNotActive                                → 409
	anything else                               → 500 (logged, not echoed)
*/
package handlers
