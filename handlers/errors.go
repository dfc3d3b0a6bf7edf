// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/boardvote/auth"
	"github.com/danielhkuo/boardvote/election"
	"github.com/danielhkuo/boardvote/middleware"
)

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, election.ErrValidation), errors.Is(err, election.ErrInvalidBallot):
		return http.StatusBadRequest
	case errors.Is(err, election.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, election.ErrDuplicateVote),
		errors.Is(err, election.ErrLockedElection),
		errors.Is(err, election.ErrFinalizedElection),
		errors.Is(err, election.ErrAlreadyFinalized),
		errors.Is(err, election.ErrNotActive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends the error envelope. Internal errors are logged and their
// text is not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(action, "path", r.URL.Path, "error", err)
		middleware.ErrorResponse(w, status, "Internal server error")
		return
	}
	middleware.ErrorResponse(w, status, err.Error())
}

// callerOrReject returns the authenticated identity, or writes a 401.
func callerOrReject(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Valid bearer token required")
		return nil, false
	}
	return id, true
}
