// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/boardvote/election"
	"github.com/danielhkuo/boardvote/middleware"
	"github.com/danielhkuo/boardvote/models"
)

type VotingHandler struct {
	svc *election.Service
}

func NewVotingHandler(svc *election.Service) *VotingHandler {
	return &VotingHandler{svc: svc}
}

// CastVote handles POST /elections/{id}/votes
// The voter is always the token's member; the body only carries the choices.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrReject(w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ballot, err := h.svc.CastVote(r.Context(), r.PathValue("id"), caller.UserID, req.CandidateUserIDs)
	if err != nil {
		writeError(w, r, err, "failed to cast vote")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		BallotID: ballot.ID,
		CastAt:   ballot.CastAt,
		Message:  "Vote recorded",
	})
}

// GetMyVote handles GET /elections/{id}/my-vote
func (h *VotingHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrReject(w, r)
	if !ok {
		return
	}

	ballot, err := h.svc.GetBallot(r.Context(), r.PathValue("id"), caller.UserID)
	if err != nil {
		writeError(w, r, err, "failed to load ballot")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, ballot)
}
