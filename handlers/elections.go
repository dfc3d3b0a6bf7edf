// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/boardvote/election"
	"github.com/danielhkuo/boardvote/middleware"
	"github.com/danielhkuo/boardvote/models"
)

type ElectionHandler struct {
	svc *election.Service
}

func NewElectionHandler(svc *election.Service) *ElectionHandler {
	return &ElectionHandler{svc: svc}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrReject(w, r)
	if !ok {
		return
	}

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	id, err := h.svc.CreateElection(r.Context(), caller.UserID, req)
	if err != nil {
		writeError(w, r, err, "failed to create election")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{ElectionID: id})
}

// ListElections handles GET /elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.ListElections(r.Context())
	if err != nil {
		writeError(w, r, err, "failed to list elections")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, summaries)
}

// GetElection handles GET /elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetElection(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "failed to load election")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// UpdateElection handles PATCH /elections/{id} and returns the updated election.
func (h *ElectionHandler) UpdateElection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req models.UpdateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.svc.UpdateElection(r.Context(), id, req); err != nil {
		writeError(w, r, err, "failed to update election")
		return
	}

	e, err := h.svc.GetElection(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to load election")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// DeleteElection handles DELETE /elections/{id}
func (h *ElectionHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteElection(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "failed to delete election")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Finalize handles POST /elections/{id}/finalize
func (h *ElectionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Finalize(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "failed to finalize election")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ListEligibleCandidates handles GET /members/eligible
func (h *ElectionHandler) ListEligibleCandidates(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListEligibleCandidates(r.Context())
	if err != nil {
		writeError(w, r, err, "failed to list eligible members")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, members)
}
