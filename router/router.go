// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/boardvote/cliparse"
	"github.com/danielhkuo/boardvote/election"
	"github.com/danielhkuo/boardvote/handlers"
	"github.com/danielhkuo/boardvote/middleware"
)

func NewRouter(svc *election.Service, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(svc)
	votingHandler := handlers.NewVotingHandler(svc)

	member := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithAuth(cfg.JWTSecret, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return member(middleware.RequireAdmin(h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Directory
	mux.HandleFunc("GET /members/eligible", member(electionHandler.ListEligibleCandidates))

	// Election management (admin operations)
	mux.HandleFunc("POST /elections", admin(electionHandler.CreateElection))
	mux.HandleFunc("PATCH /elections/{id}", admin(electionHandler.UpdateElection))
	mux.HandleFunc("DELETE /elections/{id}", admin(electionHandler.DeleteElection))
	mux.HandleFunc("POST /elections/{id}/finalize", admin(electionHandler.Finalize))

	// Reads
	mux.HandleFunc("GET /elections", member(electionHandler.ListElections))
	mux.HandleFunc("GET /elections/{id}", member(electionHandler.GetElection))

	// Voting
	mux.HandleFunc("POST /elections/{id}/votes", member(votingHandler.CastVote))
	mux.HandleFunc("GET /elections/{id}/my-vote", member(votingHandler.GetMyVote))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("boardvote API v1"))
	})

	return mux
}
