// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the boardvote API.

	mux := router.NewRouter(svc, cfg)

# Endpoints

Health:

	GET /health

Members (bearer token):

	GET  /members/eligible           - Members who may stand
	GET  /elections                  - Election summaries
	GET  /elections/{id}             - Election with live or final results
	POST /elections/{id}/votes       - Cast the caller's ballot
	GET  /elections/{id}/my-vote     - The caller's ballot

Admins (bearer token with admin or leader role):

	POST   /elections                - Create election
	PATCH  /elections/{id}           - Edit election
	DELETE /elections/{id}           - Delete unfinalized election
	POST   /elections/{id}/finalize  - Freeze results and promote

Every route except /health is wrapped in request logging.
*/
package router
