// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the boardvote API server.

Boardvote runs board elections for a member organization. Admins set up
elections with a slate of candidates, members cast one ballot naming three
candidates, and a completed election is finalized exactly once, promoting the
top three members to Leader and Admin.

# Starting the Server

The server reads CLI flags first, then environment variables, then a .env
file in the working directory:

	DATABASE_URL=file:boardvote.db JWT_SECRET=dev go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -redis localhost:6379

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string
  - JWT_SECRET (-jwt-secret): HS256 secret for member bearer tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - REDIS_URL (-redis): enables the live tally cache
  - CACHE_TTL (-cache-ttl): tally cache lifetime (default: 30s)

# Architecture

  - election: lifecycle, vote ledger, ranking and finalization
  - store: SQL persistence and the member directory
  - cache: Redis tally cache
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, bearer auth, JSON helpers
  - auth: JWT identity parsing
  - models: Request, response and domain types
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
