// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first (github.com/joho/godotenv);
values already present in the environment are not overwritten.

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type (sqlite or postgres)
	-jwt-secret   Bearer token signing secret
	-redis        Redis address for the tally cache
	-cache-ttl    Tally cache TTL (e.g. 30s)

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p (default 3318)
	DATABASE_URL  → -d (required)
	DATABASE_TYPE → -t (default sqlite)
	JWT_SECRET    → -jwt-secret (required)
	REDIS_URL     → -redis (optional; empty disables caching)
	CACHE_TTL     → -cache-ttl (default 30s)

CLI flags take precedence over environment variables.
*/
package cliparse
