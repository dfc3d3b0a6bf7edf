// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth turns bearer tokens into member identities.

# Tokens

The identity provider signs HS256 JWTs carrying the member id and roles:

	{"id": "u-123", "roles": ["full_member"], "exp": 1767225600}

ParseToken verifies signature and expiry, then decodes the claims:

	id, err := auth.ParseToken(secret, raw)

A "sub" claim is accepted when "id" is absent, and a single "role" claim
when "roles" is absent.

IssueToken produces the same shape for tests and local tooling:

	token, err := auth.IssueToken(secret, "u-123", []models.Role{models.RoleAdmin}, time.Hour)

# Request Context

The auth middleware stores the identity on the request context:

	id, ok := auth.FromContext(r.Context())

Identity.IsAdmin is true for both admins and leaders.
*/
package auth
