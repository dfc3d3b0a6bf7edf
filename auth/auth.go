// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"

	"github.com/danielhkuo/boardvote/models"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the caller as vouched for by the identity provider's token.
type Identity struct {
	UserID string
	Roles  []models.Role
}

func (id Identity) HasRole(role models.Role) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin is true for admins and leaders.
func (id Identity) IsAdmin() bool {
	for _, r := range id.Roles {
		if r.IsAdmin() {
			return true
		}
	}
	return false
}

// memberClaims mirrors the custom claims carried in the token body.
// "role" is the single-role form some issuers use; "roles" wins when both exist.
type memberClaims struct {
	ID    string   `mapstructure:"id"`
	Sub   string   `mapstructure:"sub"`
	Role  string   `mapstructure:"role"`
	Roles []string `mapstructure:"roles"`
}

// IssueToken signs an HS256 token for a member. Production tokens come from
// the identity provider; this is used by tests and local tooling.
func IssueToken(secret, userID string, roles []models.Role, ttl time.Duration) (string, error) {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	claims := jwt.MapClaims{
		"id":    userID,
		"roles": names,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry and extracts the identity.
func ParseToken(secret, raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	var claims memberClaims
	if err := mapstructure.Decode(map[string]interface{}(mapClaims), &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := Identity{UserID: claims.ID}
	if id.UserID == "" {
		id.UserID = claims.Sub
	}
	if id.UserID == "" {
		return nil, fmt.Errorf("%w: no member id", ErrInvalidToken)
	}

	roles := claims.Roles
	if len(roles) == 0 && claims.Role != "" {
		roles = []string{claims.Role}
	}
	for _, r := range roles {
		id.Roles = append(id.Roles, models.Role(r))
	}
	return &id, nil
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity attached by the auth middleware, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok && id != nil
}
