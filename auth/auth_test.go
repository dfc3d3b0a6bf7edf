// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danielhkuo/boardvote/models"
)

const secret = "auth-test-secret"

func signClaims(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return raw
}

func TestIssueAndParseToken(t *testing.T) {
	raw, err := IssueToken(secret, "member-1", []models.Role{models.RoleFullMember, models.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	id, err := ParseToken(secret, raw)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if id.UserID != "member-1" {
		t.Errorf("UserID = %q, want member-1", id.UserID)
	}
	if !id.HasRole(models.RoleAdmin) || !id.HasRole(models.RoleFullMember) {
		t.Errorf("Roles = %v, want full_member and admin", id.Roles)
	}
	if !id.IsAdmin() {
		t.Error("IsAdmin() = false, want true")
	}
}

func TestParseToken_ClaimFallbacks(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name      string
		claims    jwt.MapClaims
		wantUser  string
		wantRoles []models.Role
	}{
		{
			name:      "sub when id missing",
			claims:    jwt.MapClaims{"sub": "member-2", "roles": []string{"member"}, "exp": exp},
			wantUser:  "member-2",
			wantRoles: []models.Role{models.RoleMember},
		},
		{
			name:      "single role claim",
			claims:    jwt.MapClaims{"id": "member-3", "role": "leader", "exp": exp},
			wantUser:  "member-3",
			wantRoles: []models.Role{models.RoleLeader},
		},
		{
			name:      "roles wins over role",
			claims:    jwt.MapClaims{"id": "member-4", "role": "admin", "roles": []string{"full_member"}, "exp": exp},
			wantUser:  "member-4",
			wantRoles: []models.Role{models.RoleFullMember},
		},
		{
			name:     "no roles at all",
			claims:   jwt.MapClaims{"id": "member-5", "exp": exp},
			wantUser: "member-5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := signClaims(t, jwt.SigningMethodHS256, []byte(secret), tt.claims)
			id, err := ParseToken(secret, raw)
			if err != nil {
				t.Fatalf("ParseToken() error = %v", err)
			}
			if id.UserID != tt.wantUser {
				t.Errorf("UserID = %q, want %q", id.UserID, tt.wantUser)
			}
			if len(id.Roles) != len(tt.wantRoles) {
				t.Fatalf("Roles = %v, want %v", id.Roles, tt.wantRoles)
			}
			for i := range tt.wantRoles {
				if id.Roles[i] != tt.wantRoles[i] {
					t.Errorf("Roles[%d] = %q, want %q", i, id.Roles[i], tt.wantRoles[i])
				}
			}
		})
	}
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := IssueToken(secret, "member-1", nil, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := IssueToken("not-the-secret", "member-1", nil, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	anonymous := signClaims(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"roles": []string{"admin"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	wrongAlg := signClaims(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{
		"id":  "member-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"empty", "", ErrMissingToken},
		{"malformed", "abc.def.ghi", ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"wrong secret", foreign, ErrInvalidToken},
		{"no member id", anonymous, ErrInvalidToken},
		{"unexpected algorithm", wrongAlg, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseToken(secret, tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseToken() error = %v, want %v", err, tt.wantErr)
			}
			if id != nil {
				t.Errorf("ParseToken() identity = %+v, want nil", id)
			}
		})
	}
}

func TestIdentity_IsAdmin(t *testing.T) {
	tests := []struct {
		roles []models.Role
		want  bool
	}{
		{nil, false},
		{[]models.Role{models.RoleMember}, false},
		{[]models.Role{models.RoleFullMember}, false},
		{[]models.Role{models.RoleAdmin}, true},
		{[]models.Role{models.RoleMember, models.RoleLeader}, true},
	}

	for _, tt := range tests {
		if got := (Identity{UserID: "x", Roles: tt.roles}).IsAdmin(); got != tt.want {
			t.Errorf("IsAdmin(%v) = %v, want %v", tt.roles, got, tt.want)
		}
	}
}

func TestContextIdentity(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext() on empty context reported an identity")
	}

	want := &Identity{UserID: "member-7", Roles: []models.Role{models.RoleAdmin}}
	got, ok := FromContext(WithIdentity(context.Background(), want))
	if !ok || got != want {
		t.Errorf("FromContext() = %v, %v; want %v", got, ok, want)
	}

	if _, ok := FromContext(WithIdentity(context.Background(), nil)); ok {
		t.Error("FromContext() treated a nil identity as present")
	}
}
