// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/boardvote/auth"
	"github.com/danielhkuo/boardvote/cliparse"
	"github.com/danielhkuo/boardvote/db"
	"github.com/danielhkuo/boardvote/election"
	"github.com/danielhkuo/boardvote/models"
	"github.com/danielhkuo/boardvote/store"
)

// Seeded member ids. Alice is the admin who creates elections; Bob through
// Frank are full members who can stand; Grace is a plain member who can only vote.
const (
	AdminID = "alice"
	BobID   = "bob"
	CarolID = "carol"
	DaveID  = "dave"
	EveID   = "eve"
	FrankID = "frank"
	GraceID = "grace"
)

// Epoch is the default "now" for test clocks.
var Epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// SetupTestDB creates a throwaway SQLite database with the full schema and
// the seeded member directory.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	SeedMembers(t, conn)
	return conn
}

// SeedMembers writes the standard directory used across tests.
func SeedMembers(t *testing.T, conn *sql.DB) {
	t.Helper()

	members := store.NewMembers(conn)
	for _, m := range []models.Member{
		{UserID: AdminID, FullName: "Alice Admin", Role: models.RoleAdmin},
		{UserID: BobID, FullName: "Bob Baker", Role: models.RoleFullMember},
		{UserID: CarolID, FullName: "Carol Chen", Role: models.RoleFullMember},
		{UserID: DaveID, FullName: "Dave Diaz", Role: models.RoleFullMember},
		{UserID: EveID, FullName: "Eve Evans", Role: models.RoleFullMember},
		{UserID: FrankID, FullName: "Frank Fox", Role: models.RoleFullMember},
		{UserID: GraceID, FullName: "Grace Green", Role: models.RoleMember},
	} {
		if err := members.UpsertMember(context.Background(), m); err != nil {
			t.Fatalf("Failed to seed member %s: %v", m.UserID, err)
		}
	}
}

// Clock is a settable time source for election.WithClock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// NewService wires the engine to a SQLite store and directory on conn.
func NewService(t *testing.T, conn *sql.DB, clock *Clock, opts ...election.Option) *election.Service {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	base := []election.Option{election.WithClock(clock.Now), election.WithLogger(logger)}
	return election.NewService(
		store.New(conn, db.TypeSQLite, logger),
		store.NewMembers(conn),
		append(base, opts...)...,
	)
}

// testWriter routes log output through t.Log so it only shows on failure.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file:test.db",
		DatabaseType: db.TypeSQLite,
		JWTSecret:    "test-jwt-secret",
		CacheTTL:     30 * time.Second,
	}
}

// Token signs a bearer token for userID with the given roles.
func Token(t *testing.T, cfg cliparse.Config, userID string, roles ...models.Role) string {
	t.Helper()

	raw, err := auth.IssueToken(cfg.JWTSecret, userID, roles, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return raw
}

// BearerHeader is the headers map MakeRequest expects for an authenticated call.
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AsMember attaches an identity directly, bypassing the auth middleware.
func AsMember(req *http.Request, userID string, roles ...models.Role) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: userID, Roles: roles}))
}

// CreateTestElection creates an election with the four default candidates
// (Bob, Carol, Dave, Eve) open from start to end.
func CreateTestElection(t *testing.T, svc *election.Service, start, end time.Time) string {
	t.Helper()

	id, err := svc.CreateElection(context.Background(), AdminID, models.CreateElectionRequest{
		Title:            "Board Election",
		Description:      "Annual board election",
		StartDate:        start,
		EndDate:          end,
		CandidateUserIDs: []string{BobID, CarolID, DaveID, EveID},
	})
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return id
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
