// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielhkuo/boardvote/models"
)

// Store is the durable record of elections, slates, ballots and snapshots.
//
// Implementations must enforce uniqueness of (election, voter) for ballots
// and a single false→true transition of the finalized flag; the service
// relies on those guarantees instead of in-process locking.
type Store interface {
	InsertElection(ctx context.Context, e *models.Election) error
	// GetElection returns the stored election with its slate in stored
	// order and TotalVotes set to the ballot count.
	GetElection(ctx context.Context, id string) (*models.Election, error)
	ListElections(ctx context.Context) ([]models.Election, error)
	UpdateElection(ctx context.Context, upd ElectionUpdate) error
	DeleteElection(ctx context.Context, id string) error

	// InsertBallot returns ErrDuplicateVote when the voter already has a
	// ballot for the election.
	InsertBallot(ctx context.Context, b models.Ballot) error
	ListBallots(ctx context.Context, electionID string) ([]models.Ballot, error)
	GetBallot(ctx context.Context, electionID, voterUserID string) (*models.Ballot, error)

	// FinalizeElection flips the finalized flag, stores the snapshot and
	// records the promotions as pending under claim, all in one transaction.
	// A caller that loses the race gets ErrAlreadyFinalized.
	FinalizeElection(ctx context.Context, id string, at time.Time, final models.Results, promotions []models.RolePromotion, claim string) error
	GetSnapshot(ctx context.Context, electionID string) (*models.Results, error)

	// ClaimPromotions atomically takes the unissued promotions nobody else
	// holds. An empty result means there is nothing left to issue.
	ClaimPromotions(ctx context.Context, electionID, claim string) ([]models.RolePromotion, error)
	MarkPromotionIssued(ctx context.Context, electionID string, seat int, at time.Time) error
	ReleasePromotions(ctx context.Context, electionID, claim string) error
}

// ElectionUpdate is a merged election plus the guards the store must apply
// inside its write transaction.
type ElectionUpdate struct {
	Election         *models.Election
	ReplaceSlate     bool
	RequireNoBallots bool
}

// Directory is the member directory: who may stand, and who gets promoted.
type Directory interface {
	ListEligibleCandidates(ctx context.Context) ([]models.Member, error)
	PromoteToRole(ctx context.Context, userID string, role models.Role, at time.Time) error
}

// TallyCache holds live result projections. A miss returns (nil, nil).
type TallyCache interface {
	Get(ctx context.Context, electionID string) (*models.Results, error)
	Set(ctx context.Context, results models.Results) error
	Invalidate(ctx context.Context, electionID string) error
}

// Service runs elections from creation through finalization.
type Service struct {
	store     Store
	directory Directory
	cache     TallyCache
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the live tally cache.
func WithCache(cache TallyCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now; tests use it to move through the voting window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service over store and directory with the real clock
// and slog.Default unless opts say otherwise.
func NewService(store Store, directory Directory, opts ...Option) *Service {
	s := &Service{
		store:     store,
		directory: directory,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) invalidate(ctx context.Context, electionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, electionID); err != nil {
		s.logger.Warn("failed to invalidate tally cache", "election_id", electionID, "error", err)
	}
}
