package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tripvote/internal/domain/voting"
)

type SessionRepository interface {
	Create(ctx context.Context, s *voting.VotingSession) error
	GetByID(ctx context.Context, id uuid.UUID) (voting.VotingSession, error)
	GetByShareLink(ctx context.Context, link string) (voting.VotingSession, error)

	// TryClose performs the single conditional transition active -> completed.
	// It returns true only for the caller that actually flipped the status;
	// every concurrent caller sees false.
	TryClose(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// MarkResultsSent flips results_email_sent false -> true. Same
	// single-winner semantics as TryClose.
	MarkResultsSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	FindExpiredActive(ctx context.Context, now time.Time) ([]voting.VotingSession, error)
	FindCompletedUnnotified(ctx context.Context) ([]voting.VotingSession, error)

	// FindPurgeable lists completed sessions whose result notification is
	// confirmed sent; only these may be deleted by the sweep's purge mode.
	FindPurgeable(ctx context.Context) ([]voting.VotingSession, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

type VoteRepository interface {
	// Create persists a vote. The store's uniqueness constraints are the
	// dedup boundary: a second vote for the same identity surfaces as
	// ErrDuplicateVote regardless of interleaving.
	Create(ctx context.Context, v *voting.Vote) error

	HasVoted(ctx context.Context, sessionID uuid.UUID, identity voting.VoterIdentity) (bool, error)
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
	TallyBySession(ctx context.Context, sessionID uuid.UUID) (voting.Tally, error)
	ListVoterUserIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
}

// UserDirectory resolves voter and creator references to addresses. The users
// table is owned by the wider application; this module only reads it.
type UserDirectory interface {
	GetEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

// TripDirectory answers existence checks against the externally owned trips
// table.
type TripDirectory interface {
	Exists(ctx context.Context, tripID uuid.UUID) (bool, error)
}
