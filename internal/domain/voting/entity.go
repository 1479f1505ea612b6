package voting

import (
	"time"

	"github.com/google/uuid"
)

// Session status values. The transition is monotonic: ACTIVE -> COMPLETED.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Rules are fixed at session creation and never change afterwards.
type Rules struct {
	// Fraction of FOR votes (of total) required for approval, in (0,1].
	ApprovalThreshold float64 `gorm:"not null"`
	// Minimum ballots before any outcome other than INSUFFICIENT_VOTES.
	MinVotesRequired int `gorm:"not null;default:1"`
	// When set, reaching this vote count closes the session early.
	ExpectedVotes *int
	// Whether IP-identified guest votes are accepted.
	AnonymousAllowed bool `gorm:"not null;default:false"`
}

// VotingSession represents the voting_sessions table
type VotingSession struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TripID      uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatorID   uuid.UUID `gorm:"type:uuid;not null"`
	Title       string    `gorm:"not null"`
	Description string

	Rules Rules `gorm:"embedded"`

	Status    string `gorm:"not null;default:active;index"`
	ShareLink string `gorm:"uniqueIndex;not null"`

	CreatedAt   time.Time
	ExpiresAt   *time.Time `gorm:"index"`
	CompletedAt *time.Time

	ResultsEmailSent   bool `gorm:"not null;default:false"`
	ResultsEmailSentAt *time.Time

	Votes []Vote `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// Vote represents the votes table. Exactly one of UserID and IPAddress is
// set: a member vote carries the user id, a guest vote carries the source IP.
// The paired unique indexes are the dedup boundary; NULLs never collide, so
// the two modes cannot shadow each other.
type Vote struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SessionID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_votes_session_user;uniqueIndex:idx_votes_session_ip"`
	UserID    *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_votes_session_user"`
	IPAddress *string    `gorm:"uniqueIndex:idx_votes_session_ip"`
	// true = FOR, false = AGAINST.
	Value     bool `gorm:"not null"`
	Comment   string
	CreatedAt time.Time
}

func (VotingSession) TableName() string {
	return "voting_sessions"
}

func (Vote) TableName() string {
	return "votes"
}

// VoterIdentity distinguishes an authenticated member from a guest reached
// through the share link.
type VoterIdentity struct {
	UserID    *uuid.UUID
	IPAddress string
}

func (v VoterIdentity) Anonymous() bool {
	return v.UserID == nil
}

// Expired reports whether the session deadline has passed at the given time.
// Sessions without a deadline never expire.
func (s *VotingSession) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

func (s *VotingSession) Completed() bool {
	return s.Status == StatusCompleted
}
