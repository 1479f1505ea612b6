package httpdto

import "github.com/google/uuid"

// RulesDTO carries the consensus parameters of a session. Thresholds are
// fractions in (0, 1], not percentages.
type RulesDTO struct {
	ApprovalThreshold float64 `json:"approval_threshold" binding:"required"`
	MinVotesRequired  int     `json:"min_votes_required" binding:"required"`
	ExpectedVotes     *int    `json:"expected_votes,omitempty"`
	AnonymousAllowed  bool    `json:"anonymous_allowed"`
}

type CreateSessionRequest struct {
	TripID      uuid.UUID `json:"trip_id" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Rules       RulesDTO  `json:"rules" binding:"required"`
	ExpiresAt   *string   `json:"expires_at,omitempty"`
}

type SessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	TripID    uuid.UUID `json:"trip_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	ShareLink string    `json:"share_link"`
	ExpiresAt *string   `json:"expires_at,omitempty"`
	CreatedAt string    `json:"created_at"`
}

// SubmitVoteRequest uses a bool pointer so "value": false survives the
// required check.
type SubmitVoteRequest struct {
	ShareLink string `json:"share_link" binding:"required"`
	Value     *bool  `json:"value" binding:"required"`
	Comment   string `json:"comment"`
}

type VoteResponse struct {
	VoteID    uuid.UUID `json:"vote_id"`
	SessionID uuid.UUID `json:"session_id"`
	CreatedAt string    `json:"created_at"`
}

type TallyDTO struct {
	Total   int `json:"total"`
	For     int `json:"for"`
	Against int `json:"against"`
}

type ResultsResponse struct {
	SessionID    uuid.UUID `json:"session_id"`
	Title        string    `json:"title"`
	Status       string    `json:"status"`
	Counts       TallyDTO  `json:"counts"`
	ApprovalRate float64   `json:"approval_rate"`
	Outcome      string    `json:"outcome"`
	YouVoted     bool      `json:"you_voted"`
	ExpiresAt    *string   `json:"expires_at,omitempty"`
}

type SweepResponse struct {
	NewlyClosedCount int `json:"newly_closed_count"`
	EmailedCount     int `json:"emailed_count"`
	PurgedCount      int `json:"purged_count,omitempty"`
}

type SendResultsResponse struct {
	Status string `json:"status"`
}
