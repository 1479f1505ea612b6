package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tripvote/internal/domain/voting"
	"tripvote/internal/repository"
	tripvote_errors "tripvote/pkg/errors"
	"tripvote/pkg/logger"
)

type SessionService struct {
	sessions repository.SessionRepository
	trips    repository.TripDirectory
	logger   *logger.Logger
}

func NewSessionService(sessions repository.SessionRepository, trips repository.TripDirectory, l *logger.Logger) *SessionService {
	return &SessionService{sessions: sessions, trips: trips, logger: l}
}

type CreateSessionInput struct {
	TripID      uuid.UUID
	CreatorID   uuid.UUID
	Title       string
	Description string
	Rules       voting.Rules
	ExpiresAt   *time.Time
}

// Create validates the rule set, verifies the trip reference and persists a
// new active session with a fresh share link. Rules are immutable afterwards.
func (s *SessionService) Create(ctx context.Context, in CreateSessionInput) (voting.VotingSession, error) {
	if err := validateRules(in); err != nil {
		return voting.VotingSession{}, err
	}

	exists, err := s.trips.Exists(ctx, in.TripID)
	if err != nil {
		return voting.VotingSession{}, err
	}
	if !exists {
		return voting.VotingSession{}, tripvote_errors.ErrTripNotFound
	}

	link, err := newShareLink()
	if err != nil {
		return voting.VotingSession{}, err
	}

	session := voting.VotingSession{
		ID:          uuid.New(),
		TripID:      in.TripID,
		CreatorID:   in.CreatorID,
		Title:       in.Title,
		Description: in.Description,
		Rules:       in.Rules,
		Status:      voting.StatusActive,
		ShareLink:   link,
		CreatedAt:   time.Now(),
		ExpiresAt:   in.ExpiresAt,
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return voting.VotingSession{}, err
	}

	if s.logger != nil {
		s.logger.Infof("voting session created: id=%s trip=%s", session.ID, session.TripID)
	}
	return session, nil
}

func (s *SessionService) GetByID(ctx context.Context, id uuid.UUID) (voting.VotingSession, error) {
	return s.sessions.GetByID(ctx, id)
}

func (s *SessionService) GetByShareLink(ctx context.Context, link string) (voting.VotingSession, error) {
	return s.sessions.GetByShareLink(ctx, link)
}

func validateRules(in CreateSessionInput) error {
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", tripvote_errors.ErrInvalidInput)
	}
	r := in.Rules
	if r.ApprovalThreshold <= 0 || r.ApprovalThreshold > 1 {
		return fmt.Errorf("%w: approval threshold must be in (0,1]", tripvote_errors.ErrInvalidInput)
	}
	if r.MinVotesRequired < 1 {
		return fmt.Errorf("%w: min votes required must be at least 1", tripvote_errors.ErrInvalidInput)
	}
	if r.ExpectedVotes != nil && *r.ExpectedVotes < 1 {
		return fmt.Errorf("%w: expected votes must be at least 1", tripvote_errors.ErrInvalidInput)
	}
	// Without either closing condition the session could never complete.
	if in.ExpiresAt == nil && r.ExpectedVotes == nil {
		return fmt.Errorf("%w: either a deadline or an expected vote count is required", tripvote_errors.ErrInvalidInput)
	}
	if in.ExpiresAt != nil && in.ExpiresAt.Before(time.Now()) {
		return fmt.Errorf("%w: deadline is in the past", tripvote_errors.ErrInvalidInput)
	}
	return nil
}

func newShareLink() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
