package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tripvote/internal/repository"
	"tripvote/pkg/logger"
)

// SessionCloser owns the active -> completed transition. Both close triggers
// (the vote that reaches expected_votes and the expiration sweep) funnel
// through TryClose, so the race between them resolves in the store: the
// conditional update matches at most once per session.
type SessionCloser struct {
	sessions repository.SessionRepository
	logger   *logger.Logger
}

func NewSessionCloser(sessions repository.SessionRepository, l *logger.Logger) *SessionCloser {
	return &SessionCloser{sessions: sessions, logger: l}
}

// TryClose returns true if this call performed the close, false if the
// session was already completed. completed_at is stamped in the same
// conditional write.
func (c *SessionCloser) TryClose(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	closedNow, err := c.sessions.TryClose(ctx, sessionID, time.Now())
	if err != nil {
		return false, err
	}
	if closedNow && c.logger != nil {
		c.logger.Infof("voting session closed: id=%s", sessionID)
	}
	return closedNow, nil
}
