package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tripvote/internal/domain/voting"
	tripvote_errors "tripvote/pkg/errors"
)

type PostgresSessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) Create(ctx context.Context, s *voting.VotingSession) error {
	res := r.db.WithContext(ctx).Create(s)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return tripvote_errors.ErrInvalidInput
		}
		return res.Error
	}
	return nil
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (voting.VotingSession, error) {
	var s voting.VotingSession
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return voting.VotingSession{}, tripvote_errors.ErrSessionNotFound
		}
		return voting.VotingSession{}, err
	}
	return s, nil
}

func (r *PostgresSessionRepository) GetByShareLink(ctx context.Context, link string) (voting.VotingSession, error) {
	var s voting.VotingSession
	err := r.db.WithContext(ctx).
		Where("share_link = ?", link).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return voting.VotingSession{}, tripvote_errors.ErrSessionNotFound
		}
		return voting.VotingSession{}, err
	}
	return s, nil
}

// TryClose is the compare-and-set close: the WHERE clause only matches while
// the session is still active, so exactly one concurrent caller gets
// RowsAffected == 1.
func (r *PostgresSessionRepository) TryClose(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&voting.VotingSession{}).
		Where("id = ? AND status = ?", id, voting.StatusActive).
		Updates(map[string]interface{}{
			"status":       voting.StatusCompleted,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PostgresSessionRepository) MarkResultsSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&voting.VotingSession{}).
		Where("id = ? AND results_email_sent = ?", id, false).
		Updates(map[string]interface{}{
			"results_email_sent":    true,
			"results_email_sent_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PostgresSessionRepository) FindExpiredActive(ctx context.Context, now time.Time) ([]voting.VotingSession, error) {
	var sessions []voting.VotingSession
	err := r.db.WithContext(ctx).
		Where("status <> ? AND expires_at IS NOT NULL AND expires_at < ?", voting.StatusCompleted, now).
		Order("expires_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *PostgresSessionRepository) FindCompletedUnnotified(ctx context.Context) ([]voting.VotingSession, error) {
	var sessions []voting.VotingSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND results_email_sent = ?", voting.StatusCompleted, false).
		Order("completed_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *PostgresSessionRepository) FindPurgeable(ctx context.Context) ([]voting.VotingSession, error) {
	var sessions []voting.VotingSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND results_email_sent = ?", voting.StatusCompleted, true).
		Order("completed_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes a session; votes go with it via the FK cascade.
func (r *PostgresSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&voting.VotingSession{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return tripvote_errors.ErrSessionNotFound
	}
	return nil
}
