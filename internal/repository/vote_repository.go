package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"tripvote/internal/domain/voting"
	tripvote_errors "tripvote/pkg/errors"
)

type PostgresVoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &PostgresVoteRepository{db: db}
}

func (r *PostgresVoteRepository) Create(ctx context.Context, v *voting.Vote) error {
	res := r.db.WithContext(ctx).Create(v)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return tripvote_errors.ErrDuplicateVote
		}
		return res.Error
	}
	return nil
}

func (r *PostgresVoteRepository) HasVoted(ctx context.Context, sessionID uuid.UUID, identity voting.VoterIdentity) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&voting.Vote{}).
		Where("session_id = ?", sessionID)
	if identity.Anonymous() {
		q = q.Where("ip_address = ?", identity.IPAddress)
	} else {
		q = q.Where("user_id = ?", *identity.UserID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresVoteRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&voting.Vote{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func (r *PostgresVoteRepository) TallyBySession(ctx context.Context, sessionID uuid.UUID) (voting.Tally, error) {
	var row struct {
		TotalVotes   int
		ForVotes     int
		AgainstVotes int
	}
	err := r.db.WithContext(ctx).
		Model(&voting.Vote{}).
		Select("COUNT(*) AS total_votes, COALESCE(SUM(CASE WHEN value THEN 1 ELSE 0 END), 0) AS for_votes, COALESCE(SUM(CASE WHEN value THEN 0 ELSE 1 END), 0) AS against_votes").
		Where("session_id = ?", sessionID).
		Scan(&row).Error
	if err != nil {
		return voting.Tally{}, err
	}
	return voting.Tally{Total: row.TotalVotes, For: row.ForVotes, Against: row.AgainstVotes}, nil
}

func (r *PostgresVoteRepository) ListVoterUserIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&voting.Vote{}).
		Distinct("user_id").
		Where("session_id = ? AND user_id IS NOT NULL", sessionID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// isUniqueViolation matches both gorm's translated error and the raw
// Postgres 23505 code, depending on which driver path reported it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
