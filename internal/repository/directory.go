package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	tripvote_errors "tripvote/pkg/errors"
)

// The users and trips tables belong to the wider trip-planning application.
// Only the columns this module reads are mapped.

type directoryUser struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email string
}

func (directoryUser) TableName() string {
	return "users"
}

type directoryTrip struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (directoryTrip) TableName() string {
	return "trips"
}

type PostgresUserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) UserDirectory {
	return &PostgresUserDirectory{db: db}
}

func (r *PostgresUserDirectory) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var u directoryUser
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", tripvote_errors.ErrUserNotFound
		}
		return "", err
	}
	if u.Email == "" {
		return "", tripvote_errors.ErrUserNotFound
	}
	return u.Email, nil
}

type PostgresTripDirectory struct {
	db *gorm.DB
}

func NewTripDirectory(db *gorm.DB) TripDirectory {
	return &PostgresTripDirectory{db: db}
}

func (r *PostgresTripDirectory) Exists(ctx context.Context, tripID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&directoryTrip{}).
		Where("id = ?", tripID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
