package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"tripvote/internal/domain/voting"
	tripvote_errors "tripvote/pkg/errors"
)

func TestCreateSession(t *testing.T) {
	env := newTestEnv()
	tripID := uuid.New()
	env.store.SetTrip(tripID)

	session, err := env.sessions.Create(context.Background(), CreateSessionInput{
		TripID:    tripID,
		CreatorID: uuid.New(),
		Title:     "Where to next",
		Rules: voting.Rules{
			ApprovalThreshold: 0.6,
			MinVotesRequired:  2,
			ExpectedVotes:     intPtr(4),
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if session.Status != voting.StatusActive {
		t.Errorf("status = %s, want active", session.Status)
	}
	if len(session.ShareLink) != 32 {
		t.Errorf("share link %q, want 32 hex chars", session.ShareLink)
	}

	got, err := env.store.GetByShareLink(context.Background(), session.ShareLink)
	if err != nil {
		t.Fatalf("GetByShareLink: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("lookup by share link returned %s, want %s", got.ID, session.ID)
	}
}

func TestCreateSessionUnknownTrip(t *testing.T) {
	env := newTestEnv()

	_, err := env.sessions.Create(context.Background(), CreateSessionInput{
		TripID:    uuid.New(),
		CreatorID: uuid.New(),
		Title:     "Orphan session",
		Rules:     voting.Rules{ApprovalThreshold: 0.5, MinVotesRequired: 1, ExpectedVotes: intPtr(3)},
	})
	if !errors.Is(err, tripvote_errors.ErrTripNotFound) {
		t.Fatalf("err = %v, want ErrTripNotFound", err)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	env := newTestEnv()
	tripID := uuid.New()
	env.store.SetTrip(tripID)

	valid := func() CreateSessionInput {
		return CreateSessionInput{
			TripID:    tripID,
			CreatorID: uuid.New(),
			Title:     "Valid",
			Rules: voting.Rules{
				ApprovalThreshold: 0.6,
				MinVotesRequired:  1,
				ExpectedVotes:     intPtr(3),
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*CreateSessionInput)
	}{
		{"missing title", func(in *CreateSessionInput) { in.Title = "" }},
		{"zero threshold", func(in *CreateSessionInput) { in.Rules.ApprovalThreshold = 0 }},
		{"threshold above one", func(in *CreateSessionInput) { in.Rules.ApprovalThreshold = 1.2 }},
		{"zero min votes", func(in *CreateSessionInput) { in.Rules.MinVotesRequired = 0 }},
		{"zero expected votes", func(in *CreateSessionInput) { in.Rules.ExpectedVotes = intPtr(0) }},
		{"no closing condition", func(in *CreateSessionInput) { in.Rules.ExpectedVotes = nil }},
		{"deadline in the past", func(in *CreateSessionInput) {
			in.ExpiresAt = timePtr(time.Now().Add(-time.Hour))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := env.sessions.Create(context.Background(), in)
			if !errors.Is(err, tripvote_errors.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCreateSessionDeadlineOnly(t *testing.T) {
	env := newTestEnv()
	tripID := uuid.New()
	env.store.SetTrip(tripID)

	session, err := env.sessions.Create(context.Background(), CreateSessionInput{
		TripID:    tripID,
		CreatorID: uuid.New(),
		Title:     "Deadline only",
		Rules:     voting.Rules{ApprovalThreshold: 0.5, MinVotesRequired: 1},
		ExpiresAt: timePtr(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if session.ExpiresAt == nil {
		t.Errorf("deadline not persisted")
	}
}
