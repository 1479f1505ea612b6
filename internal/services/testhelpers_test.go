package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"tripvote/internal/domain/voting"
	"tripvote/internal/repository"
)

// fakeMailer records deliveries and can be flipped into failure mode.
type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	fail bool
	off  bool
}

func (m *fakeMailer) Send(toEmail, subject, textBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("delivery refused")
	}
	m.sent = append(m.sent, toEmail)
	return nil
}

func (m *fakeMailer) Configured() bool { return !m.off }

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

type testEnv struct {
	store    *repository.MemoryStore
	mailer   *fakeMailer
	closer   *SessionCloser
	notifier *NotificationService
	votes    *VoteService
	sessions *SessionService
	sweeper  *ExpirationSweeper
}

func newTestEnv() *testEnv {
	store := repository.NewMemoryStore()
	mailer := &fakeMailer{}
	closer := NewSessionCloser(store, nil)
	notifier := NewNotificationService(store, store.VoteRepo(), store, mailer, nil)
	return &testEnv{
		store:    store,
		mailer:   mailer,
		closer:   closer,
		notifier: notifier,
		votes:    NewVoteService(store, store.VoteRepo(), closer, notifier, nil),
		sessions: NewSessionService(store, store, nil),
		sweeper:  NewExpirationSweeper(store, closer, notifier, 0, nil),
	}
}

// newActiveSession stores a ready-to-vote session with a notifiable creator.
func (e *testEnv) newActiveSession(t *testing.T, mutate func(*voting.VotingSession)) voting.VotingSession {
	t.Helper()
	s := voting.VotingSession{
		ID:        uuid.New(),
		TripID:    uuid.New(),
		CreatorID: uuid.New(),
		Title:     "Weekend in Lisbon",
		Rules: voting.Rules{
			ApprovalThreshold: 0.6,
			MinVotesRequired:  1,
			AnonymousAllowed:  true,
		},
		Status:    voting.StatusActive,
		ShareLink: uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if mutate != nil {
		mutate(&s)
	}
	if err := e.store.Create(context.Background(), &s); err != nil {
		t.Fatalf("create session: %v", err)
	}
	e.store.SetUserEmail(s.CreatorID, "creator@example.com")
	return s
}

func (e *testEnv) memberVoter(t *testing.T, email string) voting.VoterIdentity {
	t.Helper()
	id := uuid.New()
	e.store.SetUserEmail(id, email)
	return voting.VoterIdentity{UserID: &id}
}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }
