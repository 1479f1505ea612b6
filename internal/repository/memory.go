package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tripvote/internal/domain/voting"
	tripvote_errors "tripvote/pkg/errors"
)

// MemoryStore is an in-memory implementation of the repository interfaces
// with the same conditional-write and uniqueness semantics as the Postgres
// implementations. Service and handler tests run against it so the
// concurrency guarantees can be exercised without a database.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]voting.VotingSession
	byLink   map[string]uuid.UUID
	votes    map[uuid.UUID][]voting.Vote
	users    map[uuid.UUID]string
	trips    map[uuid.UUID]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]voting.VotingSession),
		byLink:   make(map[string]uuid.UUID),
		votes:    make(map[uuid.UUID][]voting.Vote),
		users:    make(map[uuid.UUID]string),
		trips:    make(map[uuid.UUID]bool),
	}
}

func (s *MemoryStore) SetUserEmail(userID uuid.UUID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = email
}

func (s *MemoryStore) SetTrip(tripID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[tripID] = true
}

// SessionRepository

func (s *MemoryStore) Create(ctx context.Context, sess *voting.VotingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byLink[sess.ShareLink]; exists {
		return tripvote_errors.ErrInvalidInput
	}
	s.sessions[sess.ID] = *sess
	s.byLink[sess.ShareLink] = sess.ID
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (voting.VotingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return voting.VotingSession{}, tripvote_errors.ErrSessionNotFound
	}
	return sess, nil
}

func (s *MemoryStore) GetByShareLink(ctx context.Context, link string) (voting.VotingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byLink[link]
	if !ok {
		return voting.VotingSession{}, tripvote_errors.ErrSessionNotFound
	}
	return s.sessions[id], nil
}

func (s *MemoryStore) TryClose(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Status != voting.StatusActive {
		return false, nil
	}
	completedAt := at
	sess.Status = voting.StatusCompleted
	sess.CompletedAt = &completedAt
	s.sessions[id] = sess
	return true, nil
}

func (s *MemoryStore) MarkResultsSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.ResultsEmailSent {
		return false, nil
	}
	sentAt := at
	sess.ResultsEmailSent = true
	sess.ResultsEmailSentAt = &sentAt
	s.sessions[id] = sess
	return true, nil
}

func (s *MemoryStore) FindExpiredActive(ctx context.Context, now time.Time) ([]voting.VotingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []voting.VotingSession
	for _, sess := range s.sessions {
		if sess.Status != voting.StatusCompleted && sess.ExpiresAt != nil && sess.ExpiresAt.Before(now) {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	return out, nil
}

func (s *MemoryStore) FindCompletedUnnotified(ctx context.Context) ([]voting.VotingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []voting.VotingSession
	for _, sess := range s.sessions {
		if sess.Status == voting.StatusCompleted && !sess.ResultsEmailSent {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *MemoryStore) FindPurgeable(ctx context.Context) ([]voting.VotingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []voting.VotingSession
	for _, sess := range s.sessions {
		if sess.Status == voting.StatusCompleted && sess.ResultsEmailSent {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return tripvote_errors.ErrSessionNotFound
	}
	delete(s.sessions, id)
	delete(s.byLink, sess.ShareLink)
	delete(s.votes, id)
	return nil
}

// VoteRepository

func (s *MemoryStore) CreateVote(ctx context.Context, v *voting.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.votes[v.SessionID] {
		if v.UserID != nil && existing.UserID != nil && *existing.UserID == *v.UserID {
			return tripvote_errors.ErrDuplicateVote
		}
		if v.IPAddress != nil && existing.IPAddress != nil && *existing.IPAddress == *v.IPAddress {
			return tripvote_errors.ErrDuplicateVote
		}
	}
	s.votes[v.SessionID] = append(s.votes[v.SessionID], *v)
	return nil
}

func (s *MemoryStore) HasVoted(ctx context.Context, sessionID uuid.UUID, identity voting.VoterIdentity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.votes[sessionID] {
		if identity.Anonymous() {
			if v.IPAddress != nil && *v.IPAddress == identity.IPAddress {
				return true, nil
			}
		} else if v.UserID != nil && *v.UserID == *identity.UserID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.votes[sessionID])), nil
}

func (s *MemoryStore) TallyBySession(ctx context.Context, sessionID uuid.UUID) (voting.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t voting.Tally
	for _, v := range s.votes[sessionID] {
		t.Total++
		if v.Value {
			t.For++
		} else {
			t.Against++
		}
	}
	return t, nil
}

func (s *MemoryStore) ListVoterUserIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, v := range s.votes[sessionID] {
		if v.UserID != nil && !seen[*v.UserID] {
			seen[*v.UserID] = true
			ids = append(ids, *v.UserID)
		}
	}
	return ids, nil
}

// Directories

func (s *MemoryStore) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.users[userID]
	if !ok || email == "" {
		return "", tripvote_errors.ErrUserNotFound
	}
	return email, nil
}

func (s *MemoryStore) Exists(ctx context.Context, tripID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trips[tripID], nil
}

// memoryVoteRepo adapts MemoryStore to the VoteRepository interface without
// colliding with the SessionRepository Create method.
type memoryVoteRepo struct {
	store *MemoryStore
}

func (r memoryVoteRepo) Create(ctx context.Context, v *voting.Vote) error {
	return r.store.CreateVote(ctx, v)
}

func (r memoryVoteRepo) HasVoted(ctx context.Context, sessionID uuid.UUID, identity voting.VoterIdentity) (bool, error) {
	return r.store.HasVoted(ctx, sessionID, identity)
}

func (r memoryVoteRepo) CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return r.store.CountBySession(ctx, sessionID)
}

func (r memoryVoteRepo) TallyBySession(ctx context.Context, sessionID uuid.UUID) (voting.Tally, error) {
	return r.store.TallyBySession(ctx, sessionID)
}

func (r memoryVoteRepo) ListVoterUserIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	return r.store.ListVoterUserIDs(ctx, sessionID)
}

// VoteRepo returns the store viewed through the VoteRepository interface.
func (s *MemoryStore) VoteRepo() VoteRepository {
	return memoryVoteRepo{store: s}
}
