package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tripvote/internal/domain/voting"
	"tripvote/internal/repository"
	tripvote_errors "tripvote/pkg/errors"
	"tripvote/pkg/logger"
)

// VoteService is the vote ledger: the single intake path for both member and
// guest votes. Dedup is delegated to the store's uniqueness constraints
// rather than checked first, so two simultaneous votes from the same identity
// cannot both land — the loser gets ErrDuplicateVote.
type VoteService struct {
	sessions repository.SessionRepository
	votes    repository.VoteRepository
	closer   *SessionCloser
	notifier *NotificationService
	logger   *logger.Logger
}

func NewVoteService(
	sessions repository.SessionRepository,
	votes repository.VoteRepository,
	closer *SessionCloser,
	notifier *NotificationService,
	l *logger.Logger,
) *VoteService {
	return &VoteService{sessions: sessions, votes: votes, closer: closer, notifier: notifier, logger: l}
}

type SubmitVoteInput struct {
	ShareLink string
	Voter     voting.VoterIdentity
	Value     bool
	Comment   string
}

// Submit records a vote and, when the session's expected vote count is
// reached, performs the count-triggered close. Result notification happens
// after the close commits, never inside it, so a slow email send cannot hold
// the state transition open.
func (s *VoteService) Submit(ctx context.Context, in SubmitVoteInput) (voting.Vote, error) {
	session, err := s.sessions.GetByShareLink(ctx, in.ShareLink)
	if err != nil {
		return voting.Vote{}, err
	}

	if session.Completed() {
		return voting.Vote{}, tripvote_errors.ErrSessionClosed
	}
	if session.Expired(time.Now()) {
		// The deadline passed but no sweep has run yet. Close lazily so a
		// late ballot cannot slip in behind the deadline.
		closedNow, closeErr := s.closer.TryClose(ctx, session.ID)
		if closeErr == nil && closedNow {
			s.notifyAfterClose(ctx, session.ID)
		}
		return voting.Vote{}, tripvote_errors.ErrSessionClosed
	}

	if in.Voter.Anonymous() && !session.Rules.AnonymousAllowed {
		return voting.Vote{}, tripvote_errors.ErrAnonymousNotAllowed
	}

	vote := voting.Vote{
		ID:        uuid.New(),
		SessionID: session.ID,
		Value:     in.Value,
		Comment:   in.Comment,
		CreatedAt: time.Now(),
	}
	if in.Voter.Anonymous() {
		ip := in.Voter.IPAddress
		vote.IPAddress = &ip
	} else {
		vote.UserID = in.Voter.UserID
	}

	if err := s.votes.Create(ctx, &vote); err != nil {
		return voting.Vote{}, err
	}

	if session.Rules.ExpectedVotes != nil {
		count, err := s.votes.CountBySession(ctx, session.ID)
		if err != nil {
			// The vote itself is safe; the sweep will pick up the close.
			if s.logger != nil {
				s.logger.Warnf("vote count check failed for session %s: %s", session.ID, err)
			}
			return vote, nil
		}
		if count >= int64(*session.Rules.ExpectedVotes) {
			closedNow, err := s.closer.TryClose(ctx, session.ID)
			if err != nil {
				if s.logger != nil {
					s.logger.Warnf("count-triggered close failed for session %s: %s", session.ID, err)
				}
				return vote, nil
			}
			if closedNow {
				s.notifyAfterClose(ctx, session.ID)
			}
		}
	}

	return vote, nil
}

// notifyAfterClose dispatches the result summary for a session this caller
// just closed. Send failures never surface to the voter; the sweep and the
// manual resend endpoint retry through the same idempotent path.
func (s *VoteService) notifyAfterClose(ctx context.Context, sessionID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.SendResults(ctx, sessionID); err != nil {
		if s.logger != nil {
			s.logger.Warnf("result notification failed for session %s: %s", sessionID, err)
		}
	}
}

type ResultsView struct {
	SessionID uuid.UUID
	Title     string
	Status    string
	Tally     voting.Tally
	Outcome   voting.Outcome
	YouVoted  bool
	ExpiresAt *time.Time
}

// Results returns the current tally and evaluated outcome for a session,
// looked up by share link so guests can read it too.
func (s *VoteService) Results(ctx context.Context, shareLink string, voter voting.VoterIdentity) (ResultsView, error) {
	session, err := s.sessions.GetByShareLink(ctx, shareLink)
	if err != nil {
		return ResultsView{}, err
	}

	tally, err := s.votes.TallyBySession(ctx, session.ID)
	if err != nil {
		return ResultsView{}, err
	}

	youVoted := false
	if !voter.Anonymous() || voter.IPAddress != "" {
		youVoted, err = s.votes.HasVoted(ctx, session.ID, voter)
		if err != nil {
			return ResultsView{}, err
		}
	}

	return ResultsView{
		SessionID: session.ID,
		Title:     session.Title,
		Status:    session.Status,
		Tally:     tally,
		Outcome:   voting.Evaluate(tally, session.Rules),
		YouVoted:  youVoted,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
