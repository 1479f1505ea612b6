package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripvote/internal/domain/voting"
	"tripvote/internal/repository"
	tripvote_errors "tripvote/pkg/errors"
	"tripvote/pkg/logger"
)

// SendStatus is the result of a SendResults call.
type SendStatus string

const (
	SendStatusSent        SendStatus = "sent"
	SendStatusAlreadySent SendStatus = "already_sent"
	SendStatusFailed      SendStatus = "failed"
)

// Mailer is the boundary to the email delivery service.
type Mailer interface {
	Send(toEmail, subject, textBody string) error
	Configured() bool
}

// NotificationService sends the final tally to participants at most once per
// session, guarded by the results_email_sent flag. The flag is flipped in its
// own conditional write after the send, so a crash between "send" and "mark
// sent" is the only window for a duplicate: delivery is at-least-once, not
// exactly-once.
type NotificationService struct {
	sessions repository.SessionRepository
	votes    repository.VoteRepository
	users    repository.UserDirectory
	mailer   Mailer
	logger   *logger.Logger
}

func NewNotificationService(
	sessions repository.SessionRepository,
	votes repository.VoteRepository,
	users repository.UserDirectory,
	mailer Mailer,
	l *logger.Logger,
) *NotificationService {
	return &NotificationService{sessions: sessions, votes: votes, users: users, mailer: mailer, logger: l}
}

// SendResults composes and sends the result summary for a completed session.
// Safe to call any number of times; only the first successful call sends.
func (s *NotificationService) SendResults(ctx context.Context, sessionID uuid.UUID) (SendStatus, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return SendStatusFailed, err
	}
	if !session.Completed() {
		return SendStatusFailed, tripvote_errors.ErrSessionActive
	}
	if session.ResultsEmailSent {
		return SendStatusAlreadySent, nil
	}
	if !s.mailer.Configured() {
		// Leave the flag down so a later sweep retries once delivery works.
		return SendStatusFailed, fmt.Errorf("%w: email delivery not configured", tripvote_errors.ErrServiceUnavailable)
	}

	tally, err := s.votes.TallyBySession(ctx, sessionID)
	if err != nil {
		return SendStatusFailed, err
	}
	outcome := voting.Evaluate(tally, session.Rules)

	subject := fmt.Sprintf("Voting Results: %s", session.Title)
	body := renderResultSummary(&session, tally, outcome)

	recipients, err := s.collectRecipients(ctx, &session)
	if err != nil {
		return SendStatusFailed, err
	}
	if len(recipients) == 0 {
		return SendStatusFailed, fmt.Errorf("no recipients resolvable for session %s", sessionID)
	}

	sent := 0
	for _, addr := range recipients {
		if err := s.mailer.Send(addr, subject, body); err != nil {
			if s.logger != nil {
				s.logger.Warnf("result email to %s failed: %s", addr, err)
			}
			continue
		}
		sent++
	}
	if sent == 0 {
		return SendStatusFailed, fmt.Errorf("all result emails failed for session %s", sessionID)
	}

	won, err := s.sessions.MarkResultsSent(ctx, sessionID, time.Now())
	if err != nil {
		return SendStatusFailed, err
	}
	if !won {
		// A concurrent caller marked the flag between our load and the
		// conditional write. Both sends happened; the at-least-once boundary.
		return SendStatusAlreadySent, nil
	}

	if s.logger != nil {
		s.logger.Infof("result emails sent: session=%s recipients=%d", sessionID, sent)
	}
	return SendStatusSent, nil
}

// collectRecipients resolves the session creator plus every distinct
// authenticated voter. Guests voted by IP and have no address to notify.
func (s *NotificationService) collectRecipients(ctx context.Context, session *voting.VotingSession) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	add := func(userID uuid.UUID) {
		addr, err := s.users.GetEmail(ctx, userID)
		if err != nil {
			if s.logger != nil {
				s.logger.Warnf("no email for user %s: %s", userID, err)
			}
			return
		}
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}

	add(session.CreatorID)

	voterIDs, err := s.votes.ListVoterUserIDs(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range voterIDs {
		add(id)
	}
	return out, nil
}

func renderResultSummary(session *voting.VotingSession, tally voting.Tally, outcome voting.Outcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The voting session %q has ended. Final results:\n\n", session.Title)
	fmt.Fprintf(&b, "Total votes cast: %d\n", tally.Total)
	fmt.Fprintf(&b, "Votes FOR: %d\n", tally.For)
	fmt.Fprintf(&b, "Votes AGAINST: %d\n", tally.Against)
	fmt.Fprintf(&b, "Approval rate: %.1f%%\n\n", tally.ApprovalRatio()*100)
	fmt.Fprintf(&b, "Outcome: %s\n\n", outcome)
	fmt.Fprintf(&b, "Approval threshold: %.1f%%\n", session.Rules.ApprovalThreshold*100)
	fmt.Fprintf(&b, "Minimum votes required: %d\n\n", session.Rules.MinVotesRequired)

	switch outcome {
	case voting.OutcomeApproved:
		b.WriteString("The proposal has been APPROVED and will proceed.")
	case voting.OutcomeRejected:
		b.WriteString("The proposal has been REJECTED and will not proceed.")
	case voting.OutcomeInsufficientVotes:
		fmt.Fprintf(&b, "Not enough votes were cast (minimum %d required).", session.Rules.MinVotesRequired)
	case voting.OutcomeUndecided:
		b.WriteString("No side reached the threshold; there is no clear majority.")
	case voting.OutcomeNoVotes:
		b.WriteString("No votes were cast during the voting period.")
	}

	return b.String()
}
