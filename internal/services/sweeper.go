package services

import (
	"context"
	"sync"
	"time"

	"tripvote/internal/repository"
	"tripvote/pkg/logger"
)

// SweepResult reports what one sweep pass did.
type SweepResult struct {
	Closed   int `json:"newly_closed_count"`
	Notified int `json:"emailed_count"`
	Purged   int `json:"purged_count,omitempty"`
}

// ExpirationSweeper closes sessions whose deadline has passed and delivers
// any pending result notifications. A pass is safe to re-run and safe to race
// against a vote-triggered close: the close is a single-winner conditional
// write and the notification path is idempotent, so nothing is processed
// twice.
//
// The deadline is advisory data; nothing fires by itself. Either the
// background loop (Start), the /votes/close-expired endpoint or the cmd/sweep
// binary must invoke Sweep for time-based closes to happen.
type ExpirationSweeper struct {
	sessions repository.SessionRepository
	closer   *SessionCloser
	notifier *NotificationService
	interval time.Duration
	logger   *logger.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewExpirationSweeper(
	sessions repository.SessionRepository,
	closer *SessionCloser,
	notifier *NotificationService,
	interval time.Duration,
	l *logger.Logger,
) *ExpirationSweeper {
	return &ExpirationSweeper{
		sessions: sessions,
		closer:   closer,
		notifier: notifier,
		interval: interval,
		logger:   l,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep loop. With a non-positive interval the
// loop is disabled and sweeps only happen on demand.
func (w *ExpirationSweeper) Start() {
	if w.interval <= 0 {
		if w.logger != nil {
			w.logger.Warnf("background sweeper disabled; relying on external sweep triggers")
		}
		return
	}
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully shuts down the loop.
func (w *ExpirationSweeper) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *ExpirationSweeper) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if _, err := w.Sweep(context.Background(), false); err != nil {
				if w.logger != nil {
					w.logger.Errorf("sweep failed: %s", err)
				}
			}
		}
	}
}

// Sweep closes every expired active session, then sends results for every
// completed session still missing its notification. With purge set it also
// deletes sessions whose notification is confirmed sent, cascading to their
// votes.
func (w *ExpirationSweeper) Sweep(ctx context.Context, purge bool) (SweepResult, error) {
	var result SweepResult

	expired, err := w.sessions.FindExpiredActive(ctx, time.Now())
	if err != nil {
		return result, err
	}
	for _, session := range expired {
		closedNow, err := w.closer.TryClose(ctx, session.ID)
		if err != nil {
			if w.logger != nil {
				w.logger.Warnf("sweep close failed for session %s: %s", session.ID, err)
			}
			continue
		}
		if closedNow {
			result.Closed++
		}
	}

	// Covers sessions closed in this pass, sessions closed by a concurrent
	// count-triggered close, and earlier notification failures.
	unnotified, err := w.sessions.FindCompletedUnnotified(ctx)
	if err != nil {
		return result, err
	}
	for _, session := range unnotified {
		status, err := w.notifier.SendResults(ctx, session.ID)
		if err != nil {
			if w.logger != nil {
				w.logger.Warnf("sweep notification failed for session %s: %s", session.ID, err)
			}
			continue
		}
		if status == SendStatusSent {
			result.Notified++
		}
	}

	if purge {
		purgeable, err := w.sessions.FindPurgeable(ctx)
		if err != nil {
			return result, err
		}
		for _, session := range purgeable {
			if err := w.sessions.Delete(ctx, session.ID); err != nil {
				if w.logger != nil {
					w.logger.Warnf("purge failed for session %s: %s", session.ID, err)
				}
				continue
			}
			result.Purged++
		}
	}

	if w.logger != nil {
		w.logger.Infof("sweep done: closed=%d notified=%d purged=%d", result.Closed, result.Notified, result.Purged)
	}
	return result, nil
}
