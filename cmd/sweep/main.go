// Command sweep runs one expiration sweep and exits. Intended for cron or a
// container scheduler when the API server's in-process sweeper is disabled.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"tripvote/config"
	"tripvote/internal/email"
	"tripvote/internal/repository"
	"tripvote/internal/services"
	"tripvote/pkg/database"
	"tripvote/pkg/logger"
)

func main() {
	purge := flag.Bool("purge", false, "delete sessions whose result notification is confirmed sent")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall sweep deadline")
	flag.Parse()

	cfg := config.LoadConfig()
	l := logger.New(logger.ProductionMode)
	logger.SetGlobalLogger(l)

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sessionRepo := repository.NewSessionRepository(database.DB)
	voteRepo := repository.NewVoteRepository(database.DB)
	userDir := repository.NewUserDirectory(database.DB)

	mailer := email.NewClient(cfg.PostmarkToken, cfg.EmailFrom)
	closer := services.NewSessionCloser(sessionRepo, l)
	notifier := services.NewNotificationService(sessionRepo, voteRepo, userDir, mailer, l)
	sweeper := services.NewExpirationSweeper(sessionRepo, closer, notifier, 0, l)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := sweeper.Sweep(ctx, *purge)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	l.Infof("sweep complete: closed=%d notified=%d purged=%d", result.Closed, result.Notified, result.Purged)
}
