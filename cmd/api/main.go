package main

import (
	"context"
	"log"

	"tripvote/config"
	"tripvote/internal/domain/voting"
	"tripvote/internal/email"
	"tripvote/internal/handler"
	tripredis "tripvote/internal/redis"
	"tripvote/internal/repository"
	"tripvote/internal/server"
	"tripvote/internal/services"
	"tripvote/pkg/database"
	"tripvote/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	logger.SetGlobalLogger(l)

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Only the voting tables are owned here; users and trips belong to the
	// wider application and are consumed read-only.
	if err := database.DB.AutoMigrate(
		&voting.VotingSession{},
		&voting.Vote{},
	); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	sessionRepo := repository.NewSessionRepository(database.DB)
	voteRepo := repository.NewVoteRepository(database.DB)
	userDir := repository.NewUserDirectory(database.DB)
	tripDir := repository.NewTripDirectory(database.DB)

	mailer := email.NewClient(cfg.PostmarkToken, cfg.EmailFrom)
	if !mailer.Configured() {
		l.Warnf("Postmark token not set; result emails will be retried by the sweeper until configured")
	}

	authService := services.NewAuthService(cfg)
	closer := services.NewSessionCloser(sessionRepo, l)
	notifier := services.NewNotificationService(sessionRepo, voteRepo, userDir, mailer, l)
	sessionService := services.NewSessionService(sessionRepo, tripDir, l)
	voteService := services.NewVoteService(sessionRepo, voteRepo, closer, notifier, l)
	sweeper := services.NewExpirationSweeper(sessionRepo, closer, notifier, cfg.SweepInterval, l)

	var limiter *tripredis.RateLimiter
	redisClient := tripredis.NewClient(tripredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err := tripredis.Ping(context.Background(), redisClient); err != nil {
		l.Warnf("Redis unavailable, rate limiting disabled: %s", err)
	} else {
		limiter = tripredis.NewRateLimiter(redisClient, tripredis.DefaultRateLimitConfig())
	}

	sweeper.Start()
	defer sweeper.Stop()

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Sessions: handler.NewSessionHandler(sessionService),
		Votes:    handler.NewVoteHandler(voteService, notifier, sweeper),
	}, authService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
