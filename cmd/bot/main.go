package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/app"
	"github.com/Freeeeeet/doctor_booking_bot/internal/config"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/flow"
	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway/httpgateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/repository"
	"github.com/Freeeeeet/doctor_booking_bot/internal/service"
	"github.com/Freeeeeet/doctor_booking_bot/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting doctor booking bot",
		zap.String("environment", cfg.Environment),
		zap.String("api_base_url", cfg.APIBaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot failed", zap.Error(err))
	}
	logger.Info("Bot shut down")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	client, err := httpgateway.New(httpgateway.Config{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		MaxRetries: cfg.APIMaxRetries,
		Logger:     logger.Named("api"),
	})
	if err != nil {
		return err
	}

	sessionRepo := repository.NewSessionRepository(pool)
	sessionService := service.NewSessionService(sessionRepo, client, cfg.SessionTTL, logger)

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return err
	}

	screens := flow.NewManager(flow.Config{
		Messenger: b,
		Sessions:  sessionService,
		Gateways: func(s *model.Session) gateway.Gateway {
			return client.WithSession(s)
		},
		Logger: logger.Named("screens"),
	})

	botController := controller.NewBotController(b, sessionService, screens, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		return err
	}

	scheduler := app.NewScheduler(sessionService, cfg.PurgeEvery, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	return botController.Start(ctx)
}
