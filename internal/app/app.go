package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"habit-service/internal/clock"
	"habit-service/internal/config"
	"habit-service/internal/infrastructure/cache"
	"habit-service/internal/infrastructure/cron"
	"habit-service/internal/infrastructure/db"
	"habit-service/internal/infrastructure/kafka"
	"habit-service/internal/infrastructure/postgres"
	"habit-service/internal/infrastructure/smtp"
	"habit-service/internal/service"
	transporthttp "habit-service/internal/transport/http"
	"habit-service/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App wires the service together and owns its lifecycle
type App struct {
	cfg    *config.Config
	log    *logger.Logger
	pool   *pgxpool.Pool
	cache  *cache.Client
	events *kafka.Producer

	server  *transporthttp.Server
	sweeper *cron.ReminderSweeper
	auditor *cron.StreakAuditor
}

// New builds the application from configuration
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	pool, err := db.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Redis is an optional accelerator; the today view is served from
	// postgres when it is absent.
	var todayCache *cache.Client
	if cfg.Redis.Addr != "" {
		todayCache, err = cache.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, today view will not be cached", zap.Error(err))
			todayCache = nil
		}
	}

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(&cfg.Kafka)
	}

	habitRepo := postgres.NewHabitRepository(pool)
	completionRepo := postgres.NewCompletionRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	subscriptionRepo := postgres.NewPushSubscriptionRepository(pool)

	clk := clock.System()

	// The nil checks keep typed-nil interface values out of the services.
	var todayCacheDep service.TodayCache
	if todayCache != nil {
		todayCacheDep = todayCache
	}
	var eventsDep service.EventPublisher
	if producer != nil {
		eventsDep = producer
	}

	sender := smtp.NewSender(&cfg.SMTP)

	streaks := service.NewStreakService(
		habitRepo, completionRepo, userRepo, notificationRepo, eventsDep, clk, log)
	reminders := service.NewReminderService(
		notificationRepo, habitRepo, userRepo, subscriptionRepo, sender,
		cfg.Scheduler.SweepBatchSize, clk, log)
	estimator := service.NewKeywordEstimator(cfg.Feasibility.DefaultMinutes)
	feasibility := service.NewFeasibilityService(
		habitRepo, completionRepo, estimator, cfg.Feasibility, clk, log)
	habits := service.NewHabitService(
		habitRepo, completionRepo, userRepo, streaks, reminders, feasibility,
		todayCacheDep, eventsDep, clk, log)

	handler := transporthttp.NewHandler(habits, streaks, reminders, feasibility, log)
	server := transporthttp.NewServer(cfg.HTTP, handler, log)

	a := &App{
		cfg:    cfg,
		log:    log,
		pool:   pool,
		cache:  todayCache,
		events: producer,
		server: server,
	}

	if cfg.Scheduler.Enabled {
		a.sweeper = cron.NewReminderSweeper(reminders, cfg.Scheduler.ReminderInterval, log)
		a.auditor = cron.NewStreakAuditor(streaks, cfg.Scheduler.AuditInterval, log)
	}

	return a, nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	a.log.Info("starting service",
		zap.String("name", a.cfg.Service.Name),
		zap.String("environment", a.cfg.Service.Environment),
		zap.String("version", a.cfg.Service.Version))

	if a.sweeper != nil {
		if err := a.sweeper.Start(); err != nil {
			return fmt.Errorf("failed to start reminder sweeper: %w", err)
		}
	}
	if a.auditor != nil {
		if err := a.auditor.Start(); err != nil {
			return fmt.Errorf("failed to start streak auditor: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case sig := <-quit:
		a.log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("http shutdown failed", zap.Error(err))
	}

	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.auditor != nil {
		a.auditor.Stop()
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Error("kafka producer close failed", zap.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Error("redis close failed", zap.Error(err))
		}
	}

	a.pool.Close()
	a.log.Info("service stopped")

	return nil
}
