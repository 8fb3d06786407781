package cron

import (
	"context"
	"fmt"
	"time"

	"habit-service/internal/domain/service"
	"habit-service/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReminderSweeper periodically promotes due reminder notifications
type ReminderSweeper struct {
	reminders service.ReminderService
	cron      *cron.Cron
	interval  time.Duration
	log       *logger.Logger
}

// NewReminderSweeper creates a new reminder sweeper
func NewReminderSweeper(reminders service.ReminderService, interval time.Duration, log *logger.Logger) *ReminderSweeper {
	return &ReminderSweeper{
		reminders: reminders,
		cron:      cron.New(),
		interval:  interval,
		log:       log,
	}
}

// Start starts the reminder sweeper
func (s *ReminderSweeper) Start() error {
	cronExpr := fmt.Sprintf("@every %s", s.interval.String())

	_, err := s.cron.AddFunc(cronExpr, s.sweep)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.log.Info("reminder sweeper started", zap.Duration("interval", s.interval))

	return nil
}

// Stop stops the sweeper, waiting for a running sweep to finish
func (s *ReminderSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("reminder sweeper stopped")
}

func (s *ReminderSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.reminders.RunSweep(ctx, time.Now().UTC()); err != nil {
		s.log.Error("reminder sweep failed", zap.Error(err))
	}
}
