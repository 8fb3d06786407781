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

// StreakAuditor periodically runs the missed-day audit, zeroing the general
// streak of users whose previous day went entirely unvisited.
type StreakAuditor struct {
	streaks  service.StreakService
	cron     *cron.Cron
	interval time.Duration
	log      *logger.Logger
}

// NewStreakAuditor creates a new streak auditor
func NewStreakAuditor(streaks service.StreakService, interval time.Duration, log *logger.Logger) *StreakAuditor {
	return &StreakAuditor{
		streaks:  streaks,
		cron:     cron.New(),
		interval: interval,
		log:      log,
	}
}

// Start starts the streak auditor
func (a *StreakAuditor) Start() error {
	cronExpr := fmt.Sprintf("@every %s", a.interval.String())

	_, err := a.cron.AddFunc(cronExpr, a.audit)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	a.cron.Start()
	a.log.Info("streak auditor started", zap.Duration("interval", a.interval))

	return nil
}

// Stop stops the auditor, waiting for a running audit to finish
func (a *StreakAuditor) Stop() {
	ctx := a.cron.Stop()
	<-ctx.Done()
	a.log.Info("streak auditor stopped")
}

func (a *StreakAuditor) audit() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := a.streaks.AuditMissedDays(ctx); err != nil {
		a.log.Error("missed-day audit failed", zap.Error(err))
	}
}
