package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habit-service/internal/apperr"
	"habit-service/internal/clock"
	"habit-service/internal/domain/entity"
	"habit-service/internal/domain/repository"
	"habit-service/internal/domain/service"
	"habit-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	eventStreakMilestone = "streak.milestone"
	eventStreakReset     = "streak.reset"
)

// streakMilestones are the streak lengths that earn a celebration
var streakMilestones = []int32{7, 30, 100}

type streakService struct {
	habitRepo        repository.HabitRepository
	completionRepo   repository.CompletionRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	events           EventPublisher
	clk              clock.Clock
	log              *logger.Logger
}

// NewStreakService creates the general streak calculator
func NewStreakService(
	habitRepo repository.HabitRepository,
	completionRepo repository.CompletionRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	events EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) service.StreakService {
	return &streakService{
		habitRepo:        habitRepo,
		completionRepo:   completionRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		events:           events,
		clk:              clk,
		log:              log,
	}
}

// Recompute re-derives the user's general streak from today's habit statuses.
// The increment is reversible within the same local day: un-completing a habit
// after the streak ticked up takes the tick back.
func (s *streakService) Recompute(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVacation {
		return nil
	}

	loc := clock.ResolveZone(user.TimeZone)
	now := s.clk.Now()
	today := clock.Day(now, loc)
	weekday := clock.WeekdayName(now, loc)

	habits, err := s.habitRepo.GetScheduledForDay(ctx, userID, weekday)
	if err != nil {
		return err
	}

	active := 0
	completed := 0
	for _, h := range habits {
		if h.Status == entity.StatusPaused {
			continue
		}
		active++
		if h.Status == entity.StatusComplete {
			completed++
		}
	}
	allComplete := active > 0 && completed == active

	incrementedToday := user.LastStreakIncrement != nil &&
		clock.SameDay(*user.LastStreakIncrement, today, time.UTC)

	switch {
	case allComplete && !incrementedToday:
		user.GenStreakCount++
		if user.GenStreakCount > user.LongestStreak {
			user.LongestStreak = user.GenStreakCount
		}
		if err := s.userRepo.UpdateStreak(ctx, userID, user.GenStreakCount, user.LongestStreak, &today, &today); err != nil {
			return err
		}
		s.checkMilestone(ctx, user)

	case !allComplete && incrementedToday:
		if user.GenStreakCount > 0 {
			user.GenStreakCount--
		}
		if err := s.userRepo.UpdateStreak(ctx, userID, user.GenStreakCount, user.LongestStreak, nil, &today); err != nil {
			return err
		}
	}

	return nil
}

func (s *streakService) checkMilestone(ctx context.Context, user *entity.User) {
	milestone := int32(0)
	for _, m := range streakMilestones {
		if user.GenStreakCount == m {
			milestone = m
			break
		}
	}
	if milestone == 0 {
		return
	}

	now := s.clk.Now()
	notification := &entity.Notification{
		ID:           uuid.New(),
		UserID:       user.ID,
		Title:        "Streak Milestone!",
		Message:      fmt.Sprintf("Amazing! You've kept your streak going for %d days straight.", milestone),
		Type:         entity.NotificationTypeStreakMilestone,
		Status:       entity.NotificationStatusPending,
		ScheduledFor: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.log.Error("failed to create milestone notification",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	if s.events != nil {
		err := s.events.Publish(ctx, eventStreakMilestone, user.ID, map[string]any{
			"milestone": milestone,
			"streak":    user.GenStreakCount,
		})
		if err != nil {
			s.log.Warn("failed to publish streak.milestone event",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}
}

func (s *streakService) SetVacation(ctx context.Context, userID uuid.UUID, on bool) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.userRepo.SetVacation(ctx, userID, on)
}

// AuditMissedDays sweeps users with active streaks and resets any streak whose
// owner missed a scheduled day. A user whose streak already moved today or
// yesterday is current and is skipped.
func (s *streakService) AuditMissedDays(ctx context.Context) error {
	users, err := s.userRepo.GetWithActiveStreaks(ctx)
	if err != nil {
		return err
	}

	audited := 0
	reset := 0
	for _, user := range users {
		ok, err := s.auditUser(ctx, user)
		if err != nil {
			s.log.Error("streak audit failed for user",
				zap.String("user_id", user.ID.String()), zap.Error(err))
			continue
		}
		audited++
		if !ok {
			reset++
		}
	}

	s.log.Info("streak audit complete",
		zap.Int("users_audited", audited),
		zap.Int("streaks_reset", reset))

	return nil
}

// auditUser reports whether the user's streak survived the audit
func (s *streakService) auditUser(ctx context.Context, user *entity.User) (bool, error) {
	loc := clock.ResolveZone(user.TimeZone)
	now := s.clk.Now()
	today := clock.Day(now, loc)
	yesterday := today.AddDate(0, 0, -1)

	if user.LastStreakUpdate != nil {
		last := *user.LastStreakUpdate
		if !last.Before(yesterday) {
			return true, nil
		}
	}

	// Reconstruct yesterday from the ledger: the statuses have already been
	// rolled over, so the append-only completion counts are the only record.
	weekday := clock.WeekdayName(yesterday, time.UTC)
	habits, err := s.habitRepo.GetScheduledForDay(ctx, user.ID, weekday)
	if err != nil {
		return false, err
	}

	missed := false
	for _, h := range habits {
		if h.Status == entity.StatusPaused {
			continue
		}
		completion, err := s.completionRepo.GetForDay(ctx, h.ID, yesterday)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				missed = true
				break
			}
			return false, err
		}
		if !completion.Satisfies(h.TargetCount) {
			missed = true
			break
		}
	}

	if !missed {
		return true, nil
	}

	if err := s.userRepo.UpdateStreak(ctx, user.ID, 0, user.LongestStreak, nil, nil); err != nil {
		return false, err
	}

	if s.events != nil {
		err := s.events.Publish(ctx, eventStreakReset, user.ID, map[string]any{
			"previous_streak": user.GenStreakCount,
			"missed_day":      yesterday.Format("2006-01-02"),
		})
		if err != nil {
			s.log.Warn("failed to publish streak.reset event",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	s.log.Info("streak reset after missed day",
		zap.String("user_id", user.ID.String()),
		zap.Int32("previous_streak", user.GenStreakCount),
		zap.String("missed_day", yesterday.Format("2006-01-02")))

	return false, nil
}
