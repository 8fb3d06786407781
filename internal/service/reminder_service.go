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

type reminderService struct {
	notificationRepo repository.NotificationRepository
	habitRepo        repository.HabitRepository
	userRepo         repository.UserRepository
	subscriptionRepo repository.PushSubscriptionRepository
	sender           service.ReminderSender
	sweepBatchSize   int32
	clk              clock.Clock
	log              *logger.Logger
}

// NewReminderService creates the reminder scheduler
func NewReminderService(
	notificationRepo repository.NotificationRepository,
	habitRepo repository.HabitRepository,
	userRepo repository.UserRepository,
	subscriptionRepo repository.PushSubscriptionRepository,
	sender service.ReminderSender,
	sweepBatchSize int32,
	clk clock.Clock,
	log *logger.Logger,
) service.ReminderService {
	return &reminderService{
		notificationRepo: notificationRepo,
		habitRepo:        habitRepo,
		userRepo:         userRepo,
		subscriptionRepo: subscriptionRepo,
		sender:           sender,
		sweepBatchSize:   sweepBatchSize,
		clk:              clk,
		log:              log,
	}
}

// ScheduleNext computes the next fire instant for the habit's reminder and
// persists a pending notification for it.
func (s *reminderService) ScheduleNext(ctx context.Context, habit *entity.Habit) (*entity.Notification, error) {
	user, err := s.userRepo.GetByID(ctx, habit.UserID)
	if err != nil {
		return nil, err
	}

	loc := clock.ResolveZone(user.TimeZone)
	fireAt, err := nextOccurrence(habit, s.clk.Now(), loc)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	notification := &entity.Notification{
		ID:           uuid.New(),
		UserID:       habit.UserID,
		HabitID:      habit.ID,
		Title:        "Habit Reminder",
		Message:      fmt.Sprintf("Time to complete your habit: %s", habit.Title),
		Type:         entity.NotificationTypeHabitReminder,
		Status:       entity.NotificationStatusPending,
		ScheduledFor: fireAt.UTC(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, err
	}

	return notification, nil
}

// nextOccurrence resolves the habit's reminder wall-clock time to the next
// instant it fires in loc. Today's slot is used if it is still ahead;
// otherwise the search advances a day at a time until a scheduled weekday is
// hit. Seven steps always suffice for a non-empty repeat-day set.
func nextOccurrence(habit *entity.Habit, now time.Time, loc *time.Location) (time.Time, error) {
	wall, err := time.Parse("15:04", habit.ReminderTime)
	if err != nil {
		return time.Time{}, apperr.InvalidArgumentf("reminder time %q is not HH:MM", habit.ReminderTime)
	}

	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(),
		wall.Hour(), wall.Minute(), 0, 0, loc)

	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}

	for i := 0; i < 7; i++ {
		if habit.ScheduledOn(candidate.Weekday().String()) {
			return candidate, nil
		}
		candidate = candidate.AddDate(0, 0, 1)
	}

	return time.Time{}, apperr.InvalidArgumentf("habit %s has no schedulable day", habit.ID)
}

// RunSweep promotes due pending notifications. Each item is independent: a
// failure marks that record failed and the sweep moves on.
func (s *reminderService) RunSweep(ctx context.Context, now time.Time) error {
	due, err := s.notificationRepo.GetDue(ctx, now, s.sweepBatchSize)
	if err != nil {
		return fmt.Errorf("failed to load due notifications: %w", err)
	}

	sent := 0
	failed := 0
	for _, n := range due {
		if err := s.processDue(ctx, n); err != nil {
			failed++
			s.log.Error("failed to process due notification",
				zap.String("notification_id", n.ID.String()),
				zap.String("habit_id", n.HabitID.String()),
				zap.Error(err))
			if err := s.notificationRepo.UpdateStatus(ctx, n.ID, entity.NotificationStatusFailed); err != nil {
				s.log.Error("failed to mark notification failed",
					zap.String("notification_id", n.ID.String()), zap.Error(err))
			}
			continue
		}
		sent++
	}

	if sent > 0 || failed > 0 {
		s.log.Info("reminder sweep complete",
			zap.Int("sent", sent), zap.Int("failed", failed))
	}

	return nil
}

func (s *reminderService) processDue(ctx context.Context, n *entity.Notification) error {
	if n.Type != entity.NotificationTypeHabitReminder {
		// Milestone records fire once and are never rescheduled.
		return s.notificationRepo.UpdateStatus(ctx, n.ID, entity.NotificationStatusSent)
	}

	habit, err := s.habitRepo.GetByID(ctx, n.HabitID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Habit deleted since scheduling; retire the orphan.
			return s.notificationRepo.UpdateStatus(ctx, n.ID, entity.NotificationStatusSent)
		}
		return err
	}

	// Only an incomplete habit still wants its reminder. Complete and paused
	// habits suppress delivery but the record is still retired and the next
	// occurrence still scheduled.
	if habit.Status == entity.StatusIncomplete {
		s.deliver(ctx, n)
	}

	if err := s.notificationRepo.UpdateStatus(ctx, n.ID, entity.NotificationStatusSent); err != nil {
		return err
	}

	if _, err := s.ScheduleNext(ctx, habit); err != nil {
		return fmt.Errorf("failed to schedule next occurrence: %w", err)
	}

	return nil
}

func (s *reminderService) deliver(ctx context.Context, n *entity.Notification) {
	if s.sender == nil {
		return
	}

	sub, err := s.subscriptionRepo.GetByUserID(ctx, n.UserID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.log.Warn("failed to load push subscription",
				zap.String("user_id", n.UserID.String()), zap.Error(err))
		}
		return
	}

	if err := s.sender.Send(ctx, sub.Endpoint, n.Title, n.Message); err != nil {
		s.log.Warn("failed to deliver reminder",
			zap.String("notification_id", n.ID.String()),
			zap.String("user_id", n.UserID.String()),
			zap.Error(err))
	}
}

// ListNotifications returns the user's notifications, hiding reminders whose
// habit no longer needs attention.
func (s *reminderService) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*entity.Notification, error) {
	notifications, err := s.notificationRepo.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	visible := make([]*entity.Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.Type == entity.NotificationTypeHabitReminder {
			habit, err := s.habitRepo.GetByID(ctx, n.HabitID)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					continue
				}
				return nil, err
			}
			if habit.Status != entity.StatusIncomplete {
				continue
			}
		}
		visible = append(visible, n)
	}

	return visible, nil
}

func (s *reminderService) MarkRead(ctx context.Context, notificationID uuid.UUID) (*entity.Notification, error) {
	if err := s.notificationRepo.MarkRead(ctx, notificationID); err != nil {
		return nil, err
	}
	return s.notificationRepo.GetByID(ctx, notificationID)
}

func (s *reminderService) DeleteNotification(ctx context.Context, notificationID uuid.UUID) error {
	return s.notificationRepo.Delete(ctx, notificationID)
}

func (s *reminderService) SavePushSubscription(ctx context.Context, userID uuid.UUID, endpoint string) error {
	if endpoint == "" {
		return apperr.InvalidArgumentf("subscription endpoint is required")
	}

	now := s.clk.Now()
	return s.subscriptionRepo.Save(ctx, &entity.PushSubscription{
		ID:        uuid.New(),
		UserID:    userID,
		Endpoint:  endpoint,
		CreatedAt: now,
	})
}
