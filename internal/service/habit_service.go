package service

import (
	"context"
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
	eventHabitCompleted = "habit.completed"
)

type habitService struct {
	habitRepo      repository.HabitRepository
	completionRepo repository.CompletionRepository
	userRepo       repository.UserRepository
	streaks        service.StreakService
	reminders      service.ReminderService
	feasibility    service.FeasibilityService
	cache          TodayCache
	events         EventPublisher
	clk            clock.Clock
	log            *logger.Logger
}

// NewHabitService creates the habit lifecycle service
func NewHabitService(
	habitRepo repository.HabitRepository,
	completionRepo repository.CompletionRepository,
	userRepo repository.UserRepository,
	streaks service.StreakService,
	reminders service.ReminderService,
	feasibility service.FeasibilityService,
	cache TodayCache,
	events EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) service.HabitService {
	return &habitService{
		habitRepo:      habitRepo,
		completionRepo: completionRepo,
		userRepo:       userRepo,
		streaks:        streaks,
		reminders:      reminders,
		feasibility:    feasibility,
		cache:          cache,
		events:         events,
		clk:            clk,
		log:            log,
	}
}

func validateSchedule(reminderTime string, repeatDays []string, targetCount int32) error {
	if _, err := time.Parse("15:04", reminderTime); err != nil {
		return apperr.InvalidArgumentf("reminder time %q is not HH:MM", reminderTime)
	}
	for _, d := range repeatDays {
		if !entity.ValidWeekday(d) {
			return apperr.InvalidArgumentf("unknown weekday %q", d)
		}
	}
	if targetCount < 1 {
		return apperr.InvalidArgumentf("target count must be at least 1")
	}
	return nil
}

func (s *habitService) CreateHabit(ctx context.Context, userID uuid.UUID, input service.CreateHabitInput) (*entity.Habit, *service.FeasibilityVerdict, error) {
	if input.Title == "" {
		return nil, nil, apperr.InvalidArgumentf("title is required")
	}
	if input.TargetCount == 0 {
		input.TargetCount = 1
	}
	if err := validateSchedule(input.ReminderTime, input.RepeatDays, input.TargetCount); err != nil {
		return nil, nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, nil, err
	}

	if input.TimeZone != "" {
		if err := s.userRepo.UpdateTimeZone(ctx, userID, input.TimeZone); err != nil {
			return nil, nil, err
		}
	}

	notes := ""
	if input.Notes != nil {
		notes = *input.Notes
	}
	verdict := s.feasibility.Evaluate(ctx, userID, service.ProposedHabit{
		Title:        input.Title,
		Notes:        notes,
		ReminderTime: input.ReminderTime,
		RepeatDays:   input.RepeatDays,
		TargetCount:  input.TargetCount,
	})
	if !verdict.Feasible {
		return nil, verdict, apperr.Conflictf("%s", verdict.Message)
	}

	now := s.clk.Now()
	habit := &entity.Habit{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        input.Title,
		Icon:         input.Icon,
		Notes:        input.Notes,
		ReminderTime: input.ReminderTime,
		RepeatDays:   input.RepeatDays,
		TargetCount:  input.TargetCount,
		IsPublic:     input.IsPublic,
		Status:       entity.StatusIncomplete,
		HabitStreak:  0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if habit.RepeatDays == nil {
		habit.RepeatDays = []string{}
	}

	if err := s.habitRepo.Create(ctx, habit); err != nil {
		return nil, verdict, err
	}

	// Reminder scheduling is secondary bookkeeping: its failure degrades the
	// response, never rejects the create.
	if _, err := s.reminders.ScheduleNext(ctx, habit); err != nil {
		s.log.Error("failed to schedule reminder for new habit",
			zap.String("habit_id", habit.ID.String()), zap.Error(err))
	}

	s.invalidateToday(ctx, userID)

	return habit, verdict, nil
}

func (s *habitService) GetHabit(ctx context.Context, habitID, userID uuid.UUID) (*entity.Habit, error) {
	return s.habitRepo.GetByIDAndUserID(ctx, habitID, userID)
}

func (s *habitService) ListHabits(ctx context.Context, userID uuid.UUID) ([]*entity.Habit, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.habitRepo.GetByUserID(ctx, userID)
}

func (s *habitService) UpdateHabit(ctx context.Context, habitID, userID uuid.UUID, input service.UpdateHabitInput) (*entity.Habit, error) {
	habit, err := s.habitRepo.GetByIDAndUserID(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperr.InvalidArgumentf("title is required")
		}
		habit.Title = *input.Title
	}
	if input.Icon != nil {
		habit.Icon = input.Icon
	}
	if input.Notes != nil {
		habit.Notes = input.Notes
	}

	needsReschedule := false
	if input.ReminderTime != nil {
		habit.ReminderTime = *input.ReminderTime
		needsReschedule = true
	}
	if input.RepeatDays != nil {
		habit.RepeatDays = input.RepeatDays
		needsReschedule = true
	}
	if input.TargetCount != nil {
		habit.TargetCount = *input.TargetCount
	}
	if input.IsPublic != nil {
		habit.IsPublic = *input.IsPublic
	}

	if err := validateSchedule(habit.ReminderTime, habit.RepeatDays, habit.TargetCount); err != nil {
		return nil, err
	}

	habit.UpdatedAt = s.clk.Now()
	if err := s.habitRepo.Update(ctx, habit); err != nil {
		return nil, err
	}

	// The superseded pending notification stays behind; the sweep re-derives
	// whether a habit still wants its reminder at fire time.
	if needsReschedule {
		if _, err := s.reminders.ScheduleNext(ctx, habit); err != nil {
			s.log.Error("failed to reschedule reminder",
				zap.String("habit_id", habit.ID.String()), zap.Error(err))
		}
	}

	s.invalidateToday(ctx, userID)

	return habit, nil
}

func (s *habitService) DeleteHabit(ctx context.Context, habitID, userID uuid.UUID) error {
	if _, err := s.habitRepo.GetByIDAndUserID(ctx, habitID, userID); err != nil {
		return err
	}

	if err := s.habitRepo.Delete(ctx, habitID); err != nil {
		return err
	}

	s.invalidateToday(ctx, userID)

	return nil
}

// SetStatus drives the transition table. Ledger writes are best-effort: a
// ledger failure is logged and the status transition still lands.
func (s *habitService) SetStatus(ctx context.Context, habitID, userID uuid.UUID, status entity.HabitStatus) (*entity.Habit, error) {
	if !status.Valid() {
		return nil, apperr.InvalidArgumentf("unknown status %q", status)
	}

	habit, err := s.habitRepo.GetByIDAndUserID(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	loc := clock.ResolveZone(user.TimeZone)
	now := s.clk.Now()
	day := clock.Day(now, loc)

	// A paused habit has no pending ledger state to reverse, so leaving
	// paused behaves like leaving incomplete.
	effective := habit.Status
	if effective == entity.StatusPaused && status != entity.StatusPaused {
		effective = entity.StatusIncomplete
	}

	switch {
	case status == entity.StatusPaused:
		// Status write only.

	case status == entity.StatusComplete && effective != entity.StatusComplete:
		habit.LastCompleted = &now
		habit.HabitStreak++
		if err := s.completionRepo.Upsert(ctx, habit.ID, userID, day, now); err != nil {
			s.log.Error("failed to record completion",
				zap.String("habit_id", habit.ID.String()),
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
		s.publish(ctx, eventHabitCompleted, userID, map[string]any{
			"habit_id": habit.ID.String(),
			"day":      day.Format("2006-01-02"),
		})

	case status == entity.StatusIncomplete && effective == entity.StatusComplete:
		if habit.HabitStreak > 0 {
			habit.HabitStreak--
		}
		if err := s.completionRepo.Decrement(ctx, habit.ID, day); err != nil {
			s.log.Error("failed to remove completion",
				zap.String("habit_id", habit.ID.String()),
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
	}

	habit.Status = status
	if err := s.habitRepo.UpdateStatus(ctx, habit.ID, habit.Status, habit.HabitStreak, habit.LastCompleted); err != nil {
		return nil, err
	}

	s.invalidateToday(ctx, userID)

	if err := s.streaks.Recompute(ctx, userID); err != nil {
		s.log.Error("failed to recompute general streak",
			zap.String("user_id", userID.String()), zap.Error(err))
	}

	return habit, nil
}

// GetActiveToday runs the lazy daily rollover, then returns the habits
// scheduled for the owner's current local day.
func (s *habitService) GetActiveToday(ctx context.Context, userID uuid.UUID) ([]*entity.Habit, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	loc := clock.ResolveZone(user.TimeZone)
	now := s.clk.Now()

	if err := s.rollover(ctx, user, loc, now); err != nil {
		return nil, err
	}

	weekday := clock.WeekdayName(now, loc)
	dayKey := clock.Day(now, loc).Format("2006-01-02")

	if s.cache != nil {
		if habits, ok := s.cache.GetTodayHabits(ctx, userID, dayKey); ok {
			return habits, nil
		}
	}

	habits, err := s.habitRepo.GetScheduledForDay(ctx, userID, weekday)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetTodayHabits(ctx, userID, dayKey, habits); err != nil {
			s.log.Warn("failed to cache today view",
				zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	return habits, nil
}

// rollover resets all complete habits back to incomplete once per local day.
// The guard is the stored day-truncated marker, not a lock: a duplicate run
// before the marker lands re-resets already-incomplete habits, which changes
// nothing.
func (s *habitService) rollover(ctx context.Context, user *entity.User, loc *time.Location, now time.Time) error {
	today := clock.Day(now, loc)

	if user.LastHabitReset != nil && !user.LastHabitReset.Before(today) {
		return nil
	}
	if user.LastHabitReset == nil {
		// First sighting of this user: stamp the marker without resetting,
		// matching how a fresh account has nothing to roll over.
		return s.userRepo.UpdateLastHabitReset(ctx, user.ID, today)
	}

	reset, err := s.habitRepo.ResetCompleted(ctx, user.ID)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdateLastHabitReset(ctx, user.ID, today); err != nil {
		return err
	}

	user.LastHabitReset = &today
	s.invalidateToday(ctx, user.ID)

	s.log.Info("daily rollover",
		zap.String("user_id", user.ID.String()),
		zap.String("day", today.Format("2006-01-02")),
		zap.Int64("habits_reset", reset))

	return nil
}

func (s *habitService) GetPublicHabits(ctx context.Context, userID uuid.UUID) ([]service.PublicHabit, error) {
	habits, err := s.habitRepo.GetPublicByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	public := make([]service.PublicHabit, 0, len(habits))
	for _, h := range habits {
		public = append(public, service.PublicHabit{
			ID:     h.ID,
			Icon:   h.Icon,
			Title:  h.Title,
			Streak: h.HabitStreak,
		})
	}

	return public, nil
}

func (s *habitService) GetCompletionHistory(ctx context.Context, habitID, userID uuid.UUID, days int) (*service.CompletionHistory, error) {
	if days <= 0 {
		days = 180
	}

	habit, err := s.habitRepo.GetByIDAndUserID(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	loc := clock.ResolveZone(user.TimeZone)
	today := clock.Day(s.clk.Now(), loc)
	from := today.AddDate(0, 0, -days)

	completions, err := s.completionRepo.GetRange(ctx, habitID, from, today)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int32, len(completions))
	for _, c := range completions {
		counts[c.Day.Format("2006-01-02")] = c.CompletedCount
	}

	created := clock.Day(habit.CreatedAt, loc)
	history := &service.CompletionHistory{
		HabitID:        habit.ID,
		HabitTitle:     habit.Title,
		TargetCount:    habit.TargetCount,
		CompletionData: make(map[string]*int32, days+1),
	}

	for i := days; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := day.Format("2006-01-02")
		if day.Before(created) {
			// The habit did not exist yet; nil distinguishes "no data"
			// from "zero completions".
			history.CompletionData[key] = nil
			continue
		}
		count := counts[key]
		history.CompletionData[key] = &count
		history.TotalDays++
		if count > 0 {
			history.CompletedDays++
		}
	}

	return history, nil
}

// GetPerformanceAnalytics buckets ledger mutations by time of day and weekday
// and reports completion percentages against the habits' targets.
func (s *habitService) GetPerformanceAnalytics(ctx context.Context, userID uuid.UUID, days int) (*service.SlotStats, error) {
	if days <= 0 {
		days = 90
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	habits, err := s.habitRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	targets := make(map[uuid.UUID]int32, len(habits))
	for _, h := range habits {
		targets[h.ID] = h.TargetCount
	}

	loc := clock.ResolveZone(user.TimeZone)
	today := clock.Day(s.clk.Now(), loc)
	from := today.AddDate(0, 0, -days)

	completions, err := s.completionRepo.GetUserRange(ctx, userID, from, today)
	if err != nil {
		return nil, err
	}

	type bucket struct{ completed, total int }
	timeOfDay := map[string]*bucket{
		"morning":   {},
		"afternoon": {},
		"evening":   {},
	}
	dayOfWeek := make(map[string]*bucket, 7)
	for _, d := range entity.Weekdays {
		dayOfWeek[dayKeyName(d)] = &bucket{}
	}

	for _, c := range completions {
		at := c.CompletedAt.In(loc)
		target := targets[c.HabitID]
		if target < 1 {
			target = 1
		}

		slot := "evening"
		switch h := at.Hour(); {
		case h >= 6 && h < 12:
			slot = "morning"
		case h >= 12 && h < 18:
			slot = "afternoon"
		}
		timeOfDay[slot].completed++
		timeOfDay[slot].total += int(target)

		wd := dayOfWeek[dayKeyName(at.Weekday().String())]
		wd.completed++
		wd.total += int(target)
	}

	stats := &service.SlotStats{
		TimeOfDay: make(map[string]int, len(timeOfDay)),
		DayOfWeek: make(map[string]int, len(dayOfWeek)),
		Total:     len(completions),
	}
	for slot, b := range timeOfDay {
		stats.TimeOfDay[slot] = percentage(b.completed, b.total)
	}
	for d, b := range dayOfWeek {
		stats.DayOfWeek[d] = percentage(b.completed, b.total)
	}

	return stats, nil
}

func percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(completed)/float64(total)*100 + 0.5)
}

// dayKeyName lowercases a weekday name for the analytics response
func dayKeyName(weekday string) string {
	if weekday == "" {
		return weekday
	}
	b := []byte(weekday)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

func (s *habitService) invalidateToday(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}

	// Invalidate against the default zone too in case the user's stored zone
	// changed between writes; a spurious extra delete is harmless.
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return
	}
	loc := clock.ResolveZone(user.TimeZone)
	day := clock.Day(s.clk.Now(), loc).Format("2006-01-02")

	if err := s.cache.InvalidateToday(ctx, userID, day); err != nil {
		s.log.Warn("failed to invalidate today cache",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *habitService) publish(ctx context.Context, eventType string, userID uuid.UUID, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, userID, payload); err != nil {
		s.log.Warn(fmt.Sprintf("failed to publish %s event", eventType),
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}
