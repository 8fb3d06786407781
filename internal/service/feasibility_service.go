package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"habit-service/internal/clock"
	"habit-service/internal/config"
	"habit-service/internal/domain/entity"
	"habit-service/internal/domain/repository"
	"habit-service/internal/domain/service"
	"habit-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type feasibilityService struct {
	habitRepo      repository.HabitRepository
	completionRepo repository.CompletionRepository
	estimator      service.DurationEstimator
	cfg            config.FeasibilityConfig
	clk            clock.Clock
	log            *logger.Logger
}

// NewFeasibilityService creates the habit admission heuristic
func NewFeasibilityService(
	habitRepo repository.HabitRepository,
	completionRepo repository.CompletionRepository,
	estimator service.DurationEstimator,
	cfg config.FeasibilityConfig,
	clk clock.Clock,
	log *logger.Logger,
) service.FeasibilityService {
	return &feasibilityService{
		habitRepo:      habitRepo,
		completionRepo: completionRepo,
		estimator:      estimator,
		cfg:            cfg,
		clk:            clk,
		log:            log,
	}
}

// Evaluate judges the proposed habit against the user's current load and
// track record. The heuristic fails open: any internal error degrades to a
// permissive low-confidence approval rather than blocking the create.
func (s *feasibilityService) Evaluate(ctx context.Context, userID uuid.UUID, proposed service.ProposedHabit) *service.FeasibilityVerdict {
	verdict, err := s.evaluate(ctx, userID, proposed)
	if err != nil {
		s.log.Warn("feasibility check degraded",
			zap.String("user_id", userID.String()), zap.Error(err))
		return &service.FeasibilityVerdict{
			Feasible:   true,
			Confidence: service.ConfidenceLow,
			Message:    "Could not fully evaluate feasibility, proceeding anyway.",
			Warnings:   []string{"Feasibility data was unavailable; this habit was admitted without a full check."},
		}
	}
	return verdict
}

func (s *feasibilityService) evaluate(ctx context.Context, userID uuid.UUID, proposed service.ProposedHabit) (*service.FeasibilityVerdict, error) {
	habits, err := s.habitRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := make([]*entity.Habit, 0, len(habits))
	for _, h := range habits {
		if h.Status != entity.StatusPaused {
			active = append(active, h)
		}
	}

	proposedMinutes := s.estimator.Estimate(proposed.Title, proposed.Notes)
	proposedDaily := len(proposed.RepeatDays) == 0
	proposedPerWeek := int32(len(proposed.RepeatDays))
	if proposedDaily {
		proposedPerWeek = 7
	}

	dailyCount := 0
	var dailyMinutes, weeklyMinutes int32
	for _, h := range active {
		minutes := s.estimator.Estimate(h.Title, deref(h.Notes))
		weeklyMinutes += minutes * h.OccurrencesPerWeek()
		if h.IsDaily() {
			dailyCount++
			dailyMinutes += minutes
		}
	}
	projectedWeekly := weeklyMinutes + proposedMinutes*proposedPerWeek

	verdict := &service.FeasibilityVerdict{
		Feasible:   true,
		Confidence: service.ConfidenceHigh,
		Metrics: service.FeasibilityMetrics{
			CurrentHabitCount: len(active),
			WeeklyTimeLoad:    projectedWeekly,
		},
	}

	// Hard ceilings reject outright; everything below them only grades
	// confidence and attaches advice.
	if proposedDaily && dailyCount+1 > s.cfg.MaxDailyHabits {
		verdict.Feasible = false
		verdict.Message = fmt.Sprintf(
			"You already have %d daily habits. Adding more than %d daily habits makes them hard to sustain.",
			dailyCount, s.cfg.MaxDailyHabits)
		verdict.Suggestions = append(verdict.Suggestions,
			"Consider scheduling this habit on specific days instead of daily.")
		return verdict, nil
	}

	if int32(len(active))+1 > s.cfg.MaxWeeklyHabits {
		verdict.Feasible = false
		verdict.Message = fmt.Sprintf(
			"You already track %d habits. More than %d active habits tends to dilute focus.",
			len(active), s.cfg.MaxWeeklyHabits)
		verdict.Suggestions = append(verdict.Suggestions,
			"Try pausing or completing an existing habit before adding a new one.")
		return verdict, nil
	}

	if projectedWeekly > s.cfg.MaxWeeklyMinutes {
		verdict.Feasible = false
		verdict.Message = fmt.Sprintf(
			"This habit would push your weekly commitment to about %d minutes, past the %d minute budget.",
			projectedWeekly, s.cfg.MaxWeeklyMinutes)
		verdict.Suggestions = append(verdict.Suggestions,
			"Shorten the habit or schedule it on fewer days.")
		return verdict, nil
	}

	if proposedDaily && dailyMinutes+proposedMinutes > s.cfg.MaxDailyMinutes {
		verdict.Confidence = service.ConfidenceMedium
		verdict.Warnings = append(verdict.Warnings, fmt.Sprintf(
			"Your daily habits would take about %d minutes, above the %d minute comfort zone.",
			dailyMinutes+proposedMinutes, s.cfg.MaxDailyMinutes))
	}

	s.findConflicts(verdict, active, proposed)

	if err := s.gradeReadiness(ctx, verdict, active); err != nil {
		return nil, err
	}

	if verdict.Message == "" {
		verdict.Message = "This habit fits your current routine."
	}

	return verdict, nil
}

// findConflicts flags existing reminders within the conflict window of the
// proposed reminder time. Conflicts warn, never reject.
func (s *feasibilityService) findConflicts(verdict *service.FeasibilityVerdict, active []*entity.Habit, proposed service.ProposedHabit) {
	proposedMin, ok := wallMinutes(proposed.ReminderTime)
	if !ok {
		return
	}

	for _, h := range active {
		existingMin, ok := wallMinutes(h.ReminderTime)
		if !ok {
			continue
		}
		if !daysOverlap(proposed.RepeatDays, h.RepeatDays) {
			continue
		}
		apart := int(math.Abs(float64(proposedMin - existingMin)))
		if apart > 12*60 {
			apart = 24*60 - apart
		}
		if apart <= s.cfg.ConflictWindowMin {
			verdict.Metrics.TimeConflicts = append(verdict.Metrics.TimeConflicts, service.TimeConflict{
				HabitTitle:   h.Title,
				ReminderTime: h.ReminderTime,
				MinutesApart: apart,
			})
			verdict.Warnings = append(verdict.Warnings, fmt.Sprintf(
				"The reminder is only %d minutes from %q (%s).", apart, h.Title, h.ReminderTime))
		}
	}

	if len(verdict.Metrics.TimeConflicts) > 0 && verdict.Confidence == service.ConfidenceHigh {
		verdict.Confidence = service.ConfidenceMedium
		verdict.Suggestions = append(verdict.Suggestions,
			"Space reminders out so habits do not compete for the same moment.")
	}
}

// gradeReadiness judges the user's track record over mature habits only.
// New accounts with nothing mature enough to judge pass with high confidence.
func (s *feasibilityService) gradeReadiness(ctx context.Context, verdict *service.FeasibilityVerdict, active []*entity.Habit) error {
	now := s.clk.Now()
	windowEnd := clock.Day(now, time.UTC)
	minAge := time.Duration(s.cfg.MinHabitAgeDays) * 24 * time.Hour

	var rateSum, streakSum float64
	mature := 0
	for _, h := range active {
		if now.Sub(h.CreatedAt) < minAge {
			continue
		}

		rate, err := s.completionRate(ctx, h, windowEnd)
		if err != nil {
			return err
		}
		rateSum += rate
		streakSum += float64(h.HabitStreak)
		mature++
	}

	if mature == 0 {
		return nil
	}

	avgRate := rateSum / float64(mature)
	avgStreak := streakSum / float64(mature)
	verdict.Metrics.AvgCompletionRate = math.Round(avgRate*100) / 100
	verdict.Metrics.AvgStreak = math.Round(avgStreak*10) / 10

	switch {
	case avgRate < s.cfg.MinCompletionRate:
		verdict.Feasible = false
		verdict.Confidence = service.ConfidenceHigh
		verdict.Message = fmt.Sprintf(
			"You're completing about %d%% of your current habits. Strengthen those before taking on more.",
			int(avgRate*100))
		verdict.Suggestions = append(verdict.Suggestions,
			"Focus on your existing habits until your completion rate recovers.")

	case avgStreak < s.cfg.MinStreakDays:
		verdict.Feasible = false
		verdict.Confidence = service.ConfidenceMedium
		verdict.Message = fmt.Sprintf(
			"Your habits average %.1f day streaks. Build them past %.0f days before adding more.",
			avgStreak, s.cfg.MinStreakDays)
		verdict.Suggestions = append(verdict.Suggestions,
			"Not yet: let your current habits settle in first.")

	case avgStreak < s.cfg.OptimalStreakDays || avgRate < s.cfg.HighCompletionRate:
		if verdict.Confidence == service.ConfidenceHigh {
			verdict.Confidence = service.ConfidenceMedium
		}
		verdict.Warnings = append(verdict.Warnings,
			"Your current habits are still settling in; adding more now carries some risk.")
	}

	return nil
}

// completionRate measures the habit's target-satisfying days against its
// expected scheduled days over the trailing rate window, clamped to the
// habit's own age.
func (s *feasibilityService) completionRate(ctx context.Context, h *entity.Habit, windowEnd time.Time) (float64, error) {
	windowDays := s.cfg.RateWindowDays
	ageDays := int(windowEnd.Sub(clock.Day(h.CreatedAt, time.UTC)).Hours() / 24)
	if ageDays < windowDays {
		windowDays = ageDays
	}
	if windowDays <= 0 {
		return 1, nil
	}

	from := windowEnd.AddDate(0, 0, -windowDays)
	completions, err := s.completionRepo.GetRange(ctx, h.ID, from, windowEnd)
	if err != nil {
		return 0, err
	}

	satisfied := 0
	for _, c := range completions {
		if c.Satisfies(h.TargetCount) {
			satisfied++
		}
	}

	expected := float64(windowDays) * float64(h.OccurrencesPerWeek()) / 7
	if expected < 1 {
		return 1, nil
	}

	rate := float64(satisfied) / expected
	if rate > 1 {
		rate = 1
	}
	return rate, nil
}

// wallMinutes parses "HH:MM" into minutes after midnight
func wallMinutes(reminderTime string) (int, bool) {
	t, err := time.Parse("15:04", reminderTime)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// daysOverlap reports whether two repeat-day sets share a weekday. An empty
// set means daily and overlaps everything.
func daysOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, da := range a {
		for _, db := range b {
			if da == db {
				return true
			}
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
