package service

import (
	"context"
	"habit-service/internal/domain/entity"

	"github.com/google/uuid"
)

// CreateHabitInput carries the fields of a proposed new habit
type CreateHabitInput struct {
	Title        string
	Icon         *string
	Notes        *string
	ReminderTime string
	RepeatDays   []string
	TargetCount  int32
	IsPublic     bool
	TimeZone     string // Optional; updates the owner's stored zone when set
}

// UpdateHabitInput carries the editable fields of a habit; nil means unchanged
type UpdateHabitInput struct {
	Title        *string
	Icon         *string
	Notes        *string
	ReminderTime *string
	RepeatDays   []string // nil means unchanged; empty slice means daily
	TargetCount  *int32
	IsPublic     *bool
}

// PublicHabit is the projection exposed to other users
type PublicHabit struct {
	ID     uuid.UUID `json:"id"`
	Icon   *string   `json:"icon"`
	Title  string    `json:"title"`
	Streak int32     `json:"streak"`
}

// CompletionHistory is a per-habit day -> count map over a trailing window.
// Days before the habit existed carry nil instead of zero.
type CompletionHistory struct {
	HabitID        uuid.UUID        `json:"habitId"`
	HabitTitle     string           `json:"habitTitle"`
	TargetCount    int32            `json:"targetCount"`
	CompletionData map[string]*int32 `json:"completionData"` // "YYYY-MM-DD" keys
	TotalDays      int              `json:"totalDays"`
	CompletedDays  int              `json:"completedDays"`
}

// SlotStats holds completion percentages bucketed by time of day and weekday
type SlotStats struct {
	TimeOfDay map[string]int `json:"timeOfDay"` // morning / afternoon / evening
	DayOfWeek map[string]int `json:"dayOfWeek"` // sunday .. saturday
	Total     int            `json:"totalCompletions"`
}

// HabitService owns the habit lifecycle: CRUD gated by feasibility, the
// status state machine, and the lazy daily rollover on read.
type HabitService interface {
	// CreateHabit evaluates feasibility and, if the verdict admits the
	// habit, persists it and schedules its first reminder. The verdict is
	// returned in all cases; an infeasible verdict comes with ErrConflict.
	CreateHabit(ctx context.Context, userID uuid.UUID, input CreateHabitInput) (*entity.Habit, *FeasibilityVerdict, error)

	// GetHabit retrieves a habit owned by the user
	GetHabit(ctx context.Context, habitID, userID uuid.UUID) (*entity.Habit, error)

	// ListHabits retrieves all of the user's habits
	ListHabits(ctx context.Context, userID uuid.UUID) ([]*entity.Habit, error)

	// UpdateHabit updates a habit in place; a reminder-time or repeat-day
	// change reschedules the next reminder
	UpdateHabit(ctx context.Context, habitID, userID uuid.UUID, input UpdateHabitInput) (*entity.Habit, error)

	// DeleteHabit removes a habit together with its ledger entries and
	// notifications
	DeleteHabit(ctx context.Context, habitID, userID uuid.UUID) error

	// SetStatus drives the status state machine and triggers the general
	// streak recompute for the owner
	SetStatus(ctx context.Context, habitID, userID uuid.UUID, status entity.HabitStatus) (*entity.Habit, error)

	// GetActiveToday runs the daily rollover for the owner, then returns
	// the habits scheduled for the owner's current local day
	GetActiveToday(ctx context.Context, userID uuid.UUID) ([]*entity.Habit, error)

	// GetPublicHabits returns the user's public habit projections
	GetPublicHabits(ctx context.Context, userID uuid.UUID) ([]PublicHabit, error)

	// GetCompletionHistory returns the per-day completion counts for a
	// habit over the trailing window of days
	GetCompletionHistory(ctx context.Context, habitID, userID uuid.UUID, days int) (*CompletionHistory, error)

	// GetPerformanceAnalytics returns time-of-day and day-of-week
	// completion percentages over the trailing window of days
	GetPerformanceAnalytics(ctx context.Context, userID uuid.UUID, days int) (*SlotStats, error)
}
