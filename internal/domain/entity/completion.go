package entity

import (
	"time"

	"github.com/google/uuid"
)

// HabitCompletion is a ledger entry: one record per (habit, calendar day),
// holding how many times the habit was completed that day. The ledger is the
// durable source of truth for history; Habit.HabitStreak is derived from it.
type HabitCompletion struct {
	ID      uuid.UUID
	HabitID uuid.UUID
	UserID  uuid.UUID

	// Day is the owner's local calendar day, UTC-normalized (midnight UTC).
	// Unique per habit.
	Day time.Time

	CompletedCount int32
	CompletedAt    time.Time // Last mutation timestamp

	CreatedAt time.Time
}

// Satisfies returns true if the entry meets the habit's daily target
func (c *HabitCompletion) Satisfies(targetCount int32) bool {
	return c.CompletedCount >= targetCount
}
