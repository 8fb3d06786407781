package entity

import (
	"time"

	"github.com/google/uuid"
)

// HabitStatus represents a habit's daily lifecycle status
type HabitStatus string

const (
	StatusIncomplete HabitStatus = "incomplete"
	StatusComplete   HabitStatus = "complete"
	StatusPaused     HabitStatus = "paused"
)

// Valid returns true if the status is one of the recognized values
func (s HabitStatus) Valid() bool {
	switch s {
	case StatusIncomplete, StatusComplete, StatusPaused:
		return true
	}
	return false
}

// Weekdays lists the accepted repeat-day names
var Weekdays = []string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

// ValidWeekday returns true if name is a recognized weekday name
func ValidWeekday(name string) bool {
	for _, d := range Weekdays {
		if d == name {
			return true
		}
	}
	return false
}

// Habit represents one recurring commitment owned by exactly one user
type Habit struct {
	ID     uuid.UUID
	UserID uuid.UUID

	// Basic info
	Title string
	Icon  *string
	Notes *string

	// Schedule configuration
	ReminderTime string   // Local wall-clock "HH:MM" in the owner's timezone
	RepeatDays   []string // Weekday names; empty means every day

	// Target
	TargetCount int32 // Completions required per active day, >= 1
	IsPublic    bool

	// Mutable runtime state
	Status        HabitStatus
	HabitStreak   int32 // Consecutive active days completed; never negative
	LastCompleted *time.Time

	// Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDaily returns true if the habit repeats every day
func (h *Habit) IsDaily() bool {
	return len(h.RepeatDays) == 0
}

// ScheduledOn returns true if the habit is scheduled on the given weekday name
func (h *Habit) ScheduledOn(weekday string) bool {
	if h.IsDaily() {
		return true
	}
	for _, d := range h.RepeatDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// OccurrencesPerWeek returns how many days per week the habit is scheduled
func (h *Habit) OccurrencesPerWeek() int32 {
	if h.IsDaily() {
		return 7
	}
	return int32(len(h.RepeatDays))
}
