package service

import (
	"context"

	"github.com/google/uuid"
)

// Confidence grades a feasibility verdict
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ProposedHabit is the shape of a habit under feasibility evaluation
type ProposedHabit struct {
	Title        string
	Notes        string
	ReminderTime string
	RepeatDays   []string
	TargetCount  int32
}

// TimeConflict names an existing habit whose reminder falls within the
// conflict window of the proposed time
type TimeConflict struct {
	HabitTitle   string `json:"habitTitle"`
	ReminderTime string `json:"reminderTime"`
	MinutesApart int    `json:"minutesApart"`
}

// FeasibilityMetrics carries the aggregates the verdict was judged on
type FeasibilityMetrics struct {
	CurrentHabitCount int            `json:"currentHabitCount"`
	WeeklyTimeLoad    int32          `json:"estimatedWeeklyMinutes"`
	AvgCompletionRate float64        `json:"avgCompletionRate"`
	AvgStreak         float64        `json:"avgStreakDuration"`
	TimeConflicts     []TimeConflict `json:"timeConflicts"`
}

// FeasibilityVerdict is a structured accept/reject/warn decision. Heuristic
// outcomes never surface as errors; internal failures degrade to a
// permissive low-confidence approval.
type FeasibilityVerdict struct {
	Feasible    bool               `json:"feasible"`
	Confidence  Confidence         `json:"confidence"`
	Message     string             `json:"message"`
	Warnings    []string           `json:"warnings"`
	Suggestions []string           `json:"suggestions"`
	Metrics     FeasibilityMetrics `json:"metrics"`
}

// DurationEstimator estimates a habit's per-occurrence duration in minutes
// from its title and notes. Pluggable; estimation is advisory input to
// feasibility, not a strict requirement.
type DurationEstimator interface {
	Estimate(title, notes string) int32
}

// FeasibilityService applies the admission heuristic for new habits
type FeasibilityService interface {
	// Evaluate judges whether the user can take on the proposed habit.
	// It never fails: on internal error the verdict defaults to feasible
	// with low confidence and an explanatory warning.
	Evaluate(ctx context.Context, userID uuid.UUID, proposed ProposedHabit) *FeasibilityVerdict
}
