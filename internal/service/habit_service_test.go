package service

import (
	"context"
	"testing"
	"time"

	"habit-service/internal/apperr"
	"habit-service/internal/clock"
	"habit-service/internal/domain/entity"
	"habit-service/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-03-10 is a Tuesday; 11:30 UTC is 12:30 in Lagos.
var baseTime = time.Date(2026, 3, 10, 11, 30, 0, 0, time.UTC)

func TestSetStatus_CompleteIncrementsStreakAndLedger(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	habitID := env.addHabit(userID, entity.Habit{Title: "Meditate"})

	habit, err := env.habits.SetStatus(context.Background(), habitID, userID, entity.StatusComplete)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusComplete, habit.Status)
	assert.Equal(t, int32(1), habit.HabitStreak)
	require.NotNil(t, habit.LastCompleted)
	assert.Equal(t, baseTime, *habit.LastCompleted)

	day := clock.Day(baseTime, clock.ResolveZone("Africa/Lagos"))
	entry, err := env.completionRepo.GetForDay(context.Background(), habitID, day)
	require.NoError(t, err)
	assert.Equal(t, int32(1), entry.CompletedCount)

	assert.Len(t, env.events.ofType("habit.completed"), 1)

	// The only scheduled habit is complete, so the general streak earns
	// today's increment.
	user, err := env.userRepo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), user.GenStreakCount)
	require.NotNil(t, user.LastStreakIncrement)
}

func TestSetStatus_UncompleteReversesSameDay(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	habitID := env.addHabit(userID, entity.Habit{Title: "Read"})

	ctx := context.Background()
	_, err := env.habits.SetStatus(ctx, habitID, userID, entity.StatusComplete)
	require.NoError(t, err)

	habit, err := env.habits.SetStatus(ctx, habitID, userID, entity.StatusIncomplete)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusIncomplete, habit.Status)
	assert.Equal(t, int32(0), habit.HabitStreak)

	day := clock.Day(baseTime, clock.ResolveZone("Africa/Lagos"))
	_, err = env.completionRepo.GetForDay(ctx, habitID, day)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Un-completing within the same day takes back the general streak
	// increment too.
	user, err := env.userRepo.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), user.GenStreakCount)
	assert.Nil(t, user.LastStreakIncrement)
}

func TestSetStatus_SameStateIsNoOp(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	habitID := env.addHabit(userID, entity.Habit{Title: "Stretch"})

	ctx := context.Background()
	_, err := env.habits.SetStatus(ctx, habitID, userID, entity.StatusComplete)
	require.NoError(t, err)

	habit, err := env.habits.SetStatus(ctx, habitID, userID, entity.StatusComplete)
	require.NoError(t, err)

	assert.Equal(t, int32(1), habit.HabitStreak)

	day := clock.Day(baseTime, clock.ResolveZone("Africa/Lagos"))
	entry, err := env.completionRepo.GetForDay(ctx, habitID, day)
	require.NoError(t, err)
	assert.Equal(t, int32(1), entry.CompletedCount)
}

func TestSetStatus_CompletingFromPaused(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	habitID := env.addHabit(userID, entity.Habit{Title: "Journal", Status: entity.StatusPaused})

	habit, err := env.habits.SetStatus(context.Background(), habitID, userID, entity.StatusComplete)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusComplete, habit.Status)
	assert.Equal(t, int32(1), habit.HabitStreak)
}

func TestSetStatus_PausingKeepsLedger(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	habitID := env.addHabit(userID, entity.Habit{Title: "Run"})

	ctx := context.Background()
	_, err := env.habits.SetStatus(ctx, habitID, userID, entity.StatusComplete)
	require.NoError(t, err)

	habit, err := env.habits.SetStatus(ctx, habitID, userID, entity.StatusPaused)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPaused, habit.Status)
	assert.Equal(t, int32(1), habit.HabitStreak)

	day := clock.Day(baseTime, clock.ResolveZone("Africa/Lagos"))
	entry, err := env.completionRepo.GetForDay(ctx, habitID, day)
	require.NoError(t, err)
	assert.Equal(t, int32(1), entry.CompletedCount)
}

func TestSetStatus_RejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	habitID := env.addHabit(userID, entity.Habit{Title: "Cook"})

	_, err := env.habits.SetStatus(context.Background(), habitID, userID, "done")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestGetActiveToday_RolloverResetsCompletedOncePerDay(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	habitID := env.addHabit(userID, entity.Habit{Title: "Read", Status: entity.StatusComplete, HabitStreak: 4})

	// The marker points at yesterday, as if the user last opened the app then.
	lagos := clock.ResolveZone("Africa/Lagos")
	yesterday := clock.Day(baseTime.AddDate(0, 0, -1), lagos)
	env.userRepo.users[userID].LastHabitReset = &yesterday

	ctx := context.Background()
	habits, err := env.habits.GetActiveToday(ctx, userID)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, entity.StatusIncomplete, habits[0].Status)
	assert.Equal(t, int32(4), habits[0].HabitStreak)

	user, err := env.userRepo.GetByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, user.LastHabitReset)
	assert.Equal(t, clock.Day(baseTime, lagos), *user.LastHabitReset)

	// A second read on the same day must not reset again.
	_, err = env.habits.SetStatus(ctx, habitID, userID, entity.StatusComplete)
	require.NoError(t, err)

	habits, err = env.habits.GetActiveToday(ctx, userID)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, entity.StatusComplete, habits[0].Status)
}

func TestGetActiveToday_FiltersByWeekday(t *testing.T) {
	env := newTestEnv(baseTime) // Tuesday in Lagos
	userID := env.addUser("Africa/Lagos")
	env.addHabit(userID, entity.Habit{Title: "Daily habit"})
	env.addHabit(userID, entity.Habit{Title: "Tuesday habit", RepeatDays: []string{"Tuesday"}})
	env.addHabit(userID, entity.Habit{Title: "Monday habit", RepeatDays: []string{"Monday"}})

	habits, err := env.habits.GetActiveToday(context.Background(), userID)
	require.NoError(t, err)

	titles := make([]string, 0, len(habits))
	for _, h := range habits {
		titles = append(titles, h.Title)
	}
	assert.ElementsMatch(t, []string{"Daily habit", "Tuesday habit"}, titles)
}

func TestCreateHabit_ValidatesInput(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")

	tests := []struct {
		name  string
		input service.CreateHabitInput
	}{
		{
			name:  "empty title",
			input: service.CreateHabitInput{ReminderTime: "08:00"},
		},
		{
			name:  "bad reminder time",
			input: service.CreateHabitInput{Title: "Read", ReminderTime: "8am"},
		},
		{
			name:  "out of range reminder time",
			input: service.CreateHabitInput{Title: "Read", ReminderTime: "25:00"},
		},
		{
			name: "unknown weekday",
			input: service.CreateHabitInput{
				Title: "Read", ReminderTime: "08:00", RepeatDays: []string{"Funday"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.habits.CreateHabit(context.Background(), userID, tt.input)
			assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		})
	}
}

func TestCreateHabit_SchedulesFirstReminder(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")

	habit, verdict, err := env.habits.CreateHabit(context.Background(), userID, service.CreateHabitInput{
		Title:        "Read",
		ReminderTime: "08:00",
	})
	require.NoError(t, err)
	require.NotNil(t, verdict)
	assert.True(t, verdict.Feasible)
	assert.Equal(t, entity.StatusIncomplete, habit.Status)
	assert.Equal(t, int32(1), habit.TargetCount)

	pending := env.notificationRepo.pendingFor(habit.ID)
	require.Len(t, pending, 1)

	// 08:00 Lagos has already passed at 12:30, so the reminder lands
	// tomorrow at 07:00 UTC.
	want := time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, want, pending[0].ScheduledFor)
	assert.Equal(t, entity.NotificationTypeHabitReminder, pending[0].Type)
}

func TestCreateHabit_RejectsWhenInfeasible(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	for i := 0; i < 15; i++ {
		env.addHabit(userID, entity.Habit{Title: "Habit", RepeatDays: []string{"Monday"}})
	}

	_, verdict, err := env.habits.CreateHabit(context.Background(), userID, service.CreateHabitInput{
		Title:        "One more",
		ReminderTime: "08:00",
		RepeatDays:   []string{"Friday"},
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	require.NotNil(t, verdict)
	assert.False(t, verdict.Feasible)

	habits, err := env.habitRepo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, habits, 15)
}

func TestUpdateHabit_ReschedulesOnReminderChange(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	habitID := env.addHabit(userID, entity.Habit{Title: "Read", ReminderTime: "08:00"})

	newTime := "20:00"
	habit, err := env.habits.UpdateHabit(context.Background(), habitID, userID, service.UpdateHabitInput{
		ReminderTime: &newTime,
	})
	require.NoError(t, err)
	assert.Equal(t, "20:00", habit.ReminderTime)

	pending := env.notificationRepo.pendingFor(habitID)
	require.NotEmpty(t, pending)

	// 20:00 Lagos is still ahead today.
	want := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
	assert.Equal(t, want, pending[len(pending)-1].ScheduledFor)
}

func TestDeleteHabit_RequiresOwnership(t *testing.T) {
	env := newTestEnv(baseTime)
	owner := env.addUser("Africa/Lagos")
	other := env.addUser("Africa/Lagos")
	habitID := env.addHabit(owner, entity.Habit{Title: "Read"})

	err := env.habits.DeleteHabit(context.Background(), habitID, other)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = env.habits.DeleteHabit(context.Background(), habitID, owner)
	assert.NoError(t, err)
}

func TestGetPublicHabits_ProjectsOnlyPublic(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	env.addHabit(userID, entity.Habit{Title: "Public habit", IsPublic: true, HabitStreak: 9})
	env.addHabit(userID, entity.Habit{Title: "Private habit"})

	public, err := env.habits.GetPublicHabits(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Public habit", public[0].Title)
	assert.Equal(t, int32(9), public[0].Streak)
}

func TestGetCompletionHistory_NilBeforeCreation(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	lagos := clock.ResolveZone("Africa/Lagos")

	created := baseTime.AddDate(0, 0, -2)
	habitID := env.addHabit(userID, entity.Habit{Title: "Read", TargetCount: 1, CreatedAt: created})

	ctx := context.Background()
	yesterday := clock.Day(baseTime.AddDate(0, 0, -1), lagos)
	require.NoError(t, env.completionRepo.Upsert(ctx, habitID, userID, yesterday, baseTime.AddDate(0, 0, -1)))

	history, err := env.habits.GetCompletionHistory(ctx, habitID, userID, 4)
	require.NoError(t, err)

	today := clock.Day(baseTime, lagos)
	assert.Nil(t, history.CompletionData[today.AddDate(0, 0, -4).Format("2006-01-02")])
	assert.Nil(t, history.CompletionData[today.AddDate(0, 0, -3).Format("2006-01-02")])

	dayBefore := history.CompletionData[today.AddDate(0, 0, -2).Format("2006-01-02")]
	require.NotNil(t, dayBefore)
	assert.Equal(t, int32(0), *dayBefore)

	completedDay := history.CompletionData[yesterday.Format("2006-01-02")]
	require.NotNil(t, completedDay)
	assert.Equal(t, int32(1), *completedDay)

	assert.Equal(t, 3, history.TotalDays)
	assert.Equal(t, 1, history.CompletedDays)
}

func TestGetPerformanceAnalytics_BucketsByLocalHour(t *testing.T) {
	env := newTestEnv(baseTime)
	userID := env.addUser("Africa/Lagos")
	habitID := env.addHabit(userID, entity.Habit{Title: "Read", TargetCount: 1})

	ctx := context.Background()
	lagos := clock.ResolveZone("Africa/Lagos")

	// 06:30 UTC is 07:30 Lagos (morning); 18:30 UTC is 19:30 Lagos (evening).
	morning := time.Date(2026, 3, 9, 6, 30, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 8, 18, 30, 0, 0, time.UTC)
	require.NoError(t, env.completionRepo.Upsert(ctx, habitID, userID, clock.Day(morning, lagos), morning))
	require.NoError(t, env.completionRepo.Upsert(ctx, habitID, userID, clock.Day(evening, lagos), evening))

	stats, err := env.habits.GetPerformanceAnalytics(ctx, userID, 30)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 100, stats.TimeOfDay["morning"])
	assert.Equal(t, 100, stats.TimeOfDay["evening"])
	assert.Equal(t, 0, stats.TimeOfDay["afternoon"])
	assert.Equal(t, 100, stats.DayOfWeek["monday"])
	assert.Equal(t, 100, stats.DayOfWeek["sunday"])
}
