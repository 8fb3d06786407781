package service

import (
	"context"
	"time"

	"habit-service/internal/apperr"
	"habit-service/internal/clock"
	"habit-service/internal/config"
	"habit-service/internal/domain/entity"
	"habit-service/internal/domain/service"
	"habit-service/pkg/logger"

	"github.com/google/uuid"
)

// stepClock is a mutable fixed clock for tests
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time { return c.t }

type memHabitRepo struct {
	habits map[uuid.UUID]*entity.Habit
	err    error
}

func newMemHabitRepo() *memHabitRepo {
	return &memHabitRepo{habits: make(map[uuid.UUID]*entity.Habit)}
}

func (r *memHabitRepo) Create(_ context.Context, habit *entity.Habit) error {
	if r.err != nil {
		return r.err
	}
	clone := *habit
	r.habits[habit.ID] = &clone
	return nil
}

func (r *memHabitRepo) GetByID(_ context.Context, habitID uuid.UUID) (*entity.Habit, error) {
	if r.err != nil {
		return nil, r.err
	}
	h, ok := r.habits[habitID]
	if !ok {
		return nil, apperr.NotFoundf("habit %s not found", habitID)
	}
	clone := *h
	return &clone, nil
}

func (r *memHabitRepo) GetByIDAndUserID(ctx context.Context, habitID, userID uuid.UUID) (*entity.Habit, error) {
	h, err := r.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if h.UserID != userID {
		return nil, apperr.NotFoundf("habit %s not found", habitID)
	}
	return h, nil
}

func (r *memHabitRepo) GetByUserID(_ context.Context, userID uuid.UUID) ([]*entity.Habit, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.Habit
	for _, h := range r.habits {
		if h.UserID == userID {
			clone := *h
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memHabitRepo) GetScheduledForDay(ctx context.Context, userID uuid.UUID, weekday string) ([]*entity.Habit, error) {
	habits, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []*entity.Habit
	for _, h := range habits {
		if h.ScheduledOn(weekday) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memHabitRepo) GetPublicByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Habit, error) {
	habits, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []*entity.Habit
	for _, h := range habits {
		if h.IsPublic {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memHabitRepo) Update(_ context.Context, habit *entity.Habit) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.habits[habit.ID]; !ok {
		return apperr.NotFoundf("habit %s not found", habit.ID)
	}
	clone := *habit
	r.habits[habit.ID] = &clone
	return nil
}

func (r *memHabitRepo) UpdateStatus(_ context.Context, habitID uuid.UUID, status entity.HabitStatus, streak int32, lastCompleted *time.Time) error {
	if r.err != nil {
		return r.err
	}
	h, ok := r.habits[habitID]
	if !ok {
		return apperr.NotFoundf("habit %s not found", habitID)
	}
	h.Status = status
	h.HabitStreak = streak
	h.LastCompleted = lastCompleted
	return nil
}

func (r *memHabitRepo) ResetCompleted(_ context.Context, userID uuid.UUID) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for _, h := range r.habits {
		if h.UserID == userID && h.Status == entity.StatusComplete {
			h.Status = entity.StatusIncomplete
			n++
		}
	}
	return n, nil
}

func (r *memHabitRepo) Delete(_ context.Context, habitID uuid.UUID) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.habits[habitID]; !ok {
		return apperr.NotFoundf("habit %s not found", habitID)
	}
	delete(r.habits, habitID)
	return nil
}

type memCompletionRepo struct {
	entries map[string]*entity.HabitCompletion
	err     error
}

func newMemCompletionRepo() *memCompletionRepo {
	return &memCompletionRepo{entries: make(map[string]*entity.HabitCompletion)}
}

func ledgerKey(habitID uuid.UUID, day time.Time) string {
	return habitID.String() + ":" + day.Format("2006-01-02")
}

func (r *memCompletionRepo) Upsert(_ context.Context, habitID, userID uuid.UUID, day, now time.Time) error {
	if r.err != nil {
		return r.err
	}
	key := ledgerKey(habitID, day)
	if e, ok := r.entries[key]; ok {
		e.CompletedCount++
		e.CompletedAt = now
		return nil
	}
	r.entries[key] = &entity.HabitCompletion{
		ID:             uuid.New(),
		HabitID:        habitID,
		UserID:         userID,
		Day:            day,
		CompletedCount: 1,
		CompletedAt:    now,
		CreatedAt:      now,
	}
	return nil
}

func (r *memCompletionRepo) Decrement(_ context.Context, habitID uuid.UUID, day time.Time) error {
	if r.err != nil {
		return r.err
	}
	key := ledgerKey(habitID, day)
	e, ok := r.entries[key]
	if !ok {
		return nil
	}
	e.CompletedCount--
	if e.CompletedCount <= 0 {
		delete(r.entries, key)
	}
	return nil
}

func (r *memCompletionRepo) GetForDay(_ context.Context, habitID uuid.UUID, day time.Time) (*entity.HabitCompletion, error) {
	if r.err != nil {
		return nil, r.err
	}
	e, ok := r.entries[ledgerKey(habitID, day)]
	if !ok {
		return nil, apperr.NotFoundf("no completion for habit %s on %s", habitID, day.Format("2006-01-02"))
	}
	clone := *e
	return &clone, nil
}

func (r *memCompletionRepo) GetRange(_ context.Context, habitID uuid.UUID, from, to time.Time) ([]*entity.HabitCompletion, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.HabitCompletion
	for _, e := range r.entries {
		if e.HabitID == habitID && !e.Day.Before(from) && !e.Day.After(to) {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memCompletionRepo) GetUserRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*entity.HabitCompletion, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.HabitCompletion
	for _, e := range r.entries {
		if e.UserID == userID && !e.Day.Before(from) && !e.Day.After(to) {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memUserRepo struct {
	users map[uuid.UUID]*entity.User
	err   error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, userID uuid.UUID) (*entity.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, apperr.NotFoundf("user %s not found", userID)
	}
	clone := *u
	return &clone, nil
}

func (r *memUserRepo) UpdateStreak(_ context.Context, userID uuid.UUID, genStreak, longest int32, lastIncrement, lastUpdate *time.Time) error {
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFoundf("user %s not found", userID)
	}
	u.GenStreakCount = genStreak
	u.LongestStreak = longest
	u.LastStreakIncrement = lastIncrement
	u.LastStreakUpdate = lastUpdate
	return nil
}

func (r *memUserRepo) UpdateLastHabitReset(_ context.Context, userID uuid.UUID, day time.Time) error {
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFoundf("user %s not found", userID)
	}
	u.LastHabitReset = &day
	return nil
}

func (r *memUserRepo) UpdateTimeZone(_ context.Context, userID uuid.UUID, timeZone string) error {
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFoundf("user %s not found", userID)
	}
	u.TimeZone = timeZone
	return nil
}

func (r *memUserRepo) SetVacation(_ context.Context, userID uuid.UUID, on bool) error {
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFoundf("user %s not found", userID)
	}
	u.IsVacation = on
	return nil
}

func (r *memUserRepo) GetWithActiveStreaks(_ context.Context) ([]*entity.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.User
	for _, u := range r.users {
		if u.GenStreakCount > 0 && !u.IsVacation {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memNotificationRepo struct {
	notifications map[uuid.UUID]*entity.Notification
	err           error
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{notifications: make(map[uuid.UUID]*entity.Notification)}
}

func (r *memNotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	if r.err != nil {
		return r.err
	}
	clone := *n
	r.notifications[n.ID] = &clone
	return nil
}

func (r *memNotificationRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Notification, error) {
	if r.err != nil {
		return nil, r.err
	}
	n, ok := r.notifications[id]
	if !ok {
		return nil, apperr.NotFoundf("notification %s not found", id)
	}
	clone := *n
	return &clone, nil
}

func (r *memNotificationRepo) GetByUserID(_ context.Context, userID uuid.UUID, limit, offset int32) ([]*entity.Notification, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			clone := *n
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memNotificationRepo) GetDue(_ context.Context, now time.Time, limit int32) ([]*entity.Notification, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.Notification
	for _, n := range r.notifications {
		if n.Status == entity.NotificationStatusPending && !n.ScheduledFor.After(now) {
			clone := *n
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memNotificationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.NotificationStatus) error {
	if r.err != nil {
		return r.err
	}
	n, ok := r.notifications[id]
	if !ok {
		return apperr.NotFoundf("notification %s not found", id)
	}
	n.Status = status
	return nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	if r.err != nil {
		return r.err
	}
	n, ok := r.notifications[id]
	if !ok {
		return apperr.NotFoundf("notification %s not found", id)
	}
	n.IsRead = true
	return nil
}

func (r *memNotificationRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.notifications[id]; !ok {
		return apperr.NotFoundf("notification %s not found", id)
	}
	delete(r.notifications, id)
	return nil
}

// pendingFor returns the pending reminder notifications for a habit
func (r *memNotificationRepo) pendingFor(habitID uuid.UUID) []*entity.Notification {
	var out []*entity.Notification
	for _, n := range r.notifications {
		if n.HabitID == habitID && n.Status == entity.NotificationStatusPending {
			clone := *n
			out = append(out, &clone)
		}
	}
	return out
}

type memSubscriptionRepo struct {
	subs map[uuid.UUID]*entity.PushSubscription
	err  error
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: make(map[uuid.UUID]*entity.PushSubscription)}
}

func (r *memSubscriptionRepo) Save(_ context.Context, sub *entity.PushSubscription) error {
	if r.err != nil {
		return r.err
	}
	clone := *sub
	r.subs[sub.UserID] = &clone
	return nil
}

func (r *memSubscriptionRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*entity.PushSubscription, error) {
	if r.err != nil {
		return nil, r.err
	}
	sub, ok := r.subs[userID]
	if !ok {
		return nil, apperr.NotFoundf("no subscription for user %s", userID)
	}
	clone := *sub
	return &clone, nil
}

type sentReminder struct {
	endpoint string
	title    string
	message  string
}

type fakeSender struct {
	sent []sentReminder
	err  error
}

func (s *fakeSender) Send(_ context.Context, endpoint, title, message string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentReminder{endpoint: endpoint, title: title, message: message})
	return nil
}

type publishedEvent struct {
	eventType string
	userID    uuid.UUID
	payload   map[string]any
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, userID uuid.UUID, payload map[string]any) error {
	p.events = append(p.events, publishedEvent{eventType: eventType, userID: userID, payload: payload})
	return nil
}

func (p *fakePublisher) ofType(eventType string) []publishedEvent {
	var out []publishedEvent
	for _, e := range p.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func testFeasibilityConfig() config.FeasibilityConfig {
	cfg := config.FeasibilityConfig{
		MaxDailyMinutes:    180,
		MaxWeeklyMinutes:   720,
		MaxDailyHabits:     8,
		MaxWeeklyHabits:    15,
		MinCompletionRate:  0.7,
		HighCompletionRate: 0.85,
		MinStreakDays:      7,
		OptimalStreakDays:  21,
		ConflictWindowMin:  30,
		DefaultMinutes:     15,
		MinHabitAgeDays:    7,
		RateWindowDays:     30,
	}
	return cfg
}

// testEnv wires the full service graph over in-memory repositories
type testEnv struct {
	habitRepo        *memHabitRepo
	completionRepo   *memCompletionRepo
	userRepo         *memUserRepo
	notificationRepo *memNotificationRepo
	subscriptionRepo *memSubscriptionRepo
	sender           *fakeSender
	events           *fakePublisher
	clk              *stepClock

	habits    service.HabitService
	streaks   service.StreakService
	reminders service.ReminderService
	feasible  service.FeasibilityService
}

func newTestEnv(now time.Time) *testEnv {
	e := &testEnv{
		habitRepo:        newMemHabitRepo(),
		completionRepo:   newMemCompletionRepo(),
		userRepo:         newMemUserRepo(),
		notificationRepo: newMemNotificationRepo(),
		subscriptionRepo: newMemSubscriptionRepo(),
		sender:           &fakeSender{},
		events:           &fakePublisher{},
		clk:              &stepClock{t: now},
	}

	log := logger.Nop()
	e.streaks = NewStreakService(
		e.habitRepo, e.completionRepo, e.userRepo, e.notificationRepo, e.events, e.clk, log)
	e.reminders = NewReminderService(
		e.notificationRepo, e.habitRepo, e.userRepo, e.subscriptionRepo, e.sender, 100, e.clk, log)
	e.feasible = NewFeasibilityService(
		e.habitRepo, e.completionRepo, NewKeywordEstimator(15), testFeasibilityConfig(), e.clk, log)
	e.habits = NewHabitService(
		e.habitRepo, e.completionRepo, e.userRepo, e.streaks, e.reminders, e.feasible,
		nil, e.events, e.clk, log)

	return e
}

func (e *testEnv) addUser(timeZone string) uuid.UUID {
	id := uuid.New()
	today := clock.Day(e.clk.t, clock.ResolveZone(timeZone))
	e.userRepo.users[id] = &entity.User{
		ID:             id,
		Email:          "user@example.com",
		TimeZone:       timeZone,
		LastHabitReset: &today,
		CreatedAt:      e.clk.t,
	}
	return id
}

func (e *testEnv) addHabit(userID uuid.UUID, h entity.Habit) uuid.UUID {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	h.UserID = userID
	if h.Status == "" {
		h.Status = entity.StatusIncomplete
	}
	if h.ReminderTime == "" {
		h.ReminderTime = "08:00"
	}
	if h.TargetCount == 0 {
		h.TargetCount = 1
	}
	if h.RepeatDays == nil {
		h.RepeatDays = []string{}
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = e.clk.t
	}
	e.habitRepo.habits[h.ID] = &h
	return h.ID
}
