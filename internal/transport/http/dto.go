package http

import (
	"time"

	"habit-service/internal/domain/entity"
)

type habitResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Icon          *string    `json:"icon"`
	Notes         *string    `json:"notes"`
	ReminderTime  string     `json:"reminderTime"`
	RepeatDays    []string   `json:"repeatDays"`
	TargetCount   int32      `json:"targetCount"`
	IsPublic      bool       `json:"isPublic"`
	Status        string     `json:"status"`
	HabitStreak   int32      `json:"habitStreak"`
	LastCompleted *time.Time `json:"lastCompleted"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toHabitResponse(h *entity.Habit) habitResponse {
	return habitResponse{
		ID:            h.ID.String(),
		Title:         h.Title,
		Icon:          h.Icon,
		Notes:         h.Notes,
		ReminderTime:  h.ReminderTime,
		RepeatDays:    h.RepeatDays,
		TargetCount:   h.TargetCount,
		IsPublic:      h.IsPublic,
		Status:        string(h.Status),
		HabitStreak:   h.HabitStreak,
		LastCompleted: h.LastCompleted,
		CreatedAt:     h.CreatedAt,
		UpdatedAt:     h.UpdatedAt,
	}
}

func toHabitResponses(habits []*entity.Habit) []habitResponse {
	out := make([]habitResponse, 0, len(habits))
	for _, h := range habits {
		out = append(out, toHabitResponse(h))
	}
	return out
}

type notificationResponse struct {
	ID           string    `json:"id"`
	HabitID      string    `json:"habitId"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	ScheduledFor time.Time `json:"scheduledFor"`
	IsRead       bool      `json:"isRead"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toNotificationResponse(n *entity.Notification) notificationResponse {
	return notificationResponse{
		ID:           n.ID.String(),
		HabitID:      n.HabitID.String(),
		Title:        n.Title,
		Message:      n.Message,
		Type:         string(n.Type),
		Status:       string(n.Status),
		ScheduledFor: n.ScheduledFor,
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
	}
}

func toNotificationResponses(notifications []*entity.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, toNotificationResponse(n))
	}
	return out
}
