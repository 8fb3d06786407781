package http

import (
	"errors"
	"net/http"
	"strconv"

	"habit-service/internal/apperr"
	"habit-service/internal/domain/entity"
	"habit-service/internal/domain/service"
	"habit-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// userIDHeader carries the caller's identity; authentication is handled
// upstream of this service.
const userIDHeader = "X-User-ID"

type Handler struct {
	habits    service.HabitService
	streaks   service.StreakService
	reminders service.ReminderService
	feasible  service.FeasibilityService
	log       *logger.Logger
}

func NewHandler(
	habits service.HabitService,
	streaks service.StreakService,
	reminders service.ReminderService,
	feasible service.FeasibilityService,
	log *logger.Logger,
) *Handler {
	return &Handler{
		habits:    habits,
		streaks:   streaks,
		reminders: reminders,
		feasible:  feasible,
		log:       log,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api/v1")
	{
		habits := api.Group("/habits")
		{
			habits.POST("", h.createHabit)
			habits.GET("", h.listHabits)
			habits.GET("/today", h.getActiveToday)
			habits.POST("/feasibility", h.checkFeasibility)
			habits.GET("/:id", h.getHabit)
			habits.PUT("/:id", h.updateHabit)
			habits.DELETE("/:id", h.deleteHabit)
			habits.PATCH("/:id/status", h.setStatus)
			habits.GET("/:id/history", h.getCompletionHistory)
		}

		api.GET("/users/:userId/public-habits", h.getPublicHabits)
		api.GET("/analytics/performance", h.getPerformanceAnalytics)
		api.POST("/vacation", h.setVacation)
		api.POST("/push-subscriptions", h.savePushSubscription)

		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.listNotifications)
			notifications.PATCH("/:id/read", h.markNotificationRead)
			notifications.DELETE("/:id", h.deleteNotification)
		}
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createHabitRequest struct {
	Title        string   `json:"title" binding:"required"`
	Icon         *string  `json:"icon"`
	Notes        *string  `json:"notes"`
	ReminderTime string   `json:"reminderTime" binding:"required"`
	RepeatDays   []string `json:"repeatDays"`
	TargetCount  int32    `json:"targetCount"`
	IsPublic     bool     `json:"isPublic"`
	TimeZone     string   `json:"timeZone"`
}

func (h *Handler) createHabit(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, verdict, err := h.habits.CreateHabit(c.Request.Context(), userID, service.CreateHabitInput{
		Title:        req.Title,
		Icon:         req.Icon,
		Notes:        req.Notes,
		ReminderTime: req.ReminderTime,
		RepeatDays:   req.RepeatDays,
		TargetCount:  req.TargetCount,
		IsPublic:     req.IsPublic,
		TimeZone:     req.TimeZone,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) && verdict != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":       verdict.Message,
				"feasibility": verdict,
			})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"habit":       toHabitResponse(habit),
		"feasibility": verdict,
	})
}

func (h *Handler) listHabits(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	habits, err := h.habits.ListHabits(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habits": toHabitResponses(habits)})
}

func (h *Handler) getActiveToday(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	habits, err := h.habits.GetActiveToday(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habits": toHabitResponses(habits)})
}

func (h *Handler) getHabit(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	habitID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	habit, err := h.habits.GetHabit(c.Request.Context(), habitID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": toHabitResponse(habit)})
}

type updateHabitRequest struct {
	Title        *string  `json:"title"`
	Icon         *string  `json:"icon"`
	Notes        *string  `json:"notes"`
	ReminderTime *string  `json:"reminderTime"`
	RepeatDays   []string `json:"repeatDays"`
	TargetCount  *int32   `json:"targetCount"`
	IsPublic     *bool    `json:"isPublic"`
}

func (h *Handler) updateHabit(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	habitID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.habits.UpdateHabit(c.Request.Context(), habitID, userID, service.UpdateHabitInput{
		Title:        req.Title,
		Icon:         req.Icon,
		Notes:        req.Notes,
		ReminderTime: req.ReminderTime,
		RepeatDays:   req.RepeatDays,
		TargetCount:  req.TargetCount,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": toHabitResponse(habit)})
}

func (h *Handler) deleteHabit(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	habitID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.habits.DeleteHabit(c.Request.Context(), habitID, userID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) setStatus(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	habitID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.habits.SetStatus(c.Request.Context(), habitID, userID, entity.HabitStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": toHabitResponse(habit)})
}

func (h *Handler) getCompletionHistory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	habitID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	history, err := h.habits.GetCompletionHistory(c.Request.Context(), habitID, userID, h.queryInt(c, "days", 180))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *Handler) getPublicHabits(c *gin.Context) {
	targetID, ok := h.pathID(c, "userId")
	if !ok {
		return
	}

	habits, err := h.habits.GetPublicHabits(c.Request.Context(), targetID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

func (h *Handler) getPerformanceAnalytics(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	stats, err := h.habits.GetPerformanceAnalytics(c.Request.Context(), userID, h.queryInt(c, "days", 90))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

type feasibilityRequest struct {
	Title        string   `json:"title" binding:"required"`
	Notes        string   `json:"notes"`
	ReminderTime string   `json:"reminderTime"`
	RepeatDays   []string `json:"repeatDays"`
	TargetCount  int32    `json:"targetCount"`
}

func (h *Handler) checkFeasibility(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req feasibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verdict := h.feasible.Evaluate(c.Request.Context(), userID, service.ProposedHabit{
		Title:        req.Title,
		Notes:        req.Notes,
		ReminderTime: req.ReminderTime,
		RepeatDays:   req.RepeatDays,
		TargetCount:  req.TargetCount,
	})

	c.JSON(http.StatusOK, verdict)
}

type vacationRequest struct {
	On bool `json:"on"`
}

func (h *Handler) setVacation(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req vacationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.streaks.SetVacation(c.Request.Context(), userID, req.On); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vacation": req.On})
}

type pushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *Handler) savePushSubscription(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req pushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reminders.SavePushSubscription(c.Request.Context(), userID, req.Endpoint); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

func (h *Handler) listNotifications(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	limit := int32(h.queryInt(c, "limit", 50))
	offset := int32(h.queryInt(c, "offset", 0))

	notifications, err := h.reminders.ListNotifications(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": toNotificationResponses(notifications)})
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	notification, err := h.reminders.MarkRead(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notification": toNotificationResponse(notification)})
}

func (h *Handler) deleteNotification(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.reminders.DeleteNotification(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) userID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader(userIDHeader)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + userIDHeader + " header"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + userIDHeader + " header"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
