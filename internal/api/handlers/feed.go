package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RocketHubAI/rocket-dispatch/internal/api/dto"
	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
	"github.com/RocketHubAI/rocket-dispatch/internal/domain/repositories"
)

// MessageFeed reads a user's visible delivered messages.
type MessageFeed interface {
	FindVisible(ctx context.Context, userID uuid.UUID, channel string, opts *repositories.ListOptions) ([]models.ChatMessage, int64, error)
}

// NotificationFeed reads a user's unread notification rows.
type NotificationFeed interface {
	FindUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
}

// ExecutionHistory reads the audit trail of one scheduled task.
type ExecutionHistory interface {
	FindByTaskID(ctx context.Context, taskID uuid.UUID, opts *repositories.ListOptions) ([]models.TaskExecution, int64, error)
}

// FeedHandler serves the read side of dispatch output to the main app:
// delivered messages with pre-generated content hidden until its
// deliver_at passes, and unread notifications.
type FeedHandler struct {
	messages      MessageFeed
	notifications NotificationFeed
	executions    ExecutionHistory
}

func NewFeedHandler(messages MessageFeed, notifications NotificationFeed, executions ExecutionHistory) *FeedHandler {
	return &FeedHandler{messages: messages, notifications: notifications, executions: executions}
}

// Messages lists a user's visible feed for one channel.
// GET /internal/users/{userID}/messages?channel=&page=&per_page=
func (h *FeedHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		dto.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	channel := r.URL.Query().Get("channel")
	switch channel {
	case "":
		channel = models.ChannelConversation
	case models.ChannelConversation, models.ChannelReports:
	default:
		dto.WriteError(w, http.StatusBadRequest, "invalid channel")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	opts := repositories.NewListOptions(page, perPage)

	messages, total, err := h.messages.FindVisible(r.Context(), userID, channel, opts)
	if err != nil {
		dto.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dto.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    messages,
		"total":   total,
	})
}

// UnreadNotifications lists a user's unread notification rows.
// GET /internal/users/{userID}/notifications/unread
func (h *FeedHandler) UnreadNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		dto.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	notifications, err := h.notifications.FindUnread(r.Context(), userID)
	if err != nil {
		dto.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dto.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    notifications,
	})
}

// Executions lists a task's dispatch attempts, newest first.
// GET /internal/tasks/{taskID}/executions?page=&per_page=
func (h *FeedHandler) Executions(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		dto.WriteError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	opts := repositories.NewListOptions(page, perPage)

	executions, total, err := h.executions.FindByTaskID(r.Context(), taskID, opts)
	if err != nil {
		dto.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dto.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    executions,
		"total":   total,
	})
}
