package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
	"github.com/RocketHubAI/rocket-dispatch/internal/domain/repositories"
)

type fakeMessageFeed struct {
	messages    []models.ChatMessage
	lastChannel string
	lastOpts    *repositories.ListOptions
}

func (f *fakeMessageFeed) FindVisible(_ context.Context, _ uuid.UUID, channel string, opts *repositories.ListOptions) ([]models.ChatMessage, int64, error) {
	f.lastChannel = channel
	f.lastOpts = opts
	return f.messages, int64(len(f.messages)), nil
}

type fakeNotificationFeed struct {
	notifications []models.Notification
}

func (f *fakeNotificationFeed) FindUnread(context.Context, uuid.UUID) ([]models.Notification, error) {
	return f.notifications, nil
}

type fakeExecHistory struct {
	executions []models.TaskExecution
}

func (f *fakeExecHistory) FindByTaskID(_ context.Context, _ uuid.UUID, _ *repositories.ListOptions) ([]models.TaskExecution, int64, error) {
	return f.executions, int64(len(f.executions)), nil
}

func feedRouter(h *FeedHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/internal/users/{userID}/messages", h.Messages)
	r.Get("/internal/users/{userID}/notifications/unread", h.UnreadNotifications)
	r.Get("/internal/tasks/{taskID}/executions", h.Executions)
	return r
}

func TestMessagesDefaultsToConversationChannel(t *testing.T) {
	mf := &fakeMessageFeed{messages: []models.ChatMessage{{Content: "hello"}}}
	h := NewFeedHandler(mf, &fakeNotificationFeed{}, &fakeExecHistory{})

	req := httptest.NewRequest(http.MethodGet, "/internal/users/"+uuid.NewString()+"/messages", nil)
	rec := httptest.NewRecorder()
	feedRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ChannelConversation, mf.lastChannel)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["total"])
}

func TestMessagesReportsChannelAndPaging(t *testing.T) {
	mf := &fakeMessageFeed{}
	h := NewFeedHandler(mf, &fakeNotificationFeed{}, &fakeExecHistory{})

	req := httptest.NewRequest(http.MethodGet,
		"/internal/users/"+uuid.NewString()+"/messages?channel=reports&page=3&per_page=10", nil)
	rec := httptest.NewRecorder()
	feedRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ChannelReports, mf.lastChannel)
	require.NotNil(t, mf.lastOpts)
	assert.Equal(t, 20, mf.lastOpts.Offset)
	assert.Equal(t, 10, mf.lastOpts.Limit)
}

func TestMessagesRejectsUnknownChannel(t *testing.T) {
	h := NewFeedHandler(&fakeMessageFeed{}, &fakeNotificationFeed{}, &fakeExecHistory{})

	req := httptest.NewRequest(http.MethodGet,
		"/internal/users/"+uuid.NewString()+"/messages?channel=dms", nil)
	rec := httptest.NewRecorder()
	feedRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessagesRejectsBadUserID(t *testing.T) {
	h := NewFeedHandler(&fakeMessageFeed{}, &fakeNotificationFeed{}, &fakeExecHistory{})

	req := httptest.NewRequest(http.MethodGet, "/internal/users/not-a-uuid/messages", nil)
	rec := httptest.NewRecorder()
	feedRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnreadNotifications(t *testing.T) {
	nf := &fakeNotificationFeed{notifications: []models.Notification{{Title: "Reminder"}}}
	h := NewFeedHandler(&fakeMessageFeed{}, nf, &fakeExecHistory{})

	req := httptest.NewRequest(http.MethodGet,
		"/internal/users/"+uuid.NewString()+"/notifications/unread", nil)
	rec := httptest.NewRecorder()
	feedRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                  `json:"success"`
		Data    []models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Reminder", body.Data[0].Title)
}

func TestExecutionsHistory(t *testing.T) {
	eh := &fakeExecHistory{executions: []models.TaskExecution{
		{Status: models.ExecutionStatusSuccess},
		{Status: models.ExecutionStatusFailed},
	}}
	h := NewFeedHandler(&fakeMessageFeed{}, &fakeNotificationFeed{}, eh)

	req := httptest.NewRequest(http.MethodGet,
		"/internal/tasks/"+uuid.NewString()+"/executions", nil)
	rec := httptest.NewRecorder()
	feedRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body["total"])
}
