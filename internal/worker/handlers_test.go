package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/queue"
)

type fakeMailer struct {
	reports int
	digests int
	err     error
}

func (f *fakeMailer) SendReport(context.Context, string, string, string, string, string) error {
	f.reports++
	return f.err
}

func (f *fakeMailer) SendTaskDigest(context.Context, string, string, string, string) error {
	f.digests++
	return f.err
}

type fakeUsers struct {
	user *models.User
	err  error
}

func (f *fakeUsers) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	return f.user, f.err
}

func emailTask(t *testing.T, p queue.ReportEmailPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeReportEmail, data)
}

func TestEmailHandlerSendsReport(t *testing.T) {
	mailer := &fakeMailer{}
	users := &fakeUsers{user: &models.User{EmailNotifications: true}}
	h := NewEmailHandler(mailer, users, zerolog.Nop())

	reportID := uuid.New()
	err := h.ProcessTask(context.Background(), emailTask(t, queue.ReportEmailPayload{
		ReportID:      &reportID,
		ChatMessageID: uuid.New(),
		UserID:        uuid.New(),
		UserEmail:     "a@x.com",
		Title:         "Weekly",
		Content:       "body",
		Frequency:     "weekly",
	}))

	require.NoError(t, err)
	assert.Equal(t, 1, mailer.reports)
	assert.Zero(t, mailer.digests)
}

func TestEmailHandlerSendsTaskDigestWithoutReportID(t *testing.T) {
	mailer := &fakeMailer{}
	users := &fakeUsers{user: &models.User{EmailNotifications: true}}
	h := NewEmailHandler(mailer, users, zerolog.Nop())

	err := h.ProcessTask(context.Background(), emailTask(t, queue.ReportEmailPayload{
		ChatMessageID: uuid.New(),
		UserID:        uuid.New(),
		UserEmail:     "a@x.com",
		Title:         "Check-in",
		Content:       "body",
	}))

	require.NoError(t, err)
	assert.Equal(t, 1, mailer.digests)
}

func TestEmailHandlerSkipsOptedOutRecipient(t *testing.T) {
	mailer := &fakeMailer{}
	users := &fakeUsers{user: &models.User{EmailNotifications: false}}
	h := NewEmailHandler(mailer, users, zerolog.Nop())

	err := h.ProcessTask(context.Background(), emailTask(t, queue.ReportEmailPayload{
		ChatMessageID: uuid.New(),
		UserID:        uuid.New(),
		UserEmail:     "a@x.com",
	}))

	require.NoError(t, err)
	assert.Zero(t, mailer.reports)
	assert.Zero(t, mailer.digests)
}

func TestEmailHandlerSendsWhenLookupFails(t *testing.T) {
	// An unresolvable user row must not suppress the email.
	mailer := &fakeMailer{}
	users := &fakeUsers{err: errors.New("gone")}
	h := NewEmailHandler(mailer, users, zerolog.Nop())

	err := h.ProcessTask(context.Background(), emailTask(t, queue.ReportEmailPayload{
		ChatMessageID: uuid.New(),
		UserID:        uuid.New(),
		UserEmail:     "a@x.com",
	}))

	require.NoError(t, err)
	assert.Equal(t, 1, mailer.digests)
}

func TestEmailHandlerPropagatesSendFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	users := &fakeUsers{user: &models.User{EmailNotifications: true}}
	h := NewEmailHandler(mailer, users, zerolog.Nop())

	err := h.ProcessTask(context.Background(), emailTask(t, queue.ReportEmailPayload{
		ChatMessageID: uuid.New(),
		UserID:        uuid.New(),
		UserEmail:     "a@x.com",
	}))

	assert.Error(t, err)
}

func TestEmailHandlerMalformedPayloadSkipsRetry(t *testing.T) {
	h := NewEmailHandler(&fakeMailer{}, &fakeUsers{}, zerolog.Nop())
	err := h.ProcessTask(context.Background(), asynq.NewTask(queue.TypeReportEmail, []byte("{bad")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestVisualizationHandlerPostsPayload(t *testing.T) {
	var got queue.VisualizationPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewVisualizationHandler(srv.URL, "render-token", zerolog.Nop())
	msgID := uuid.New()
	data, err := json.Marshal(queue.VisualizationPayload{ChatMessageID: msgID, ReportContent: "chart data"})
	require.NoError(t, err)

	err = h.ProcessTask(context.Background(), asynq.NewTask(queue.TypeVisualization, data))
	require.NoError(t, err)
	assert.Equal(t, msgID, got.ChatMessageID)
	assert.Equal(t, "Bearer render-token", auth)
}

func TestVisualizationHandlerUnconfiguredIsNoop(t *testing.T) {
	h := NewVisualizationHandler("", "", zerolog.Nop())
	err := h.ProcessTask(context.Background(), asynq.NewTask(queue.TypeVisualization, []byte("{}")))
	assert.NoError(t, err)
}

func TestVisualizationHandlerNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "renderer busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h := NewVisualizationHandler(srv.URL, "", zerolog.Nop())
	data, _ := json.Marshal(queue.VisualizationPayload{ChatMessageID: uuid.New()})
	err := h.ProcessTask(context.Background(), asynq.NewTask(queue.TypeVisualization, data))
	assert.Error(t, err)
}
