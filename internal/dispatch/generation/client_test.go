package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"raw text", "Weekly pipeline summary.", "Weekly pipeline summary."},
		{"json string", `"Quoted content"`, "Quoted content"},
		{"output field", `{"output":"From output"}`, "From output"},
		{"response field", `{"response":"From response"}`, "From response"},
		{"text field", `{"text":"From text"}`, "From text"},
		{"message field", `{"message":"From message"}`, "From message"},
		{"output wins over message", `{"message":"second","output":"first"}`, "first"},
		{"object without text keys", `{"status":"ok","code":200}`, ""},
		{"whitespace only", "   \n  ", ""},
		{"empty body", "", ""},
		{"trims result", `{"output":"  padded  "}`, "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractContent([]byte(tt.body)))
		})
	}
}

func TestWebhookGeneratorSendsAuthAndContext(t *testing.T) {
	var got map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"output": "generated report"})
	}))
	defer srv.Close()

	g := NewWebhookGenerator(srv.URL, "secret-token", 5*time.Second, 600)
	teamID := uuid.New()
	content, err := g.Generate(context.Background(), Request{
		Prompt:   "Summarize the week",
		UserID:   uuid.New(),
		TeamID:   &teamID,
		Source:   "scheduled_report",
		TeamName: "Sales",
	})

	require.NoError(t, err)
	assert.Equal(t, "generated report", content)
	assert.Equal(t, "Bearer secret-token", auth)
	assert.Equal(t, "Summarize the week", got["chatInput"])
	assert.Equal(t, "scheduled_report", got["source"])
	assert.Equal(t, "Sales", got["team_name"])
}

func TestWebhookGeneratorEmptyContentIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	}))
	defer srv.Close()

	g := NewWebhookGenerator(srv.URL, "", 5*time.Second, 600)
	_, err := g.Generate(context.Background(), Request{Prompt: "x", Source: "scheduled_task"})
	assert.Error(t, err)
}

func TestWebhookGeneratorNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewWebhookGenerator(srv.URL, "", 5*time.Second, 600)
	_, err := g.Generate(context.Background(), Request{Prompt: "x", Source: "scheduled_task"})
	assert.Error(t, err)
}
