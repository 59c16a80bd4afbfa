// Package generation calls the external content generation webhook and
// normalizes whatever shape it answers with into plain text.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/httpclient"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/metrics"
)

// Request carries the prompt plus the enrichment context for one call.
type Request struct {
	Prompt        string     `json:"chatInput"`
	UserID        uuid.UUID  `json:"user_id"`
	TeamID        *uuid.UUID `json:"team_id,omitempty"`
	Source        string     `json:"source"`
	UserName      string     `json:"user_name,omitempty"`
	UserEmail     string     `json:"user_email,omitempty"`
	TeamName      string     `json:"team_name,omitempty"`
	AssistantName string     `json:"assistant_name,omitempty"`
	Priorities    []string   `json:"priorities,omitempty"`
	Skills        []string   `json:"skills,omitempty"`
}

// Generator produces content for one dispatch item. Implementations
// must treat an empty result as a failure signal, never as content.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// WebhookGenerator posts to an external automation webhook, paced by a
// shared rate limiter so bursts of due items don't stampede the
// upstream pipeline.
type WebhookGenerator struct {
	url     string
	token   string
	timeout time.Duration
	client  *httpclient.PooledClient
	limiter *rate.Limiter
}

func NewWebhookGenerator(url, token string, timeout time.Duration, callsPerMin int) *WebhookGenerator {
	if callsPerMin <= 0 {
		callsPerMin = 4
	}
	return &WebhookGenerator{
		url:     url,
		token:   token,
		timeout: timeout,
		client:  httpclient.Default(),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(callsPerMin)), 1),
	}
}

func (g *WebhookGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("generation pacing: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.token)
	}

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	metrics.GenerationDuration.WithLabelValues(req.Source).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationCallsTotal.WithLabelValues(req.Source, "error").Inc()
		return "", fmt.Errorf("generation call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		metrics.GenerationCallsTotal.WithLabelValues(req.Source, "error").Inc()
		return "", fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.GenerationCallsTotal.WithLabelValues(req.Source, "error").Inc()
		return "", fmt.Errorf("generation webhook returned %d", resp.StatusCode)
	}

	content := ExtractContent(body)
	if content == "" {
		metrics.GenerationCallsTotal.WithLabelValues(req.Source, "empty").Inc()
		return "", fmt.Errorf("generation webhook returned no usable content")
	}

	metrics.GenerationCallsTotal.WithLabelValues(req.Source, "ok").Inc()
	return content, nil
}

// ExtractContent pulls text out of the webhook response. Automation
// pipelines answer with raw text, a bare JSON string, or an object
// keyed by output, response, text or message; the first non-empty form
// wins.
func ExtractContent(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, key := range []string{"output", "response", "text", "message", "content"} {
			if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	var str string
	if err := json.Unmarshal(body, &str); err == nil {
		return strings.TrimSpace(str)
	}

	return trimmed
}

// Static returns fixed content; tests use it to stand in for the
// webhook.
type Static struct {
	Content string
	Err     error
	Calls   int
}

func (s *Static) Generate(context.Context, Request) (string, error) {
	s.Calls++
	if s.Err != nil {
		return "", s.Err
	}
	return s.Content, nil
}
