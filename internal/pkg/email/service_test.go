package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParagraphs(t *testing.T) {
	out := formatParagraphs("first line\nsecond line\n\nnext paragraph")
	assert.Equal(t, "<p>first line<br>second line</p>\n<p>next paragraph</p>", out)
}

func TestFormatParagraphsEscapesHTML(t *testing.T) {
	out := formatParagraphs("<script>alert(1)</script>")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestBuildMessagePlainText(t *testing.T) {
	s := NewService(&Config{FromEmail: "no-reply@rockethub.ai", FromName: "RocketHub"})
	msg := string(s.buildMessage(&Email{
		To:      []string{"a@x.com"},
		Subject: "Weekly Summary",
		Body:    "hello",
	}))

	assert.Contains(t, msg, "From: RocketHub <no-reply@rockethub.ai>\r\n")
	assert.Contains(t, msg, "To: a@x.com\r\n")
	assert.Contains(t, msg, "Subject: Weekly Summary\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain")
	assert.True(t, strings.HasSuffix(msg, "hello"))
}

func TestBuildMessageMultipartAlternative(t *testing.T) {
	s := NewService(&Config{FromEmail: "no-reply@rockethub.ai"})
	msg := string(s.buildMessage(&Email{
		To:       []string{"a@x.com"},
		Subject:  "Weekly Summary",
		Body:     "plain",
		HTMLBody: "<p>rich</p>",
	}))

	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "text/plain")
	assert.Contains(t, msg, "text/html")
	assert.Contains(t, msg, "<p>rich</p>")
}

func TestBuiltinTemplatesParse(t *testing.T) {
	s := NewService(&Config{FromEmail: "no-reply@rockethub.ai"})
	require.Contains(t, s.templates, "report_delivery")
	require.Contains(t, s.templates, "task_digest")
}
