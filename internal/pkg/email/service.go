package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

type Service struct {
	config    *Config
	templates map[string]*template.Template
}

type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	FromName     string
	UseTLS       bool
	UseSTARTTLS  bool
	FrontendURL  string
}

type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
	Headers  map[string]string
	ReplyTo  string
}

type TemplateData map[string]interface{}

func NewService(config *Config) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	s.loadBuiltinTemplates()
	return s
}

func (s *Service) loadBuiltinTemplates() {
	templates := map[string]string{
		"report_delivery": reportDeliveryTemplate,
		"task_digest":     taskDigestTemplate,
	}

	for name, content := range templates {
		tmpl, err := template.New(name).Parse(content)
		if err == nil {
			s.templates[name] = tmpl
		}
	}
}

func (s *Service) Send(ctx context.Context, email *Email) error {
	msg := s.buildMessage(email)

	var auth smtp.Auth
	if s.config.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUser, s.config.SMTPPassword, s.config.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	if s.config.UseTLS {
		return s.sendWithTLS(addr, auth, email.To, msg)
	}

	if s.config.UseSTARTTLS {
		return s.sendWithSTARTTLS(addr, auth, email.To, msg)
	}

	return smtp.SendMail(addr, auth, s.config.FromEmail, email.To, msg)
}

func (s *Service) sendWithTLS(addr string, auth smtp.Auth, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: s.config.SMTPHost,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return err
		}
	}

	return s.transmit(client, to, msg)
}

func (s *Service) sendWithSTARTTLS(addr string, auth smtp.Auth, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName: s.config.SMTPHost,
	}

	if err = client.StartTLS(tlsConfig); err != nil {
		return err
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return err
		}
	}

	return s.transmit(client, to, msg)
}

func (s *Service) transmit(client *smtp.Client, to []string, msg []byte) error {
	if err := client.Mail(s.config.FromEmail); err != nil {
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err = w.Write(msg); err != nil {
		return err
	}

	if err = w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func (s *Service) buildMessage(email *Email) []byte {
	var buf bytes.Buffer

	from := s.config.FromEmail
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}

	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))

	if email.ReplyTo != "" {
		buf.WriteString(fmt.Sprintf("Reply-To: %s\r\n", email.ReplyTo))
	}

	for k, v := range email.Headers {
		buf.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}

	if email.HTMLBody != "" {
		altBoundary := "===============ALT==============="
		buf.WriteString("MIME-Version: 1.0\r\n")
		buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", altBoundary))

		if email.Body != "" {
			buf.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
			buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
			buf.WriteString(email.Body)
			buf.WriteString("\r\n")
		}

		buf.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
		buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
		buf.WriteString(email.HTMLBody)
		buf.WriteString("\r\n")

		buf.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))
	} else {
		buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
		buf.WriteString(email.Body)
	}

	return buf.Bytes()
}

func (s *Service) SendTemplate(ctx context.Context, templateName string, to []string, subject string, data TemplateData) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template %s not found", templateName)
	}

	var htmlBuf bytes.Buffer
	if err := tmpl.Execute(&htmlBuf, data); err != nil {
		return err
	}

	email := &Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBuf.String(),
	}

	return s.Send(ctx, email)
}

// SendReport delivers one generated report to one recipient.
func (s *Service) SendReport(ctx context.Context, to, name, title, content, frequency string) error {
	subject := title
	if subject == "" {
		subject = "Your scheduled report"
	}

	return s.SendTemplate(ctx, "report_delivery", []string{to}, subject, TemplateData{
		"Name":        name,
		"Title":       title,
		"Content":     template.HTML(formatParagraphs(content)),
		"Frequency":   frequency,
		"AppName":     "RocketHub",
		"ReportsURL":  s.config.FrontendURL + "/reports",
		"GeneratedAt": time.Now().Format(time.RFC1123),
	})
}

// SendTaskDigest delivers a scheduled task result by email.
func (s *Service) SendTaskDigest(ctx context.Context, to, name, title, content string) error {
	subject := title
	if subject == "" {
		subject = "Your scheduled task has run"
	}

	return s.SendTemplate(ctx, "task_digest", []string{to}, subject, TemplateData{
		"Name":    name,
		"Title":   title,
		"Content": template.HTML(formatParagraphs(content)),
		"AppName": "RocketHub",
		"ChatURL": s.config.FrontendURL + "/chat",
	})
}

func formatParagraphs(content string) string {
	escaped := template.HTMLEscapeString(content)
	paragraphs := strings.Split(escaped, "\n\n")
	for i, p := range paragraphs {
		paragraphs[i] = "<p>" + strings.ReplaceAll(p, "\n", "<br>") + "</p>"
	}
	return strings.Join(paragraphs, "\n")
}
