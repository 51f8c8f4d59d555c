package email

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"cinema-agent/internal/models"
	"cinema-agent/shared/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"join": strings.Join,
	"add":  func(a, b int) int { return a + b },
	"nowAvailable": func(kind models.ChangeKind) bool {
		return kind == models.ChangeNowAvailable
	},
}).ParseFS(templateFS, "templates/*.html"))

type Sender struct {
	config *config.EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

func (s *Sender) SendRecommendations(report *models.RecommendationReport) error {
	if report == nil {
		return errors.New("report cannot be nil")
	}
	if len(report.Recommendations) == 0 {
		return nil // Nothing worth mailing
	}

	subject := fmt.Sprintf("Movie Night - %d Picks Streaming in %s (%s)",
		len(report.Recommendations), report.Region, report.Date.Format("Jan 2, 2006"))

	body, err := RenderRecommendations(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}
	return s.SendHTML(subject, body)
}

func (s *Sender) SendAvailability(report *models.AvailabilityReport) error {
	if report == nil {
		return errors.New("report cannot be nil")
	}
	if len(report.Changes) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Watchlist Update - %d Streaming Changes (%s)",
		len(report.Changes), report.Date.Format("Jan 2, 2006"))

	body, err := RenderAvailability(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}
	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return s.send(addr, auth, s.config.FromEmail, to, msg)
}

func RenderRecommendations(report *models.RecommendationReport) (string, error) {
	return render("recommendations.html", report)
}

func RenderAvailability(report *models.AvailabilityReport) (string, error) {
	return render("availability.html", report)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
