// Package services отправляет письма читателям по сообщениям из очереди уведомлений.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/magabrotheeeer/glanceread/internal/config"
	"github.com/magabrotheeeer/glanceread/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/glanceread/internal/models"
)

const welcomeSubject = "Welcome to GlanceRead! Your 7-day premium trial is active"

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #4F46E5;">Welcome to GlanceRead, {{.Username}}!</h2>
  <p>You have <strong>7 days of premium access</strong>, until {{.TrialExpiry}}. Read as much as you can!</p>
  <div style="background-color: #F3F4F6; padding: 15px; border-radius: 8px; margin: 20px 0;">
    <p style="margin: 0; font-weight: bold;">Invite friends and get a free month for each of them:</p>
    <p style="margin: 5px 0 0 0; color: #4F46E5;">Your code: {{.ReferralCode}}</p>
  </div>
  <a href="{{.SiteURL}}" style="display: inline-block; background-color: #4F46E5; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Start reading now</a>
</div>`))

// Mailer отправляет готовые письма; *gomail.Dialer удовлетворяет интерфейсу.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SenderService формирует и отправляет письма.
type SenderService struct {
	mailer  Mailer
	from    string
	siteURL string
	log     *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService. При пустом cfg.Host
// письма не отправляются, а только пишутся в лог.
func NewSenderService(cfg config.SMTP, log *slog.Logger) *SenderService {
	var mailer Mailer
	if cfg.Host != "" {
		mailer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return newSenderService(mailer, cfg, log)
}

func newSenderService(mailer Mailer, cfg config.SMTP, log *slog.Logger) *SenderService {
	return &SenderService{
		mailer:  mailer,
		from:    cfg.From,
		siteURL: cfg.SiteURL,
		log:     log,
	}
}

// HandleWelcome обработчик очереди welcome. Некорректное сообщение отбрасывается,
// ошибка отправки возвращает его в очередь.
func (s *SenderService) HandleWelcome(_ context.Context, body []byte) error {
	const op = "services.sender.HandleWelcome"

	var msg models.WelcomeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDiscard, err)
	}
	if msg.Email == "" {
		return fmt.Errorf("%s: %w: empty recipient", op, rabbitmq.ErrDiscard)
	}

	html, err := s.renderWelcome(msg)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDiscard, err)
	}

	if err := s.send(msg.Email, welcomeSubject, html); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SenderService) renderWelcome(msg models.WelcomeMessage) (string, error) {
	var buf bytes.Buffer
	err := welcomeTemplate.Execute(&buf, map[string]string{
		"Username":     msg.Username,
		"ReferralCode": msg.ReferralCode,
		"TrialExpiry":  msg.TrialExpiry.Format("January 2, 2006"),
		"SiteURL":      s.siteURL,
	})
	return buf.String(), err
}

func (s *SenderService) send(to, subject, body string) error {
	if s.mailer == nil {
		s.log.Info("smtp is not configured, email skipped", slog.String("to", to), slog.String("subject", subject))
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.mailer.DialAndSend(m); err != nil {
		return err
	}
	s.log.Info("email sent successfully", slog.String("to", to))
	return nil
}
