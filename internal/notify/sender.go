package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"designcraft/internal/config"
	"designcraft/internal/logger"

	"gopkg.in/gomail.v2"
)

// Message - письмо для отправки.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender отправляет письма.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender возвращает SMTP-отправителя или, при пустом хосте, отправителя только в лог.
func NewSender(cfg *config.MailConfig, log *logger.Logger) Sender {
	if strings.TrimSpace(cfg.Host) == "" {
		log.Warn("SMTP host is not configured, emails will only be logged")
		return NewLogSender(log)
	}
	return NewSMTPSender(cfg, log)
}

// dialer выделен для подмены в тестах.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender отправляет письма через SMTP с помощью gomail.
type SMTPSender struct {
	dialer dialer
	from   string
	log    *logger.Logger
}

// NewSMTPSender создаёт SMTP-отправителя.
func NewSMTPSender(cfg *config.MailConfig, log *logger.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		log:    log,
	}
}

// Send отправляет письмо. Соединение открывается на каждое письмо.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	s.log.WithFields(map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Debug("Email sent")
	return nil
}

// LogSender пишет письма в лог вместо отправки.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender создаёт отправителя только в лог.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	s.log.WithFields(map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email delivery skipped (log-only sender)")
	return nil
}

func validateMessage(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("email recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return errors.New("email subject is required")
	}
	return nil
}
