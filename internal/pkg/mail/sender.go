package mail

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2/log"
)

var ErrInvalidRecipient = errors.New("invalid email recipient")

// Sender sends transactional emails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message represents an email to send.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.Port != ""
}

// SMTPSender sends emails via SMTP
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.From == "" {
		cfg.From = "no-reply@localhost"
		log.Warnf("[Mail] SMTP_SENDER not set, using default sender: %s", cfg.From)
	}
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" || strings.ContainsAny(msg.To, "\r\n") {
		return ErrInvalidRecipient
	}
	from := msg.From
	if from == "" {
		from = s.cfg.From
	}

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	subject := strings.NewReplacer("\r", " ", "\n", " ").Replace(msg.Subject)
	body := msg.HTML
	if body == "" {
		body = msg.Text
	}
	raw := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", from, msg.To, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	if err := s.sendMail(addr, auth, from, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	log.Debugf("[Mail] sent %q to %s via %s", subject, msg.To, addr)
	return nil
}

// LogSender logs emails instead of sending them. Used when SMTP is not configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	log.Infof("[Mail] SMTP not configured, skipped %q to %s", msg.Subject, msg.To)
	return nil
}

// NewSender returns an SMTP sender when configured and a LogSender otherwise.
func NewSender(cfg SMTPConfig) Sender {
	if cfg.IsConfigured() {
		return NewSMTPSender(cfg)
	}
	return LogSender{}
}

// MemorySender records messages in memory. Recipients listed in Fail are rejected.
type MemorySender struct {
	mu   sync.Mutex
	sent []Message
	Fail map[string]error
}

func (m *MemorySender) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Fail[msg.To]; ok {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *MemorySender) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
