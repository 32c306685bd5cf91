// Package mailer sends transactional mail for the directory: one-time
// verification codes for login and PIN reset.
package mailer

import (
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Email is a fully rendered message ready to send.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers rendered email. The OTP service depends on this interface
// so tests can capture outgoing mail without an SMTP server.
type Sender interface {
	Send(email Email) error
}

// SMTPConfig holds connection settings for the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// SMTP sends mail through an SMTP server using gomail.
type SMTP struct {
	cfg SMTPConfig
	log *zap.Logger
}

// NewSMTP creates an SMTP sender. The dialer connects per message, which is
// fine at OTP volumes.
func NewSMTP(cfg SMTPConfig, log *zap.Logger) *SMTP {
	return &SMTP{cfg: cfg, log: log}
}

// Send delivers one message.
func (s *SMTP) Send(email Email) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.TextBody)
	if email.HTMLBody != "" {
		m.AddAlternative("text/html", email.HTMLBody)
	}

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", email.To, err)
	}

	s.log.Debug("mail sent",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
	)
	return nil
}

// LogOnly is a Sender that logs instead of sending. Used in development when
// no SMTP server is configured.
type LogOnly struct {
	Log *zap.Logger
}

// Send logs the message and succeeds.
func (l *LogOnly) Send(email Email) error {
	l.Log.Info("mail suppressed (no SMTP configured)",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.TextBody),
	)
	return nil
}
