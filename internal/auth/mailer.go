package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, username, link string) error
}

// LogMailer writes reset links to the log instead of sending mail.
// Intended for development.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("component", "mailer")}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, username, link string) error {
	m.logger.Info("password reset link", "to", to, "username", username, "reset_link", link)
	return nil
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends reset links with net/smtp.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	send sendMailFunc
}

// NewSMTPMailer creates an SMTPMailer. Authentication is used when Username is set.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	m := &SMTPMailer{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return m
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, username, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("smtp: invalid recipient %q", to)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Password Reset Request\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", username)
	b.WriteString("You requested a password reset. Open the link below to choose a new password.\r\n")
	b.WriteString("The link expires in 1 hour.\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", link)
	b.WriteString("If you did not request this, you can ignore this email.\r\n")

	if err := m.send(m.addr, m.auth, m.from, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", m.addr, err)
	}
	return nil
}
