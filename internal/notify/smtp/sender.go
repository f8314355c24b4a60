// Package smtp is the email collaborator behind notify.EmailSender. The core
// never imports it directly; wiring happens in main.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"bloodlink/internal/domain"
	"bloodlink/internal/notify"
	"bloodlink/internal/platform/config"
)

// Sender delivers mail over SMTP with STARTTLS.
type Sender struct {
	cfg config.SMTPConfig
}

// New returns a Sender, or nil when no SMTP credentials are configured so
// the dispatcher treats the channel as unavailable.
func New(cfg config.SMTPConfig) *Sender {
	if cfg.Username == "" {
		return nil
	}
	return &Sender{cfg: cfg}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return &notify.SendError{Reason: domain.ReasonProviderRejected, Err: err}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return &notify.SendError{Reason: domain.ReasonProviderRejected, Err: err}
	}
	if err := client.Rcpt(to); err != nil {
		return &notify.SendError{Reason: domain.ReasonInvalidRecipient, Err: err}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	msg := buildMessage(s.cfg.From, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return client.Quit()
}

func buildMessage(from, to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}
