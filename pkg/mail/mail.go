// Package mail sends plain-text mail over SMTP. The notification package
// uses it for the "mail" channel:
//
//	m := mail.New(mail.FromConfig())
//	err := m.Send(ctx, mail.Message{
//	    To:      []string{"ops@example.com"},
//	    Subject: "[stockdesk] ERROR",
//	    Body:    "Failed to update stock",
//	})
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/shashiranjanraj/stockdesk/config"
)

// ------------------- Config -------------------

// SMTP holds connection credentials.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// FromConfig reads the MAIL_* keys.
func FromConfig() SMTP {
	return SMTP{
		Host:     config.Get("MAIL_HOST", "localhost"),
		Port:     config.Get("MAIL_PORT", "587"),
		Username: config.Get("MAIL_USERNAME", ""),
		Password: config.Get("MAIL_PASSWORD", ""),
		From:     config.Get("MAIL_FROM", "stockdesk@localhost"),
		FromName: config.Get("MAIL_FROM_NAME", "stockdesk"),
	}
}

// ------------------- Message -------------------

// Message is one plain-text mail.
type Message struct {
	To      []string
	Subject string
	Body    string
}

var ErrNoRecipients = errors.New("mail: no recipients")

// ------------------- Mailer -------------------

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer delivers messages with one SMTP configuration.
type Mailer struct {
	cfg  SMTP
	send sendFunc
}

func New(cfg SMTP) *Mailer {
	m := &Mailer{cfg: cfg}
	m.send = smtp.SendMail
	if cfg.Port == "465" {
		m.send = m.sendTLS
	}
	return m
}

// Send delivers msg. Port 465 uses implicit TLS; other ports use STARTTLS
// when the server offers it. Without MAIL_USERNAME no auth is attempted.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + m.cfg.Port
	if err := m.send(addr, auth, m.cfg.From, msg.To, m.raw(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", addr, err)
	}
	return nil
}

func (m *Mailer) sendTLS(addr string, auth smtp.Auth, from string, to []string, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (m *Mailer) raw(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + headerSafe(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// headerSafe keeps a header value on one line.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
