package mail

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	raw  string
}

func capture(m *Mailer) *sent {
	s := &sent{}
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*s = sent{addr: addr, auth: a, from: from, to: to, raw: string(msg)}
		return nil
	}
	return s
}

func TestSendBuildsPlainTextMail(t *testing.T) {
	m := New(SMTP{Host: "mail.test", Port: "2525", From: "desk@test", FromName: "stockdesk"})
	got := capture(m)

	err := m.Send(context.Background(), Message{
		To:      []string{"ops@test", "lead@test"},
		Subject: "[stockdesk] ERROR\nBcc: evil@test",
		Body:    "Failed to update stock\nvariant 3",
	})
	require.NoError(t, err)

	assert.Equal(t, "mail.test:2525", got.addr)
	assert.Nil(t, got.auth)
	assert.Equal(t, "desk@test", got.from)
	assert.Equal(t, []string{"ops@test", "lead@test"}, got.to)
	assert.Contains(t, got.raw, "From: stockdesk <desk@test>\r\n")
	assert.Contains(t, got.raw, "To: ops@test, lead@test\r\n")
	assert.Contains(t, got.raw, "Subject: [stockdesk] ERROR Bcc: evil@test\r\n")
	assert.Contains(t, got.raw, "\r\n\r\nFailed to update stock\r\nvariant 3")
}

func TestSendUsesAuthWhenConfigured(t *testing.T) {
	m := New(SMTP{Host: "mail.test", Port: "587", Username: "u", Password: "p", From: "desk@test"})
	got := capture(m)

	require.NoError(t, m.Send(context.Background(), Message{To: []string{"ops@test"}, Subject: "x"}))
	assert.NotNil(t, got.auth)
}

func TestSendNeedsRecipients(t *testing.T) {
	m := New(SMTP{Host: "mail.test", Port: "587"})
	capture(m)
	assert.ErrorIs(t, m.Send(context.Background(), Message{Subject: "x"}), ErrNoRecipients)
}
