package infra

import (
	"errors"
	"net/smtp"
	"testing"

	"sosstock/internal/config"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailer_DisabledWithoutHost(t *testing.T) {
	m := NewMailer(&config.Config{})
	assert.ErrorIs(t, m.Send(Message{To: "a@b.c", Subject: "x"}), ErrMailerDisabled)
}

func TestMailer_SendsThroughBreaker(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "smtp.test", SMTPPort: 25, SMTPFrom: "stock@test"})

	var got *email.Email
	var gotAddr string
	m.send = func(e *email.Email, addr string, _ smtp.Auth) error {
		got, gotAddr = e, addr
		return nil
	}

	require.NoError(t, m.Send(Message{To: "ops@test", Subject: "Reset", Text: "link"}))
	require.NotNil(t, got)
	assert.Equal(t, "smtp.test:25", gotAddr)
	assert.Equal(t, []string{"ops@test"}, got.To)
	assert.Equal(t, "stock@test", got.From)

	m.send = func(*email.Email, string, smtp.Auth) error { return errors.New("relay down") }
	for i := 0; i < DefaultCBConfig().FailureThreshold; i++ {
		_ = m.Send(Message{To: "ops@test"})
	}
	assert.Equal(t, CBOpen, m.Breaker().State())
	assert.ErrorIs(t, m.Send(Message{To: "ops@test"}), ErrCircuitOpen)
}

func TestMailer_MissingAttachment(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "smtp.test", SMTPPort: 25})
	err := m.Send(Message{To: "x@test", Attachments: []string{"/nonexistent/file.pdf"}})
	assert.ErrorContains(t, err, "attach")
}
