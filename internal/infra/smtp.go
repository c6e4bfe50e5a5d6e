package infra

import (
	"errors"
	"fmt"
	"net/smtp"

	"sosstock/internal/config"

	"github.com/jordan-wright/email"
)

// ErrMailerDisabled is returned when no SMTP host is configured.
var ErrMailerDisabled = errors.New("mailer: SMTP_HOST not configured")

// Message is one outgoing email.
type Message struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []string // file paths
}

// Mailer sends emails over SMTP through a circuit breaker so that a downed
// relay fails fast instead of tying up workers.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
	cb       *CircuitBreaker
	send     func(e *email.Email, addr string, a smtp.Auth) error
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		cb:       NewCircuitBreaker(DefaultCBConfig()),
		send:     func(e *email.Email, addr string, a smtp.Auth) error { return e.Send(addr, a) },
	}
}

// Breaker exposes the SMTP circuit breaker state for health reporting.
func (m *Mailer) Breaker() *CircuitBreaker { return m.cb }

// Send delivers msg. Attachment paths must exist.
func (m *Mailer) Send(msg Message) error {
	if m.host == "" {
		return ErrMailerDisabled
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}
	for _, path := range msg.Attachments {
		if _, err := e.AttachFile(path); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", path, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.cb.Execute(func() error {
		return m.send(e, m.addr, auth)
	})
}
