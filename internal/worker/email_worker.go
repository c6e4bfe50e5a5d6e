package worker

// email_worker.go processes jobs from QueueEmail: password reset links and
// purchase orders sent to suppliers with the PDF attached.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sosstock/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJob is the payload of an email job.
type EmailJob struct {
	To          string   `json:"to"`
	Subject     string   `json:"subject"`
	Text        string   `json:"text"`
	HTML        string   `json:"html,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// Sender delivers one message.
type Sender interface {
	Send(msg infra.Message) error
}

type EmailWorker struct {
	sender Sender
}

func NewEmailWorker(sender Sender) *EmailWorker {
	return &EmailWorker{sender: sender}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var job EmailJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return Permanent(fmt.Errorf("email_worker: invalid payload: %w", err))
	}
	if job.To == "" {
		return Permanent(errors.New("email_worker: empty recipient"))
	}

	err := w.sender.Send(infra.Message{
		To:          job.To,
		Subject:     job.Subject,
		Text:        job.Text,
		HTML:        job.HTML,
		Attachments: job.Attachments,
	})
	if errors.Is(err, infra.ErrMailerDisabled) {
		return Permanent(err)
	}
	if err != nil {
		log.Warn().Err(err).Str("to", job.To).Msg("email_worker: send failed")
		return err
	}
	log.Info().Str("to", job.To).Str("subject", job.Subject).Msg("email_worker: sent")
	return nil
}
