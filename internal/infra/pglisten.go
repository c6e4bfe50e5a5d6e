package infra

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const (
	listenRetryMin = time.Second
	listenRetryMax = 30 * time.Second
)

// Listener holds a dedicated connection subscribed to a NOTIFY channel.
// A pooled connection cannot be used: LISTEN is bound to one session.
type Listener struct {
	dsn     string
	channel string
}

func NewListener(dsn, channel string) *Listener {
	return &Listener{dsn: dsn, channel: channel}
}

// Run blocks until ctx is cancelled, calling onNotify with the payload of
// every notification. After a connection loss it reconnects with exponential
// backoff and calls onNotify with an empty payload, since notifications sent
// while disconnected are lost and subscribers must reload.
func (l *Listener) Run(ctx context.Context, onNotify func(payload string)) {
	backoff := listenRetryMin
	first := true
	for {
		err := l.listen(ctx, func() {
			backoff = listenRetryMin
			if !first {
				onNotify("")
			}
			first = false
		}, onNotify)
		if ctx.Err() != nil {
			log.Info().Str("channel", l.channel).Msg("pg listener: shutting down")
			return
		}
		log.Warn().Err(err).Str("channel", l.channel).Dur("retry_in", backoff).Msg("pg listener: connection lost")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > listenRetryMax {
			backoff = listenRetryMax
		}
	}
}

func (l *Listener) listen(ctx context.Context, onConnected func(), onNotify func(string)) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}
	log.Info().Str("channel", l.channel).Msg("pg listener: subscribed")
	onConnected()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		onNotify(n.Payload)
	}
}
