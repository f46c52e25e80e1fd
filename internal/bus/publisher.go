// Package bus republishes store change notifications on NATS so fanout
// consumers (the WebSocket gateway, other replicas) do not each hold a
// Postgres LISTEN connection.
package bus

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/store"
)

// Subject prefixes per table; the game id is the final token.
const (
	SubjectGames  = "games"
	SubjectEvents = "events"
)

// Subject returns the NATS subject a change notification is published on.
func Subject(note store.ChangeNotification) string {
	prefix := SubjectGames
	if note.Table == store.TableEvents {
		prefix = SubjectEvents
	}
	return fmt.Sprintf("%s.%s", prefix, note.GameID)
}

// Publisher forwards change notifications to NATS.
type Publisher struct {
	nc *nats.Conn
}

// Connect dials NATS with reconnect handling.
func Connect(url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{nc: nc}, nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// Publish forwards one change notification. Publish failures are logged
// and dropped; the periodic viewer reload covers missed notifications.
func (p *Publisher) Publish(note store.ChangeNotification) {
	payload, err := json.Marshal(note)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal change notification")
		return
	}
	if err := p.nc.Publish(Subject(note), payload); err != nil {
		log.Error().
			Err(err).
			Str("subject", Subject(note)).
			Msg("failed to publish change notification")
	}
}

// Close drains and closes the underlying connection.
func (p *Publisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}
