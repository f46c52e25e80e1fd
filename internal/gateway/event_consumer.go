package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/bus"
	"github.com/openside/scorekeeper/internal/store"
)

// EventConsumer subscribes to the change-notification subjects on NATS
// and fans each notification out to that game's viewer connections.
type EventConsumer struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	subs              []*nats.Subscription
}

// NewEventConsumer wraps an existing NATS connection.
func NewEventConsumer(cm *ConnectionManager, nc *nats.Conn) *EventConsumer {
	return &EventConsumer{
		connectionManager: cm,
		nc:                nc,
	}
}

// Start subscribes to both change subjects.
func (ec *EventConsumer) Start() error {
	for _, subject := range []string{bus.SubjectGames + ".>", bus.SubjectEvents + ".>"} {
		sub, err := ec.nc.Subscribe(subject, ec.handleMessage)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", subject, err)
		}
		ec.subs = append(ec.subs, sub)
	}

	log.Info().Msg("gateway event consumer started")
	return nil
}

// Stop unsubscribes from the change subjects.
func (ec *EventConsumer) Stop() {
	for _, sub := range ec.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("failed to unsubscribe")
		}
	}
	ec.subs = nil
}

func (ec *EventConsumer) handleMessage(msg *nats.Msg) {
	var note store.ChangeNotification
	if err := json.Unmarshal(msg.Data, &note); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to decode change notification")
		return
	}

	// Viewers refetch over HTTP on receipt; the push carries only the
	// fact that something changed.
	ec.connectionManager.Broadcast(note.GameID, msg.Data)
}
