package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/store"
)

// ListenerConfig holds settings for the LISTEN/NOTIFY change feed.
type ListenerConfig struct {
	DatabaseURL       string        // Postgres DSN for LISTEN/NOTIFY
	Channels          []string      // channels to LISTEN on
	PingInterval      time.Duration // keepalive for the listen connection
	MinReconnectDelay time.Duration
	MaxReconnectDelay time.Duration
}

// DefaultListenerConfig returns the default change feed configuration.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		Channels:          []string{"games_changed", "events_changed"},
		PingInterval:      90 * time.Second,
		MinReconnectDelay: 10 * time.Second,
		MaxReconnectDelay: time.Minute,
	}
}

// Handler receives one change notification per invocation. It must not
// block; long-running reactions belong on the receiver's own goroutine.
type Handler func(store.ChangeNotification)

// Listener bridges Postgres NOTIFY payloads to typed change
// notifications for games and events.
type Listener struct {
	listener *pq.Listener
	handler  Handler
	cfg      ListenerConfig
}

// NewListener opens a LISTEN connection on the configured channels.
func NewListener(cfg ListenerConfig, handler Handler) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		cfg.MinReconnectDelay,
		cfg.MaxReconnectDelay,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	for _, ch := range cfg.Channels {
		if err := l.Listen(ch); err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to listen to channel %s: %w", ch, err)
		}
	}

	log.Info().
		Strs("channels", cfg.Channels).
		Msg("listening for store notifications")

	return &Listener{
		listener: l,
		handler:  handler,
		cfg:      cfg,
	}, nil
}

// Start consumes notifications until the context is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("store listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// nil notification means the connection was lost and
				// pq is reconnecting
				continue
			}
			if err := l.handleNotification(note.Extra); err != nil {
				log.Error().Err(err).Str("payload", note.Extra).Msg("failed to handle notification")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

// Stop closes the listen connection.
func (l *Listener) Stop() error {
	return l.listener.Close()
}

func (l *Listener) handleNotification(payload string) error {
	var change store.ChangeNotification
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return fmt.Errorf("failed to decode notification payload: %w", err)
	}

	log.Debug().
		Str("table", change.Table).
		Str("op", change.Op).
		Str("game_id", change.GameID.String()).
		Msg("store change notification")

	l.handler(change)
	return nil
}
