package main

import (
	"database/sql"

	"github.com/openside/scorekeeper/internal/game"
	"github.com/openside/scorekeeper/internal/scorekeeper"
	"github.com/openside/scorekeeper/internal/store/postgres"
)

// Services holds the wired application layers.
type Services struct {
	Store    *postgres.Store
	Games    *game.App
	Sessions *scorekeeper.Manager
}

func setupServices(db *sql.DB, config *Config) *Services {
	st := postgres.NewStore(db)

	sessionCfg := scorekeeper.DefaultConfig()
	if config.Sync.RetryDelay > 0 {
		sessionCfg.RetryDelay = config.Sync.RetryDelay
	}
	if config.Sync.HeartbeatInterval > 0 {
		sessionCfg.HeartbeatInterval = config.Sync.HeartbeatInterval
	}

	return &Services{
		Store:    st,
		Games:    game.NewApp(st),
		Sessions: scorekeeper.NewManager(st, sessionCfg),
	}
}
