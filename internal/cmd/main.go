package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/bus"
	"github.com/openside/scorekeeper/internal/dbconfig"
	"github.com/openside/scorekeeper/internal/gateway"
	"github.com/openside/scorekeeper/internal/store"
	"github.com/openside/scorekeeper/internal/store/postgres"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("could not load .env file")
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	dbCfg := dbconfig.NewConfigFromEnv()
	db, err := setupDatabase(dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup database")
	}
	defer db.Close()

	services := setupServices(db, config)
	defer services.Sessions.Close()

	nc, err := nats.Connect(config.NATS.URL, nats.MaxReconnects(-1))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()
	publisher := bus.NewPublisher(nc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store change feed: fan notifications into live sessions and out to
	// the viewer bus.
	listenerCfg := postgres.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dbCfg.DSN()
	listener, err := postgres.NewListener(listenerCfg, func(note store.ChangeNotification) {
		services.Sessions.HandleChange(ctx, note)
		publisher.Publish(note)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start store listener")
	}
	go func() {
		if err := listener.Start(ctx); err != nil {
			log.Error().Err(err).Msg("store listener stopped")
		}
	}()

	// Viewer push gateway.
	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	go cm.Start(ctx)

	consumer := gateway.NewEventConsumer(cm, nc)
	if err := consumer.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start gateway consumer")
	}
	defer consumer.Stop()

	server := setupServer(config, services, gateway.NewWebSocketHandler(cm, services.Store))

	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
