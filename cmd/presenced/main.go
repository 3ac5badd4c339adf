// Command presenced runs the live-presence agent: it owns the broker
// connection for the signed-in user, publishes retained location/presence
// messages, maintains the filtered peer table, and serves the control API the
// mobile shell talks to.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fittrack/presence-system/internal/api"
	"github.com/fittrack/presence-system/internal/core/service"
	redisbroker "github.com/fittrack/presence-system/internal/infrastructure/broker/redis"
	"github.com/fittrack/presence-system/internal/infrastructure/config"
	mongodb "github.com/fittrack/presence-system/internal/infrastructure/db/mongo"
	"github.com/fittrack/presence-system/internal/infrastructure/position"
	"github.com/fittrack/presence-system/internal/infrastructure/queue"
	"github.com/fittrack/presence-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	broker := redisbroker.NewBroker(redisbroker.Options{
		Addr:           cfg.Redis.Addr,
		DB:             cfg.Redis.DB,
		ConnectTimeout: cfg.Presence.ConnectTimeout,
		RetainedTTL:    2 * cfg.Presence.LivenessWindow,
	}, log)

	// --- Core pipeline ---
	friendRepo := mongodb.NewFriendRepository(db)
	profileRepo := mongodb.NewProfileRepository(db)
	identity := service.NewIdentityService(cfg.SessionToken, cfg.JWTSecret, profileRepo, log)

	table := service.NewPeerTable()
	authorizer := service.NewAuthorizer(friendRepo, log)
	positions := position.NewManualSource()
	subscriber := service.NewSubscriber(authorizer, table, log)
	publisher := service.NewPublisher(
		broker,
		positions,
		cfg.Presence.PublishInterval,
		cfg.Presence.MovementThresholdM,
		log,
	)
	reaper := service.NewReaper(table, cfg.Presence.LivenessWindow, cfg.Presence.ReapInterval, log)

	dispatcher := queue.NewDispatcher(cfg.Presence.Workers, subscriber, log)
	dispatcher.Start(ctx)

	session := service.NewSession(
		service.SessionConfig{
			PublishInterval:     cfg.Presence.PublishInterval,
			MovementThresholdM:  cfg.Presence.MovementThresholdM,
			LivenessWindow:      cfg.Presence.LivenessWindow,
			ReapInterval:        cfg.Presence.ReapInterval,
			PeerRefreshInterval: cfg.Presence.PeerRefreshInterval,
			ConnectTimeout:      cfg.Presence.ConnectTimeout,
		},
		broker,
		identity,
		authorizer,
		publisher,
		subscriber,
		reaper,
		table,
		dispatcher.Enqueue,
		log,
	)

	if err := session.Start(ctx); err != nil {
		// No identity means no presence pipeline at all; anything else is a
		// broken dependency at startup.
		log.Fatal().Err(err).Msg("presence session start failed")
	}

	// --- Control API ---
	e := api.NewRouter(api.Deps{
		Mongo:       db,
		Broker:      broker,
		Peers:       table,
		Positions:   positions,
		Session:     session,
		JWTSecret:   cfg.JWTSecret,
		LocalUserID: func() string { return session.Status().Identity.UserID },
		Log:         log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("control api listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Session first: the retained offline presence must go out while the
	// broker connection is still alive.
	if err := session.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("session stop failed")
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown failed")
	}
}
