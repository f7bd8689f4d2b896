// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

// Package main is the entry point for the Motorscope server.
//
// Motorscope monitors an industrial motor against its digital twin. It
// consumes live and twin telemetry over MQTT, detects deviations
// between the two streams, keeps a malfunction log, and pushes the
// resulting dashboard state to browsers over WebSocket.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layering defaults, config.yaml and
//     MOTORSCOPE_-prefixed environment variables
//  2. Database: SQLite (default) or PostgreSQL via Bun
//  3. Detection engine: live-vs-twin deviation tracking
//  4. Dashboard service: snapshot and chart assembly
//  5. Message bus: in-process Watermill pub/sub
//  6. WebSocket hub: real-time updates to connected clients
//  7. MQTT consumer: telemetry and malfunction ingest
//  8. HTTP server: REST API, WebSocket endpoint and Prometheus metrics
//
// All long-running components are supervised by a Suture tree; a crash
// in the ingest pipeline restarts it without taking down the API.
//
// # Example Usage
//
// Local development against a broker on localhost:
//
//	export MOTORSCOPE_SECURITY_AUTH_MODE=none
//	./motorscope
//
// Production with JWT authentication:
//
//	export MOTORSCOPE_SECURITY_AUTH_MODE=jwt
//	export MOTORSCOPE_SECURITY_JWT_SECRET=$(openssl rand -base64 32)
//	export MOTORSCOPE_SECURITY_ADMIN_USERNAME=admin
//	export MOTORSCOPE_SECURITY_ADMIN_PASSWORD=secure-password
//	export MOTORSCOPE_MQTT_BROKER_HOST=broker.plant.local
//	./motorscope
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/motorlab/motorscope/internal/api"
	"github.com/motorlab/motorscope/internal/auth"
	"github.com/motorlab/motorscope/internal/bus"
	"github.com/motorlab/motorscope/internal/config"
	"github.com/motorlab/motorscope/internal/dashboard"
	"github.com/motorlab/motorscope/internal/database"
	"github.com/motorlab/motorscope/internal/detection"
	"github.com/motorlab/motorscope/internal/ingest"
	"github.com/motorlab/motorscope/internal/logging"
	"github.com/motorlab/motorscope/internal/retention"
	"github.com/motorlab/motorscope/internal/supervisor"
	ws "github.com/motorlab/motorscope/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("db_driver", cfg.Database.Driver).
		Str("broker", cfg.MQTT.BrokerAddr()).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Motorscope")

	if cfg.Security.AuthMode == config.AuthModeNone {
		logging.Warn().Msg("Authentication is disabled (auth_mode=none); use only on closed networks")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	engine := detection.NewEngine(cfg.Detection.DeviationThresholdPercent)
	dash := dashboard.NewService(store, cfg.Detection.FreshnessThreshold)

	msgBus := bus.New(256, bus.NewLoggerAdapter(logging.Logger()))
	defer func() {
		if err := msgBus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing message bus")
		}
	}()

	hub := ws.NewHub()
	subscriber := ws.NewBusSubscriber(msgBus, hub)
	consumer := ingest.NewConsumer(cfg.MQTT, cfg.Detection, store, engine, dash, msgBus)
	janitor := retention.NewJanitor(store, cfg.Database.ReadingRetention, cfg.Database.PruneInterval)

	authMW, err := auth.NewMiddleware(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	handler := api.NewHandler(store, dash, consumer, authMW, cfg)
	wsHandler := ws.NewHandler(hub, dash)
	router := api.NewRouter(handler, authMW, wsHandler, cfg)
	server := api.NewServer(cfg.Server, router.Setup())

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(supervisor.NewHubService(hub))
	tree.AddMessagingService(supervisor.NewRunnerService(subscriber, "bus-subscriber"))
	tree.AddIngestService(consumer)
	tree.AddIngestService(supervisor.NewRunnerService(janitor, "retention-janitor"))
	tree.AddAPIService(server)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Motorscope stopped")
}
