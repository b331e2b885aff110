// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/chairside/internal/api"
	"github.com/tomtom215/chairside/internal/auth"
	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/gateway"
	"github.com/tomtom215/chairside/internal/logging"
	"github.com/tomtom215/chairside/internal/publisher"
	"github.com/tomtom215/chairside/internal/sse"
	"github.com/tomtom215/chairside/internal/supervisor"
	"github.com/tomtom215/chairside/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Gateway failed")
	}
	logging.Info().Msg("Gateway stopped gracefully")
}

// run wires every component into the supervisor tree and blocks until ctx
// is canceled or the tree fails.
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("addr", cfg.Addr()).
		Str("environment", cfg.Server.Environment).
		Str("gateway_path", cfg.Gateway.Path).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Bool("database", cfg.Database.URL != "").
		Msg("Starting Chairside gateway")

	tokens, err := auth.NewTokenService(&cfg.Security)
	if err != nil {
		return err
	}

	messages, closeStore, err := initStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := gateway.NewHub(cfg.Gateway.QueueSize)
	broker := sse.NewBroker(cfg.SSE)
	pub := publisher.New(hub, broker)
	publisher.SetDefault(pub)

	gw := gateway.NewServer(gateway.Deps{
		Hub:       hub,
		Tokens:    tokens,
		Messages:  messages,
		Publisher: pub,
	}, cfg.Gateway, cfg.Security.CORSOrigins)

	router, err := api.NewRouter(cfg, api.Deps{
		Tokens:  tokens,
		Hub:     hub,
		Gateway: gw,
		SSE:     broker,
		Breaker: messages,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		return err
	}

	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(services.NewJanitorService(broker))

	closeNATS, err := initNATS(cfg.NATS, tree, pub)
	if err != nil {
		return err
	}
	defer closeNATS()

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))

	logging.Info().Msg("Starting supervisor tree")
	err = <-tree.ServeBackground(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
