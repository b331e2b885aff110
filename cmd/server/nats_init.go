// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package main

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/eventbus"
	"github.com/tomtom215/chairside/internal/logging"
)

// drainTimeout bounds NATS drain after the supervisor tree has stopped.
const drainTimeout = 5 * time.Second

// serviceAdder is the part of the supervisor tree NATS intake needs.
type serviceAdder interface {
	AddMessagingService(svc suture.Service) suture.ServiceToken
}

// initNATS adds the event bus subscriber to tree when NATS is enabled. The
// returned func drains the connection.
func initNATS(cfg config.NATSConfig, tree serviceAdder, pub eventbus.EventPublisher) (func(), error) {
	if !cfg.Enabled {
		logging.Info().Msg("NATS event intake disabled (NATS_ENABLED=false)")
		return func() {}, nil
	}

	nc, err := eventbus.Connect(cfg, "chairside-gateway")
	if err != nil {
		return nil, err
	}

	sub := eventbus.NewSubscriber(nc, cfg.SubjectPrefix, cfg.QueueGroup, pub)
	tree.AddMessagingService(sub)
	logging.Info().
		Str("url", nc.ConnectedUrlRedacted()).
		Str("service", sub.String()).
		Str("queue_group", cfg.QueueGroup).
		Msg("NATS event intake added to supervisor tree")

	return func() {
		done := make(chan struct{})
		nc.SetClosedHandler(func(*nats.Conn) { close(done) })
		if err := nc.Drain(); err != nil {
			logging.Warn().Err(err).Msg("NATS drain failed")
			nc.Close()
			return
		}
		select {
		case <-done:
		case <-time.After(drainTimeout):
			logging.Warn().Msg("NATS drain timed out, closing")
			nc.Close()
		}
	}, nil
}
