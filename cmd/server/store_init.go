// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/logging"
	"github.com/tomtom215/chairside/internal/store"
)

// storeConnectTimeout bounds the initial database ping and migration.
const storeConnectTimeout = 15 * time.Second

// initStore opens the message store behind its circuit breaker. An empty
// database URL selects the in-memory store. The returned func releases the
// connection pool.
func initStore(ctx context.Context, cfg config.DatabaseConfig) (*store.BreakerStore, func(), error) {
	if cfg.URL == "" {
		logging.Warn().Msg("DATABASE_URL not set, chat history is kept in memory only")
		return store.NewBreakerStore(store.NewMemory(), cfg), func() {}, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()

	pg, err := store.OpenPostgres(openCtx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open message store: %w", err)
	}
	logging.Info().Int32("max_conns", cfg.MaxConns).Msg("PostgreSQL message store ready")
	return store.NewBreakerStore(pg, cfg), pg.Close, nil
}
