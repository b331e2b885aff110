// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/events"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS messages (
	id         UUID PRIMARY KEY,
	patient_id TEXT NOT NULL,
	sender     TEXT NOT NULL CHECK (sender IN ('patient', 'doctor')),
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS messages_patient_created_idx ON messages (patient_id, created_at)`

const insertMessageSQL = `INSERT INTO messages (id, patient_id, sender, content)
VALUES ($1, $2, $3, $4)
RETURNING created_at`

// Postgres stores messages in PostgreSQL.
type Postgres struct {
	db   DB
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection (a pool, or a mock in tests).
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres connects a pgx pool, verifies it and creates the schema.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Postgres{db: pool, pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the messages table if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create messages schema: %w", err)
	}
	return nil
}

// CreateMessage implements MessageStore.
func (s *Postgres) CreateMessage(ctx context.Context, m NewMessage) (events.Message, error) {
	msg := events.Message{
		ID:        uuid.NewString(),
		PatientID: m.PatientID,
		Sender:    m.Sender,
		Content:   m.Content,
	}
	err := s.db.QueryRow(ctx, insertMessageSQL, msg.ID, msg.PatientID, msg.Sender, msg.Content).Scan(&msg.CreatedAt)
	if err != nil {
		return events.Message{}, fmt.Errorf("insert message: %w", err)
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	return msg, nil
}

// Close releases the pool when the store owns one.
func (s *Postgres) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
