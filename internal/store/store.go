// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

// Package store persists chat messages sent over the realtime gateway.
//
// The gateway only needs CreateMessage. Three implementations exist:
//   - Memory: in-process, used when no DATABASE_URL is configured
//   - Postgres: a pgx pool, one INSERT ... RETURNING per message
//   - BreakerStore: wraps either with a sony/gobreaker circuit breaker
package store

import (
	"context"
	"errors"

	"github.com/tomtom215/chairside/internal/events"
)

// ErrUnavailable is returned when the backing store refuses work,
// for example while the circuit breaker is open.
var ErrUnavailable = errors.New("message store unavailable")

// NewMessage is the input to CreateMessage.
type NewMessage struct {
	PatientID string
	Sender    string
	Content   string
}

// MessageStore persists messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, m NewMessage) (events.Message, error)
}
