// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/tomtom215/chairside/internal/events"
)

// Emitter publishes envelopes from any Go process.
type Emitter struct {
	nc     *nats.Conn
	prefix string
	now    func() time.Time
}

// NewEmitter creates an emitter on nc.
func NewEmitter(nc *nats.Conn, prefix string) *Emitter {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Emitter{nc: nc, prefix: prefix, now: time.Now}
}

// Emit publishes env. ID and EmittedAt are filled in when empty.
func (e *Emitter) Emit(ctx context.Context, env Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.EmittedAt.IsZero() {
		env.EmittedAt = e.now().UTC()
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := e.nc.Publish(Subject(e.prefix, env.Event), data); err != nil {
		return fmt.Errorf("publish %s: %w", env.Event, err)
	}
	return nil
}

// EmitEvent encodes payload and emits it to the given target.
func (e *Emitter) EmitEvent(ctx context.Context, event string, payload any, target events.Target) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return e.Emit(ctx, Envelope{
		Event:     event,
		Payload:   raw,
		PatientID: target.Scope.PatientID,
		DoctorID:  target.Scope.DoctorID,
		Rooms:     target.Rooms,
	})
}

// Flush waits until the server has processed everything emitted so far.
func (e *Emitter) Flush(ctx context.Context) error {
	return e.nc.FlushWithContext(ctx)
}
