// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

// Package publisher is the single entry point for domain events. Every
// publication is stamped with __m.ts and fanned out to both delivery
// channels: socket rooms through the gateway hub and the SSE broker.
//
// Delivery is best-effort and at-most-once. Nobody listening is not an
// error, and a channel that drops the event never fails the caller.
package publisher

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/chairside/internal/events"
	"github.com/tomtom215/chairside/internal/logging"
	"github.com/tomtom215/chairside/internal/metrics"
)

// SocketEmitter delivers to socket rooms. *gateway.Hub implements it.
type SocketEmitter interface {
	Emit(event string, payload any, target events.Target) error
}

// Broadcaster delivers to SSE subscribers. *sse.Broker implements it.
type Broadcaster interface {
	Broadcast(event string, payload any, scopes ...events.Scope) (int, error)
}

// Publisher fans domain events out to sockets and SSE.
type Publisher struct {
	sockets SocketEmitter
	sse     Broadcaster
	now     func() time.Time
	log     zerolog.Logger
}

// New creates a Publisher. Either channel may be nil.
func New(sockets SocketEmitter, sse Broadcaster) *Publisher {
	return &Publisher{
		sockets: sockets,
		sse:     sse,
		now:     time.Now,
		log:     logging.WithComponent("publisher"),
	}
}

// Publish stamps payload and delivers it to target on both channels.
// The only error is a payload that cannot be encoded.
func (p *Publisher) Publish(ctx context.Context, event string, payload any, target events.Target) error {
	stamped, err := events.Stamp(payload, p.now())
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("event", event).Msg("failed to stamp payload")
		return err
	}

	if p.sockets != nil {
		if err := p.sockets.Emit(event, stamped, target); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("event", event).Msg("socket delivery dropped")
		} else {
			metrics.RecordPublish(event, metrics.ChannelSocket)
		}
	}

	if p.sse != nil {
		if scopes := target.SSEScopes(); len(scopes) > 0 {
			n, err := p.sse.Broadcast(event, stamped, scopes...)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("event", event).Msg("sse delivery dropped")
			} else {
				metrics.RecordPublish(event, metrics.ChannelSSE)
				p.log.Debug().Str("event", event).Int("sse_subscribers", n).Msg("event published")
			}
		}
	}
	return nil
}

// MessageCreated publishes message:new to the message's patient scope.
func (p *Publisher) MessageCreated(ctx context.Context, msg events.Message) {
	_ = p.Publish(ctx, events.MessageNew, events.MessagePayload{Message: msg},
		events.ToScope(events.Scope{PatientID: msg.PatientID}))
}

// AppointmentCreated publishes appointment:new.
func (p *Publisher) AppointmentCreated(ctx context.Context, appointment any, scope events.Scope, by string) error {
	return p.Publish(ctx, events.AppointmentNew, events.AppointmentPayload{Appointment: appointment, By: by}, events.ToScope(scope))
}

// AppointmentUpdated publishes appointment:update.
func (p *Publisher) AppointmentUpdated(ctx context.Context, appointment any, scope events.Scope, by string) error {
	return p.Publish(ctx, events.AppointmentUpdate, events.AppointmentPayload{Appointment: appointment, By: by}, events.ToScope(scope))
}

// AppointmentCancelled publishes appointment:cancelled.
func (p *Publisher) AppointmentCancelled(ctx context.Context, appointmentID string, scope events.Scope, by string) error {
	return p.Publish(ctx, events.AppointmentCancelled, events.AppointmentCancelledPayload{AppointmentID: appointmentID, By: by}, events.ToScope(scope))
}

// TreatmentUpdated publishes treatment:update.
func (p *Publisher) TreatmentUpdated(ctx context.Context, procedure any, scope events.Scope) error {
	return p.Publish(ctx, events.TreatmentUpdate, events.TreatmentPayload{Procedure: procedure}, events.ToScope(scope))
}

var defaultPublisher atomic.Pointer[Publisher]

// SetDefault installs the process-wide publisher used by Publish.
func SetDefault(p *Publisher) {
	defaultPublisher.Store(p)
}

// Default returns the process-wide publisher, or nil.
func Default() *Publisher {
	return defaultPublisher.Load()
}

// Publish publishes through the process-wide publisher. It is a no-op until
// SetDefault is called.
func Publish(ctx context.Context, event string, payload any, target events.Target) error {
	p := Default()
	if p == nil {
		return nil
	}
	return p.Publish(ctx, event, payload, target)
}
