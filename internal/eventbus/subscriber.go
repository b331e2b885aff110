// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package eventbus

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/chairside/internal/events"
	"github.com/tomtom215/chairside/internal/logging"
	"github.com/tomtom215/chairside/internal/metrics"
)

const subscriberBuffer = 256

// EventPublisher receives decoded envelopes. *publisher.Publisher
// implements it.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload any, target events.Target) error
}

// Subscriber bridges NATS envelopes to the event publisher.
type Subscriber struct {
	nc     *nats.Conn
	prefix string
	queue  string
	pub    EventPublisher
	log    zerolog.Logger
}

// NewSubscriber creates a subscriber for "<prefix>.>". queue may be empty.
func NewSubscriber(nc *nats.Conn, prefix, queue string, pub EventPublisher) *Subscriber {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Subscriber{
		nc:     nc,
		prefix: prefix,
		queue:  queue,
		pub:    pub,
		log:    logging.WithComponent("eventbus"),
	}
}

// Serve implements suture.Service. It consumes envelopes until ctx is
// canceled, then unsubscribes.
func (s *Subscriber) Serve(ctx context.Context) error {
	msgs := make(chan *nats.Msg, subscriberBuffer)
	subject := s.prefix + ".>"

	var (
		sub *nats.Subscription
		err error
	)
	if s.queue != "" {
		sub, err = s.nc.ChanQueueSubscribe(subject, s.queue, msgs)
	} else {
		sub, err = s.nc.ChanSubscribe(subject, msgs)
	}
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			s.log.Debug().Err(err).Msg("unsubscribe failed")
		}
	}()

	s.log.Info().Str("subject", subject).Str("queue", s.queue).Msg("NATS event subscriber started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("NATS event subscriber stopped")
			return ctx.Err()
		case msg := <-msgs:
			s.handle(ctx, msg)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Subscriber) String() string {
	return "eventbus-subscriber"
}

func (s *Subscriber) handle(ctx context.Context, msg *nats.Msg) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		metrics.EventBusReceived.WithLabelValues("malformed").Inc()
		s.log.Warn().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal envelope")
		return
	}
	if err := env.Validate(); err != nil {
		metrics.EventBusReceived.WithLabelValues("malformed").Inc()
		s.log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping envelope")
		return
	}

	var payload any = env.Payload
	if len(env.Payload) == 0 {
		payload = struct{}{}
	}

	ctx = logging.ContextWithCorrelationID(ctx, env.ID)
	if err := s.pub.Publish(ctx, env.Event, payload, env.Target()); err != nil {
		metrics.EventBusReceived.WithLabelValues("failed").Inc()
		return
	}
	metrics.EventBusReceived.WithLabelValues("published").Inc()
}
