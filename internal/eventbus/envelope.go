// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

// Package eventbus carries domain events between processes over NATS.
//
// The CRUD backend owns the mutations; after a commit it emits an Envelope
// on "<prefix>.<event>" (default prefix chairside.events) with an Emitter.
// Each gateway instance runs a Subscriber that hands envelopes to the event
// publisher, which fans them out to that instance's sockets and SSE
// streams. Malformed envelopes are logged and dropped.
package eventbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chairside/internal/events"
)

// DefaultSubjectPrefix is the subject namespace for domain events.
const DefaultSubjectPrefix = "chairside.events"

// ErrInvalidEnvelope is returned for envelopes that cannot be published.
var ErrInvalidEnvelope = errors.New("invalid envelope")

// Envelope is the wire form of a domain event on the bus.
type Envelope struct {
	ID        string          `json:"id,omitempty"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	PatientID string          `json:"patientId,omitempty"`
	DoctorID  string          `json:"doctorId,omitempty"`
	Rooms     []string        `json:"rooms,omitempty"`
	EmittedAt time.Time       `json:"emittedAt,omitempty"`
}

// Validate checks the event name.
func (e *Envelope) Validate() error {
	if e.Event == "" {
		return fmt.Errorf("%w: missing event", ErrInvalidEnvelope)
	}
	if !events.IsDomainEvent(e.Event) {
		return fmt.Errorf("%w: unknown event %q", ErrInvalidEnvelope, e.Event)
	}
	return nil
}

// Target returns the delivery target: explicit rooms when present,
// otherwise the patient/doctor scope.
func (e *Envelope) Target() events.Target {
	if len(e.Rooms) > 0 {
		return events.ToRooms(e.Rooms...)
	}
	return events.ToScope(events.Scope{PatientID: e.PatientID, DoctorID: e.DoctorID})
}

// Subject returns the subject an event is published on.
func Subject(prefix, event string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + "." + event
}
