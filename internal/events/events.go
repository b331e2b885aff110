// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

// Package events defines the realtime event contract shared by the socket
// gateway, the SSE fallback channel, the publisher and the client library:
// event names, room naming, scope filtering and payload stamping.
package events

// Server-to-client event names.
const (
	AuthSuccess          = "core:auth:success"
	AuthError            = "core:auth:error"
	MessageNew           = "message:new"
	AppointmentNew       = "appointment:new"
	AppointmentUpdate    = "appointment:update"
	AppointmentCancelled = "appointment:cancelled"
	TreatmentUpdate      = "treatment:update"
	Ready                = "ready" // SSE only
)

// Client-to-server event names.
const (
	Connect       = "connect"
	Join          = "join"
	Leave         = "leave"
	Authorization = "authorization"
	MessageSend   = "message:send"
)

// Ack is the frame name used for acknowledgement replies.
const Ack = "ack"

// Auth error reasons carried by core:auth:error.
const (
	ReasonNoToken      = "NO_TOKEN"
	ReasonInvalidToken = "INVALID_TOKEN"
)

// DomainEvents lists the events the publisher fans out.
var DomainEvents = []string{
	MessageNew,
	AppointmentNew,
	AppointmentUpdate,
	AppointmentCancelled,
	TreatmentUpdate,
}

// IsDomainEvent reports whether name is one of DomainEvents.
func IsDomainEvent(name string) bool {
	for _, e := range DomainEvents {
		if e == name {
			return true
		}
	}
	return false
}
