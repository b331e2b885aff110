// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package rtclient

// State is the connection state of a Manager.
//
//	disconnected -> connecting -> authenticating -> active
//	active -> disconnected       (transport dropped, reconnect scheduled)
//	active|authenticating -> reauthenticating (server rejected the credential)
//	reauthenticating -> connecting (fresh credential)
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateActive
	StateReauthenticating
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateReauthenticating:
		return "reauthenticating"
	default:
		return "unknown"
	}
}
