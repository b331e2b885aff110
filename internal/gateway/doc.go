// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

/*
Package gateway implements the authenticated realtime socket surface: the
session registry, the room router and the per-connection protocol handlers.

Architecture:

	           ┌──────────────────────────────┐
	publisher ─┤ Hub (single event loop)      │
	           │  conns: *Conn -> Identity    │
	           │  rooms: name  -> {*Conn}     │
	           └──────┬───────────────────────┘
	                  │ pre-encoded frames (non-blocking)
	     ┌────────────┼────────────┐
	   Conn1        Conn2        Conn3
	 read/serve/  read/serve/  read/serve/
	   write        write        write

Every registry and room mutation, and every emit, runs as a closure on the
hub loop, so the maps need no locking and emits are delivered in call order.
Callers never block on delivery: Emit* enqueues and returns, and an emit
that finds the loop queue full is dropped and counted.

Each connection runs three goroutines:
  - readPump: decodes frames from the socket into the inbound queue
  - serve: handshake, then dispatches join/leave/authorization/message:send
  - writePump: writes queued frames and keepalive pings

Wire protocol (JSON text frames):

	{"event":"connect","data":{"socket_token":"..."}}
	{"event":"join","data":{"rooms":["patient:p1"]},"ack":1}
	{"event":"ack","ack":1,"data":{"success":true}}
	{"event":"appointment:update","data":{"appointment":{...},"__m":{"ts":1760000000000}}}

Handshake: the first frame must be connect. Its data is searched for
socket_token, then the upgrade request's socket_token header, then the
socket_token cookie. No credential yields core:auth:error NO_TOKEN, a bad
one INVALID_TOKEN; either way the socket is closed and nothing else from it
is processed. Success joins u:<userId> and emits core:auth:success.

Rooms are trust-based: any non-empty string may be joined.
*/
package gateway
