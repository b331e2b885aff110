// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package gateway

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/chairside/internal/auth"
	"github.com/tomtom215/chairside/internal/events"
	"github.com/tomtom215/chairside/internal/logging"
	"github.com/tomtom215/chairside/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

const defaultQueueSize = 1024

var (
	// ErrHubStopped is returned by operations submitted after the hub loop exited.
	ErrHubStopped = errors.New("hub stopped")

	// ErrQueueFull is returned by Emit when the loop queue has no room.
	ErrQueueFull = errors.New("hub queue full")
)

// Stats is a point-in-time view of the registry.
type Stats struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

// Hub owns the session registry and the room index. Both are only touched
// by closures running on the RunWithContext goroutine.
type Hub struct {
	ops   chan func()
	conns map[*Conn]struct{}
	rooms map[string]map[*Conn]struct{}

	connCount atomic.Int64
	roomCount atomic.Int64

	stopped  chan struct{}
	stopOnce sync.Once

	log zerolog.Logger
}

// NewHub creates a hub whose operation queue holds queueSize entries.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Hub{
		ops:     make(chan func(), queueSize),
		conns:   make(map[*Conn]struct{}),
		rooms:   make(map[string]map[*Conn]struct{}),
		stopped: make(chan struct{}),
		log:     logging.WithComponent("gateway-hub"),
	}
}

// RunWithContext runs the event loop until ctx is canceled, then closes
// every connection and returns ctx.Err(). Designed for suture supervision.
//
// Context cancellation is checked before each operation so shutdown wins
// over a busy queue.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case op := <-h.ops:
			op()
		}
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	closed := len(h.conns)
	for _, c := range sortedConns(h.conns) {
		c.close()
	}
	h.conns = make(map[*Conn]struct{})
	h.rooms = make(map[string]map[*Conn]struct{})
	h.updateGauges()
	h.stopOnce.Do(func() { close(h.stopped) })

	h.log.Info().
		Str("reason", string(getShutdownReason(ctx))).
		Int("connections_closed", closed).
		Msg("gateway hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// enqueue submits op, blocking until there is room in the queue.
func (h *Hub) enqueue(ctx context.Context, op func()) error {
	select {
	case h.ops <- op:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopped:
		return ErrHubStopped
	}
}

// tryEnqueue submits op without blocking.
func (h *Hub) tryEnqueue(op func()) bool {
	select {
	case <-h.stopped:
		return false
	default:
	}
	select {
	case h.ops <- op:
		return true
	default:
		return false
	}
}

// call submits op and waits for the loop to run it.
func (h *Hub) call(ctx context.Context, op func()) error {
	done := make(chan struct{})
	if err := h.enqueue(ctx, func() {
		defer close(done)
		op()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.stopped:
		return ErrHubStopped
	}
}

// register adds an authenticated connection, joins its user room and queues
// hello as the connection's first server frame, all in one loop step so no
// emit to the user room can overtake the auth success event.
func (h *Hub) register(ctx context.Context, c *Conn, id auth.Identity, hello []byte) error {
	return h.call(ctx, func() {
		if c.isClosed() {
			return
		}
		h.conns[c] = struct{}{}
		c.identity = id
		h.joinRoom(c, events.UserRoom(id.UserID))
		if hello != nil {
			h.deliver([]*Conn{c}, hello)
		}
		h.updateGauges()
		h.log.Debug().Str("conn_id", c.id).Str("user_id", logging.SanitizeUserID(id.UserID)).Int("total_connections", len(h.conns)).Msg("connection registered")
	})
}

// unregister removes a connection and all its memberships. Unknown
// connections are ignored.
func (h *Hub) unregister(ctx context.Context, c *Conn) error {
	return h.call(ctx, func() {
		if h.removeConn(c) {
			h.log.Debug().Str("conn_id", c.id).Int("total_connections", len(h.conns)).Msg("connection unregistered")
		}
	})
}

// reidentify swaps the identity of a registered connection. When the user
// changes the old user room is left; the new one is (re)joined either way.
func (h *Hub) reidentify(ctx context.Context, c *Conn, id auth.Identity) error {
	return h.call(ctx, func() {
		if _, ok := h.conns[c]; !ok {
			return
		}
		if c.identity.UserID != id.UserID {
			h.leaveRoom(c, events.UserRoom(c.identity.UserID))
		}
		c.identity = id
		h.joinRoom(c, events.UserRoom(id.UserID))
		h.updateGauges()
	})
}

// Join adds c to every named room. Empty names and unregistered
// connections are ignored. It returns once the membership is visible to
// subsequent emits.
func (h *Hub) Join(ctx context.Context, c *Conn, rooms []string) error {
	return h.call(ctx, func() {
		if _, ok := h.conns[c]; !ok {
			return
		}
		for _, room := range rooms {
			if room != "" {
				h.joinRoom(c, room)
			}
		}
		h.updateGauges()
	})
}

// Leave removes c from every named room.
func (h *Hub) Leave(ctx context.Context, c *Conn, rooms []string) error {
	return h.call(ctx, func() {
		if _, ok := h.conns[c]; !ok {
			return
		}
		for _, room := range rooms {
			if room != "" {
				h.leaveRoom(c, room)
			}
		}
		h.updateGauges()
	})
}

// Emit delivers event to the target: explicit rooms when it has any,
// otherwise every room whose filter matches the target scope (everyone for
// the global scope). The payload is encoded once on the caller's goroutine.
func (h *Hub) Emit(event string, payload any, target events.Target) error {
	frame, err := EncodeEvent(event, payload)
	if err != nil {
		return err
	}

	var op func()
	if target.HasRooms() {
		rooms := append([]string(nil), target.Rooms...)
		op = func() { h.deliver(h.roomMembers(rooms), frame) }
	} else {
		scope := target.Scope
		op = func() { h.deliver(h.scopeMembers(scope), frame) }
	}

	if !h.tryEnqueue(op) {
		metrics.RecordDrop("hub_queue_full")
		h.log.Warn().Str("event", event).Msg("hub queue full, dropping emit")
		return ErrQueueFull
	}
	return nil
}

// EmitRooms delivers event to the members of rooms.
func (h *Hub) EmitRooms(rooms []string, event string, payload any) error {
	if len(rooms) == 0 {
		return nil
	}
	return h.Emit(event, payload, events.ToRooms(rooms...))
}

// EmitScope delivers event to listeners whose room filter matches scope.
func (h *Hub) EmitScope(scope events.Scope, event string, payload any) error {
	return h.Emit(event, payload, events.ToScope(scope))
}

// Members returns the connection ids in room, in connection order.
func (h *Hub) Members(ctx context.Context, room string) ([]string, error) {
	var ids []string
	err := h.call(ctx, func() {
		for _, c := range sortedConns(h.rooms[room]) {
			ids = append(ids, c.id)
		}
	})
	return ids, err
}

// RoomsOf returns the sorted room names joined by the connection with id.
func (h *Hub) RoomsOf(ctx context.Context, connID string) ([]string, error) {
	var rooms []string
	err := h.call(ctx, func() {
		for c := range h.conns {
			if c.id != connID {
				continue
			}
			for room := range c.rooms {
				rooms = append(rooms, room)
			}
		}
	})
	sort.Strings(rooms)
	return rooms, err
}

// ConnectionCount returns the number of authenticated connections.
func (h *Hub) ConnectionCount() int {
	return int(h.connCount.Load())
}

// RoomCount returns the number of non-empty rooms.
func (h *Hub) RoomCount() int {
	return int(h.roomCount.Load())
}

// Stats returns connection and room counts.
func (h *Hub) Stats() Stats {
	return Stats{Connections: h.ConnectionCount(), Rooms: h.RoomCount()}
}

// The helpers below run on the loop goroutine only.

func (h *Hub) joinRoom(c *Conn, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Conn]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveRoom(c *Conn, room string) {
	delete(c.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) removeConn(c *Conn) bool {
	if _, ok := h.conns[c]; !ok {
		return false
	}
	for room := range c.rooms {
		h.leaveRoom(c, room)
	}
	delete(h.conns, c)
	h.updateGauges()
	return true
}

func (h *Hub) roomMembers(rooms []string) []*Conn {
	set := make(map[*Conn]struct{})
	for _, room := range rooms {
		for c := range h.rooms[room] {
			set[c] = struct{}{}
		}
	}
	return sortedConns(set)
}

func (h *Hub) scopeMembers(scope events.Scope) []*Conn {
	if scope.IsGlobal() {
		return sortedConns(h.conns)
	}
	set := make(map[*Conn]struct{})
	for room, members := range h.rooms {
		f, ok := events.FilterFromRoom(room)
		if !ok || !f.Matches(scope) {
			continue
		}
		for c := range members {
			set[c] = struct{}{}
		}
	}
	return sortedConns(set)
}

// deliver hands frame to each connection without blocking. A connection
// whose buffer is full, or that already closed, is pruned.
func (h *Hub) deliver(conns []*Conn, frame []byte) {
	var failed []*Conn
	for _, c := range conns {
		if c.isClosed() {
			failed = append(failed, c)
			continue
		}
		select {
		case c.send <- frame:
			metrics.RTDeliveries.Inc()
		default:
			metrics.RecordDrop("send_buffer_full")
			h.log.Warn().Str("conn_id", c.id).Msg("send buffer full, closing connection")
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.removeConn(c)
		c.close()
	}
}

func (h *Hub) updateGauges() {
	h.connCount.Store(int64(len(h.conns)))
	h.roomCount.Store(int64(len(h.rooms)))
	metrics.RTConnections.Set(float64(len(h.conns)))
	metrics.RTRooms.Set(float64(len(h.rooms)))
}

// sortedConns orders connections by sequence so delivery order is stable.
func sortedConns(set map[*Conn]struct{}) []*Conn {
	out := make([]*Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
