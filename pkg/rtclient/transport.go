// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package rtclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Wire event names.
const (
	eventConnect       = "connect"
	eventAck           = "ack"
	eventAuthSuccess   = "core:auth:success"
	eventAuthError     = "core:auth:error"
	eventJoin          = "join"
	eventLeave         = "leave"
	eventAuthorization = "authorization"
	eventMessageSend   = "message:send"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   uint64          `json:"ack,omitempty"`
}

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	Ack   uint64 `json:"ack,omitempty"`
}

// transport is one socket. A reconnect replaces the transport; handlers
// and the joined-room set live on the Manager.
type transport struct {
	ws *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan json.RawMessage

	// authResult receives nil on core:auth:success or ErrAuthRejected.
	authResult chan error

	done      chan struct{}
	closeOnce sync.Once
}

func newTransport(ws *websocket.Conn) *transport {
	return &transport{
		ws:         ws,
		pending:    make(map[uint64]chan json.RawMessage),
		authResult: make(chan error, 1),
		done:       make(chan struct{}),
	}
}

func (t *transport) send(event string, data any, ack uint64) error {
	b, err := json.Marshal(outFrame{Event: event, Data: data, Ack: ack})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	select {
	case <-t.done:
		return ErrNotConnected
	default:
	}
	if err := t.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := t.ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write %s: %w", event, err)
	}
	return nil
}

// request sends an event and waits for its acknowledgement.
func (t *transport) request(ctx context.Context, event string, data any, id uint64) (json.RawMessage, error) {
	ch := make(chan json.RawMessage, 1)
	t.mu.Lock()
	t.pending[id] = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	if err := t.send(event, data, id); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-t.done:
		return nil, ErrNotConnected
	case <-ctx.Done():
		return nil, fmt.Errorf("%s ack: %w", event, ctx.Err())
	}
}

func (t *transport) resolve(id uint64, data json.RawMessage) {
	t.mu.Lock()
	ch, ok := t.pending[id]
	t.mu.Unlock()
	if ok {
		select {
		case ch <- data:
		default:
		}
	}
}

func (t *transport) signalAuth(err error) {
	select {
	case t.authResult <- err:
	default:
	}
}

func (t *transport) close() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.writeMu.Lock()
		_ = t.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.writeMu.Unlock()
		_ = t.ws.Close()
	})
}
