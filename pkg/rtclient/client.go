// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

/*
Package rtclient is the client side of the Chairside realtime gateway.

A Manager owns one logical connection. It dials the socket endpoint,
authenticates with a socket token, replays the rooms the application has
joined, and reconnects with exponential backoff when the transport drops.
Event handlers and the joined-room set belong to the Manager, so they
survive reconnects and are never registered twice.

	m, err := rtclient.New(rtclient.Config{
		URL:         "wss://clinic.example/rt/ws",
		TokenSource: &rtclient.HTTPTokenSource{BaseURL: "https://clinic.example", SessionToken: session},
	})
	m.On("message:new", func(data json.RawMessage) { ... })
	_ = m.Join(ctx, "patient:p1")
	err = m.Connect(ctx)
*/
package rtclient

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/chairside/internal/logging"
)

var (
	// ErrUnauthorized means no usable session credential exists. The
	// Manager stops reconnecting when it sees it.
	ErrUnauthorized = errors.New("rtclient: unauthorized")

	// ErrAuthRejected means the server refused the socket credential.
	ErrAuthRejected = errors.New("rtclient: credential rejected")

	ErrClosed       = errors.New("rtclient: manager closed")
	ErrNotConnected = errors.New("rtclient: not connected")
)

const (
	connectKey     = "connect"
	tokenKey       = "token"
	socketTokenKey = "socket_token"
)

// Handler receives the data of a server event.
type Handler func(data json.RawMessage)

// Manager maintains the realtime connection. It is safe for concurrent use.
type Manager struct {
	cfg Config
	log zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	state        State
	transport    *transport
	token        string
	rooms        map[string]struct{}
	handlers     map[string]Handler
	listeners    []func(from, to State)
	closed       bool
	reconnecting bool

	connects singleflight.Group
	tokens   singleflight.Group
	ackSeq   atomic.Uint64
	wg       sync.WaitGroup
}

// New creates a Manager. It does not connect.
func New(cfg Config) (*Manager, error) {
	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}
	log := logging.WithComponent("rtclient")
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		token:    cfg.Token,
		rooms:    make(map[string]struct{}),
		handlers: make(map[string]Handler),
	}, nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStateChange registers fn to be called after every transition. fn runs
// on the goroutine that caused the transition and must not block.
func (m *Manager) OnStateChange(fn func(from, to State)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// On sets the handler for a server event, replacing any previous one.
// Handlers run on the read goroutine in arrival order. A nil handler
// removes the registration.
func (m *Manager) On(event string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h == nil {
		delete(m.handlers, event)
		return
	}
	m.handlers[event] = h
}

// Off removes the handler for event.
func (m *Manager) Off(event string) {
	m.On(event, nil)
}

// Rooms returns the joined-room set, sorted.
func (m *Manager) Rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.rooms))
}

// Connect establishes and authenticates the connection. Concurrent callers
// share a single attempt; ctx only bounds the caller's wait. Each attempt
// is bounded by Config.ConnectTimeout.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	closed, active := m.closed, m.transport != nil
	m.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if active {
		return nil
	}

	ch := m.connects.DoChan(connectKey, func() (any, error) {
		return nil, m.connect()
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) connect() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.transport != nil {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.ConnectTimeout)
	defer cancel()

	m.setState(StateConnecting)
	token, err := m.credential(ctx)
	if err != nil {
		m.setState(StateDisconnected)
		return err
	}

	ws, resp, err := m.cfg.Dialer.DialContext(ctx, m.cfg.URL, m.cfg.header())
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		m.setState(StateDisconnected)
		return fmt.Errorf("dial %s: %w", m.cfg.URL, err)
	}

	t := newTransport(ws)
	if !m.spawn(func() { m.readLoop(t) }) {
		t.close()
		return ErrClosed
	}
	if err := t.send(eventConnect, map[string]string{socketTokenKey: token}, 0); err != nil {
		t.close()
		m.setState(StateDisconnected)
		return err
	}
	m.setState(StateAuthenticating)

	select {
	case err := <-t.authResult:
		if err != nil {
			m.rejectCredential(t)
			return err
		}
	case <-t.done:
		// An auth error is followed by the server closing the socket, so
		// both cases can be ready at once.
		select {
		case err := <-t.authResult:
			if err != nil {
				m.rejectCredential(t)
				return err
			}
		default:
		}
		m.setState(StateDisconnected)
		return ErrNotConnected
	case <-ctx.Done():
		t.close()
		m.setState(StateDisconnected)
		return fmt.Errorf("connect: %w", ctx.Err())
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		t.close()
		return ErrClosed
	}
	select {
	case <-t.done:
		m.mu.Unlock()
		m.setState(StateDisconnected)
		return ErrNotConnected
	default:
	}
	m.transport = t
	rooms := slices.Sorted(maps.Keys(m.rooms))
	notify := m.transitionLocked(StateActive)
	m.mu.Unlock()
	notify()

	if len(rooms) > 0 {
		if err := m.roomsRequest(ctx, t, eventJoin, rooms); err != nil {
			m.log.Warn().Err(err).Strs("rooms", rooms).Msg("failed to rejoin rooms")
		}
	}
	m.log.Info().Int("rooms", len(rooms)).Msg("realtime connection active")
	return nil
}

// credential returns the explicit token if one is held, otherwise a fresh
// token from the TokenSource.
func (m *Manager) credential(ctx context.Context) (string, error) {
	m.mu.Lock()
	tok := m.token
	m.mu.Unlock()
	if tok != "" {
		return tok, nil
	}
	return m.FetchToken(ctx)
}

// FetchToken requests a socket token from the TokenSource. Concurrent
// callers share one in-flight request; the result is not cached once the
// request resolves.
func (m *Manager) FetchToken(ctx context.Context) (string, error) {
	if m.cfg.TokenSource == nil {
		return "", fmt.Errorf("%w: no token source", ErrUnauthorized)
	}
	ch := m.tokens.DoChan(tokenKey, func() (any, error) {
		fctx, cancel := context.WithTimeout(m.ctx, m.cfg.ConnectTimeout)
		defer cancel()
		return m.cfg.TokenSource.FetchToken(fctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) readLoop(t *transport) {
	defer m.transportClosed(t)

	for {
		_, data, err := t.ws.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
			default:
				m.log.Debug().Err(err).Msg("realtime transport closed")
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil || f.Event == "" {
			m.log.Debug().Msg("ignoring malformed server frame")
			continue
		}

		switch f.Event {
		case eventAck:
			t.resolve(f.Ack, f.Data)
		case eventAuthSuccess:
			t.signalAuth(nil)
		case eventAuthError:
			t.signalAuth(ErrAuthRejected)
			if m.isCurrent(t) {
				m.rejectCredential(t)
			}
		default:
			m.dispatch(f.Event, f.Data)
		}
	}
}

func (m *Manager) dispatch(event string, data json.RawMessage) {
	m.mu.Lock()
	h := m.handlers[event]
	m.mu.Unlock()
	if h != nil {
		h(data)
	}
}

func (m *Manager) isCurrent(t *transport) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transport == t
}

// rejectCredential discards the held token and any in-flight fetch, then
// reconnects with a fresh credential.
func (m *Manager) rejectCredential(t *transport) {
	m.tokens.Forget(tokenKey)

	m.mu.Lock()
	m.token = ""
	if m.transport == t {
		m.transport = nil
	}
	if m.closed {
		m.mu.Unlock()
		t.close()
		return
	}
	notify := m.transitionLocked(StateReauthenticating)
	m.mu.Unlock()

	t.close()
	notify()
	m.log.Warn().Msg("socket credential rejected, reauthenticating")
	m.scheduleReconnect()
}

func (m *Manager) transportClosed(t *transport) {
	t.close()

	m.mu.Lock()
	current := m.transport == t
	if current {
		m.transport = nil
	}
	if !current || m.closed {
		m.mu.Unlock()
		return
	}
	notify := m.transitionLocked(StateDisconnected)
	m.mu.Unlock()

	notify()
	m.log.Info().Msg("realtime connection lost, reconnecting")
	m.scheduleReconnect()
}

// scheduleReconnect starts the background reconnect loop unless one is
// already running or the Manager is closed.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.closed || m.reconnecting {
		m.mu.Unlock()
		return
	}
	m.reconnecting = true
	m.mu.Unlock()

	if !m.spawn(m.reconnectLoop) {
		m.mu.Lock()
		m.reconnecting = false
		m.mu.Unlock()
	}
}

func (m *Manager) reconnectLoop() {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.InitialBackoff
	b.MaxInterval = m.cfg.MaxBackoff
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		err := m.Connect(m.ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrClosed), errors.Is(err, ErrUnauthorized):
			return backoff.Permanent(err)
		}
		m.log.Debug().Err(err).Int("attempt", attempt).Msg("reconnect attempt failed")
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(b, m.ctx))

	m.mu.Lock()
	m.reconnecting = false
	retry := err == nil && !m.closed && m.transport == nil
	m.mu.Unlock()

	switch {
	case retry:
		// The transport dropped again before this loop exited.
		m.scheduleReconnect()
	case err != nil && !errors.Is(err, ErrClosed) && m.ctx.Err() == nil:
		m.log.Error().Err(err).Msg("giving up reconnecting")
		m.setState(StateDisconnected)
	}
}

// Join adds rooms to the joined-room set. While active the server is asked
// to join immediately; otherwise the rooms are joined on the next active
// transition and a background connect is started.
func (m *Manager) Join(ctx context.Context, rooms ...string) error {
	return m.updateRooms(ctx, eventJoin, rooms)
}

// Leave removes rooms from the joined-room set, leaving them on the server
// when active.
func (m *Manager) Leave(ctx context.Context, rooms ...string) error {
	return m.updateRooms(ctx, eventLeave, rooms)
}

func (m *Manager) updateRooms(ctx context.Context, event string, rooms []string) error {
	rooms = slices.DeleteFunc(slices.Clone(rooms), func(r string) bool { return r == "" })
	if len(rooms) == 0 {
		return nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	for _, r := range rooms {
		if event == eventJoin {
			m.rooms[r] = struct{}{}
		} else {
			delete(m.rooms, r)
		}
	}
	t := m.transport
	m.mu.Unlock()

	if t == nil {
		if event == eventJoin {
			m.scheduleReconnect()
		}
		return nil
	}
	err := m.roomsRequest(ctx, t, event, rooms)
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}

type roomsPayload struct {
	Rooms []string `json:"rooms"`
}

type successAck struct {
	Success bool `json:"success"`
}

func (m *Manager) roomsRequest(ctx context.Context, t *transport, event string, rooms []string) error {
	resp, err := m.request(ctx, t, event, roomsPayload{Rooms: rooms})
	if err != nil {
		return err
	}
	var ack successAck
	if err := json.Unmarshal(resp, &ack); err != nil {
		return fmt.Errorf("decode %s ack: %w", event, err)
	}
	if !ack.Success {
		return fmt.Errorf("%s not acknowledged", event)
	}
	return nil
}

// Emit sends an event and waits for the server's acknowledgement.
func (m *Manager) Emit(ctx context.Context, event string, data any) (json.RawMessage, error) {
	t, err := m.current()
	if err != nil {
		return nil, err
	}
	return m.request(ctx, t, event, data)
}

// Send sends an event without requesting an acknowledgement.
func (m *Manager) Send(event string, data any) error {
	t, err := m.current()
	if err != nil {
		return err
	}
	return t.send(event, data, 0)
}

func (m *Manager) current() (*transport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.transport == nil {
		return nil, ErrNotConnected
	}
	return m.transport, nil
}

func (m *Manager) request(ctx context.Context, t *transport, event string, data any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.AckTimeout)
	defer cancel()
	return t.request(ctx, event, data, m.ackSeq.Add(1))
}

// SendMessage posts a chat message. Rejections by the server are reported
// in the result; the error covers transport failures only.
func (m *Manager) SendMessage(ctx context.Context, in MessageInput) (SendResult, error) {
	resp, err := m.Emit(ctx, eventMessageSend, in)
	if err != nil {
		return SendResult{}, err
	}
	var out SendResult
	if err := json.Unmarshal(resp, &out); err != nil {
		return SendResult{}, fmt.Errorf("decode message:send ack: %w", err)
	}
	return out, nil
}

// Reauthorize presents a fresh credential on the live connection. On
// success the token replaces the held credential for later reconnects. On
// rejection the server closes the connection and the Manager
// reauthenticates.
func (m *Manager) Reauthorize(ctx context.Context, token string) error {
	resp, err := m.Emit(ctx, eventAuthorization, map[string]string{"socketToken": token})
	if err != nil {
		return err
	}
	var ack successAck
	if err := json.Unmarshal(resp, &ack); err != nil {
		return fmt.Errorf("decode authorization ack: %w", err)
	}
	if !ack.Success {
		return ErrAuthRejected
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

// Close shuts the connection down and stops reconnecting. It must not be
// called from a Handler.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	t := m.transport
	m.transport = nil
	notify := m.transitionLocked(StateDisconnected)
	m.mu.Unlock()

	m.cancel()
	if t != nil {
		t.close()
	}
	notify()
	m.wg.Wait()
	return nil
}

func (m *Manager) setState(to State) {
	m.mu.Lock()
	notify := m.transitionLocked(to)
	m.mu.Unlock()
	notify()
}

// transitionLocked records the new state and returns a func that notifies
// listeners. Callers hold m.mu and invoke the func after unlocking.
func (m *Manager) transitionLocked(to State) func() {
	from := m.state
	if from == to {
		return func() {}
	}
	m.state = to
	listeners := slices.Clone(m.listeners)
	return func() {
		for _, fn := range listeners {
			fn(from, to)
		}
	}
}

// spawn runs fn on a tracked goroutine unless the Manager is closed.
func (m *Manager) spawn(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
	return true
}
