// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/chairside/internal/auth"
	"github.com/tomtom215/chairside/internal/events"
	"github.com/tomtom215/chairside/internal/logging"
	"github.com/tomtom215/chairside/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	inboundQueue    = 16
	unregisterGrace = 5 * time.Second
)

// connSeq orders connections for deterministic delivery.
var connSeq atomic.Uint64

// Conn is one client socket.
type Conn struct {
	id  string
	seq uint64
	ws  *websocket.Conn
	srv *Server

	// send is never closed; writePump stops on quit.
	send    chan []byte
	inbound chan Frame

	quit      chan struct{}
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	// Owned by the hub loop.
	identity auth.Identity
	rooms    map[string]struct{}

	// Owned by the serve goroutine.
	limiter    *rate.Limiter
	header     http.Header
	cookies    []*http.Cookie
	remoteAddr string
	createdAt  time.Time

	log zerolog.Logger
}

func newConn(srv *Server, ws *websocket.Conn, r *http.Request) *Conn {
	id := uuid.NewString()
	ctx := logging.ContextWithLogger(context.Background(), srv.log)
	ctx, cancel := context.WithCancel(logging.ContextWithConnID(ctx, id))
	c := &Conn{
		id:        id,
		seq:       connSeq.Add(1),
		ws:        ws,
		srv:       srv,
		send:      make(chan []byte, srv.cfg.SendBuffer),
		inbound:   make(chan Frame, inboundQueue),
		quit:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		rooms:     make(map[string]struct{}),
		createdAt: time.Now(),
		log:       srv.log.With().Str("conn_id", id).Logger(),
	}
	if srv.cfg.InboundRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(srv.cfg.InboundRate), srv.cfg.InboundBurst)
	}
	if r != nil {
		c.header = r.Header.Clone()
		c.cookies = r.Cookies()
		c.remoteAddr = r.RemoteAddr
	}
	return c
}

// ID returns the connection's opaque identifier.
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) start() {
	go c.writePump()
	go c.readPump()
	go c.serve()
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.quit)
	})
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// sendFrame queues a frame from the connection's own goroutine, waiting
// for buffer space unless the connection closes first.
func (c *Conn) sendFrame(b []byte) {
	select {
	case c.send <- b:
	case <-c.quit:
	}
}

func (c *Conn) sendEvent(event string, data any) {
	b, err := EncodeEvent(event, data)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to encode event")
		return
	}
	c.sendFrame(b)
}

func (c *Conn) sendAck(id uint64, data any) {
	if id == 0 {
		return
	}
	b, err := EncodeAck(id, data)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to encode ack")
		return
	}
	c.sendFrame(b)
}

// readPump decodes client frames into the inbound queue.
func (c *Conn) readPump() {
	defer func() {
		close(c.inbound)
		c.close()
	}()

	c.ws.SetReadLimit(c.srv.cfg.MaxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("unexpected websocket close")
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		if mt != websocket.TextMessage {
			continue
		}

		f, err := DecodeFrame(data)
		if err != nil {
			metrics.RTErrors.WithLabelValues("malformed_frame").Inc()
			c.log.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}

		select {
		case c.inbound <- f:
		case <-c.quit:
			return
		}
	}
}

// writePump writes queued frames and keepalive pings. On quit it flushes
// whatever is already queued, sends a close frame and closes the socket.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case b := <-c.send:
			if err := c.write(websocket.TextMessage, b); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.quit:
			c.flush()
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Conn) flush() {
	for {
		select {
		case b := <-c.send:
			if err := c.write(websocket.TextMessage, b); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(mt int, b []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(mt, b)
}

// serve runs the handshake and then dispatches client frames in order.
func (c *Conn) serve() {
	defer c.finish()

	if !c.handshake() {
		return
	}

	for {
		select {
		case f, ok := <-c.inbound:
			if !ok {
				return
			}
			c.dispatch(f)
		case <-c.quit:
			return
		}
	}
}

func (c *Conn) finish() {
	c.close()
	ctx, cancel := context.WithTimeout(context.Background(), unregisterGrace)
	defer cancel()
	if err := c.srv.hub.unregister(ctx, c); err != nil && !errors.Is(err, ErrHubStopped) {
		c.log.Warn().Err(err).Msg("failed to unregister connection")
	}
	c.log.Debug().Dur("lifetime", time.Since(c.createdAt)).Msg("connection closed")
}

// handshake waits for the connect frame, verifies the credential and
// registers the connection. It reports whether the connection is now
// authenticated.
func (c *Conn) handshake() bool {
	timer := time.NewTimer(c.srv.cfg.HandshakeTimeout)
	defer timer.Stop()

	var payload map[string]any
	select {
	case f, ok := <-c.inbound:
		if !ok {
			return false
		}
		if f.Event == events.Connect {
			if err := decodeData(f, &payload); err != nil {
				c.log.Debug().Err(err).Msg("ignoring malformed connect payload")
			}
		} else {
			c.log.Debug().Str("event", f.Event).Msg("frame before connect dropped")
		}
	case <-timer.C:
		c.log.Debug().Msg("no connect frame before handshake timeout")
	case <-c.quit:
		return false
	}

	token, err := auth.ExtractCredential(payload, c.header, c.cookies)
	if err != nil {
		c.reject(events.ReasonNoToken)
		return false
	}
	claims, err := c.srv.tokens.VerifySocketToken(token)
	if err != nil {
		c.log.Debug().Err(err).Msg("socket token rejected")
		c.reject(events.ReasonInvalidToken)
		return false
	}

	id := claims.Identity()
	hello, err := EncodeEvent(events.AuthSuccess, AuthSuccessData{OK: true})
	if err != nil {
		c.log.Error().Err(err).Msg("failed to encode auth success")
		return false
	}
	if err := c.srv.hub.register(c.ctx, c, id, hello); err != nil {
		c.log.Warn().Err(err).Msg("failed to register connection")
		return false
	}
	c.srv.authLog.HandshakeSucceeded(c.id, id.UserID, c.remoteAddr)
	return true
}

// reject sends core:auth:error and closes the connection.
func (c *Conn) reject(reason string) {
	metrics.RecordAuthFailure(reason)
	c.srv.authLog.HandshakeFailed(c.id, c.remoteAddr, reason)
	c.sendEvent(events.AuthError, AuthErrorData{Error: reason})
	c.close()
}
