// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/chairside/internal/auth"
	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/events"
	"github.com/tomtom215/chairside/internal/logging"
	"github.com/tomtom215/chairside/internal/store"
)

// TokenVerifier checks socket and access tokens. *auth.TokenService
// implements it.
type TokenVerifier interface {
	VerifySocketToken(token string) (*auth.Claims, error)
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// MessagePublisher fans a stored message out to its listeners.
type MessagePublisher interface {
	MessageCreated(ctx context.Context, msg events.Message)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Hub       *Hub
	Tokens    TokenVerifier
	Messages  store.MessageStore
	Publisher MessagePublisher
}

// Server upgrades HTTP requests to realtime connections.
type Server struct {
	hub       *Hub
	tokens    TokenVerifier
	messages  store.MessageStore
	publisher MessagePublisher

	cfg            config.GatewayConfig
	allowedOrigins []string
	upgrader       websocket.Upgrader
	authLog        *logging.AuthLogger
	log            zerolog.Logger
}

// NewServer creates a Server. Zero-valued limits in cfg fall back to
// defaults.
func NewServer(deps Deps, cfg config.GatewayConfig, allowedOrigins []string) *Server {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 64 * 1024
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}

	s := &Server{
		hub:            deps.Hub,
		tokens:         deps.Tokens,
		messages:       deps.Messages,
		publisher:      deps.Publisher,
		cfg:            cfg,
		allowedOrigins: allowedOrigins,
		authLog:        logging.NewAuthLogger(),
		log:            logging.WithComponent("gateway"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      s.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return s
}

// Hub returns the server's hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP upgrades the request and starts the connection goroutines.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	newConn(s, ws, r).start()
}

// checkOrigin validates the Origin header against the allowed origins.
// Requests without Origin (non-browser clients) pass only when the list
// contains "*".
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" {
			return true
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return true
		}
	}
	if origin == "" {
		s.log.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}
	s.log.Warn().Str("origin", logging.SanitizeError(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}
