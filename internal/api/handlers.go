// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/chairside/internal/auth"
	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/gateway"
	"github.com/tomtom215/chairside/internal/logging"
)

// SocketTokenIssuer verifies sessions and mints socket tokens.
// *auth.TokenService satisfies it.
type SocketTokenIssuer interface {
	VerifySessionToken(token string) (*auth.Claims, error)
	IssueSocketToken(id auth.Identity) (string, time.Time, error)
	SocketTokenTTL() time.Duration
}

// HubStats reports socket registry counts.
type HubStats interface {
	Stats() gateway.Stats
}

// SSEHandler serves the fallback event stream.
type SSEHandler interface {
	http.Handler
	SubscriberCount() int
}

// BreakerState reports a circuit breaker state ("closed", "half-open", "open").
type BreakerState interface {
	State() string
}

// Handler holds the HTTP handlers that are not streaming endpoints.
type Handler struct {
	cfg       *config.Config
	tokens    SocketTokenIssuer
	hub       HubStats
	sse       SSEHandler
	breaker   BreakerState
	startTime time.Time
	authLog   *logging.AuthLogger
}

// NewHandler creates the handler set.
func NewHandler(cfg *config.Config, deps Deps) *Handler {
	return &Handler{
		cfg:       cfg,
		tokens:    deps.Tokens,
		hub:       deps.Hub,
		sse:       deps.SSE,
		breaker:   deps.Breaker,
		startTime: time.Now(),
		authLog:   logging.NewAuthLogger(),
	}
}

// clientIP returns the address set by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	return r.RemoteAddr
}
