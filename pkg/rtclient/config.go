// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package rtclient

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Default timings.
const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultAckTimeout     = 10 * time.Second
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 30 * time.Second
)

// Config configures a Manager.
type Config struct {
	// URL is the socket endpoint, e.g. wss://clinic.example/rt/ws.
	URL string

	// Token is an explicit socket token. It is used until the server
	// rejects it; afterwards credentials come from TokenSource.
	Token string

	// TokenSource mints socket tokens on demand.
	TokenSource TokenSource

	// Header is sent with the upgrade request. Origin, when set, is added
	// as the Origin header.
	Header http.Header
	Origin string

	// ConnectTimeout bounds dial plus authentication of one attempt.
	ConnectTimeout time.Duration

	// AckTimeout bounds waiting for an acknowledgement.
	AckTimeout time.Duration

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	Dialer *websocket.Dialer
	Logger *zerolog.Logger
}

func (c *Config) setDefaults() error {
	if c.URL == "" {
		return errors.New("rtclient: URL is required")
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.AckTimeout <= 0 {
		c.AckTimeout = DefaultAckTimeout
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	if c.Dialer == nil {
		c.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: c.ConnectTimeout,
		}
	}
	return nil
}

func (c *Config) header() http.Header {
	h := c.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if c.Origin != "" {
		h.Set("Origin", c.Origin)
	}
	return h
}
