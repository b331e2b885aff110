// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all gateway configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Gateway    GatewayConfig    `koanf:"gateway"`
	SSE        SSEConfig        `koanf:"sse"`
	NATS       NATSConfig       `koanf:"nats"`
	Database   DatabaseConfig   `koanf:"database"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `koanf:"port"`
	Host         string        `koanf:"host"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	Environment  string        `koanf:"environment"` // development, staging, production
	PublicOrigin string        `koanf:"public_origin"`
}

// SecurityConfig holds token and cross-origin settings.
type SecurityConfig struct {
	// JWTSecret signs socket tokens and verifies session tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// SocketTokenTTL is the validity of minted socket tokens.
	// Default: 30m
	SocketTokenTTL time.Duration `koanf:"socket_token_ttl"`

	// SessionTTL is used only when this process mints session tokens
	// (development tooling).
	SessionTTL time.Duration `koanf:"session_ttl"`

	// SessionCookie is the cookie carrying the session token on
	// /rt/issue-socket-token.
	SessionCookie string `koanf:"session_cookie"`

	// CookieSecure sets the Secure attribute on the socket_token cookie.
	CookieSecure bool `koanf:"cookie_secure"`

	CORSOrigins []string `koanf:"cors_origins"`

	// TokenRateLimit is the per-IP request budget of the token endpoint
	// within TokenRateWindow.
	TokenRateLimit  int           `koanf:"token_rate_limit"`
	TokenRateWindow time.Duration `koanf:"token_rate_window"`
}

// GatewayConfig holds socket gateway settings.
type GatewayConfig struct {
	Path             string        `koanf:"path"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
	MaxMessageSize   int64         `koanf:"max_message_size"`
	SendBuffer       int           `koanf:"send_buffer"`
	QueueSize        int           `koanf:"queue_size"`

	// InboundRate is the sustained client frame rate per connection
	// (frames/second); InboundBurst is the bucket size.
	InboundRate  float64 `koanf:"inbound_rate"`
	InboundBurst int     `koanf:"inbound_burst"`
}

// SSEConfig holds fallback channel settings.
type SSEConfig struct {
	Heartbeat  time.Duration `koanf:"heartbeat"`
	BufferSize int           `koanf:"buffer_size"`
}

// NATSConfig holds cross-process event intake settings.
type NATSConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
	// QueueGroup load-balances envelopes across subscribers sharing it.
	// Leave empty so every gateway instance sees every event.
	QueueGroup    string        `koanf:"queue_group"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	MaxReconnects int           `koanf:"max_reconnects"`
}

// DatabaseConfig holds the message store settings. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int32  `koanf:"max_conns"`

	// Circuit breaker around the store.
	BreakerMaxRequests uint32        `koanf:"breaker_max_requests"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
	BreakerFailures    uint32        `koanf:"breaker_failures"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// SupervisorConfig holds suture tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load loads configuration using the layered koanf approach.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
