// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateGateway,
		c.validateSSE,
		c.validateNATS,
		c.validateDatabase,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() {
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if containsPlaceholder(c.Security.JWTSecret) {
			return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
		}
		if c.hasWildcardCORS() {
			return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production: " +
				"the socket and SSE endpoints accept credentials. Set specific origins, e.g. " +
				"CORS_ORIGINS=https://clinic.example.com")
		}
	}
	if c.Security.SocketTokenTTL <= 0 {
		return fmt.Errorf("SOCKET_TOKEN_TTL must be positive")
	}
	if c.Security.SessionCookie == "" {
		return fmt.Errorf("SESSION_COOKIE must not be empty")
	}
	if c.Security.TokenRateLimit < 0 {
		return fmt.Errorf("TOKEN_RATE_LIMIT must not be negative")
	}
	if c.Security.TokenRateLimit > 0 && c.Security.TokenRateWindow <= 0 {
		return fmt.Errorf("TOKEN_RATE_WINDOW must be positive when TOKEN_RATE_LIMIT is set")
	}
	return nil
}

func (c *Config) validateGateway() error {
	g := c.Gateway
	if !strings.HasPrefix(g.Path, "/") {
		return fmt.Errorf("RT_PATH must start with /")
	}
	if g.HandshakeTimeout <= 0 {
		return fmt.Errorf("RT_HANDSHAKE_TIMEOUT must be positive")
	}
	if g.MaxMessageSize < 512 {
		return fmt.Errorf("RT_MAX_MESSAGE_SIZE must be at least 512 bytes")
	}
	if g.SendBuffer < 1 || g.QueueSize < 1 {
		return fmt.Errorf("RT_SEND_BUFFER and RT_QUEUE_SIZE must be at least 1")
	}
	if g.InboundRate < 0 || g.InboundBurst < 0 {
		return fmt.Errorf("RT_INBOUND_RATE and RT_INBOUND_BURST must not be negative")
	}
	return nil
}

func (c *Config) validateSSE() error {
	if c.SSE.Heartbeat <= 0 {
		return fmt.Errorf("SSE_HEARTBEAT must be positive")
	}
	if c.SSE.BufferSize < 1 {
		return fmt.Errorf("SSE_BUFFER_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	if c.NATS.SubjectPrefix == "" || strings.ContainsAny(c.NATS.SubjectPrefix, " *>") {
		return fmt.Errorf("NATS_SUBJECT_PREFIX must be a literal subject")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.URL == "" {
		return nil
	}
	if !strings.HasPrefix(c.Database.URL, "postgres://") && !strings.HasPrefix(c.Database.URL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must be a postgres:// URL")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DATABASE_MAX_CONNS must be at least 1")
	}
	if c.Database.BreakerFailures < 1 {
		return fmt.Errorf("DB_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// placeholderPatterns indicate a secret that was never filled in.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}
