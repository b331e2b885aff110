// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults with secret", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.Security.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short secret allowed in development", func(c *Config) { c.Security.JWTSecret = "dev" }, ""},
		{
			"short secret in production",
			func(c *Config) {
				c.Server.Environment = "production"
				c.Security.JWTSecret = "short"
				c.Security.CORSOrigins = []string{"https://clinic.example.org"}
			},
			"at least 32 characters",
		},
		{
			"placeholder secret in production",
			func(c *Config) {
				c.Server.Environment = "prod"
				c.Security.JWTSecret = "CHANGEME_CHANGEME_CHANGEME_CHANGEME"
				c.Security.CORSOrigins = []string{"https://clinic.example.org"}
			},
			"placeholder",
		},
		{"wildcard cors in production", func(c *Config) { c.Server.Environment = "production" }, "wildcard"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"relative gateway path", func(c *Config) { c.Gateway.Path = "rt/ws" }, "RT_PATH"},
		{"zero handshake timeout", func(c *Config) { c.Gateway.HandshakeTimeout = 0 }, "RT_HANDSHAKE_TIMEOUT"},
		{"tiny message size", func(c *Config) { c.Gateway.MaxMessageSize = 10 }, "RT_MAX_MESSAGE_SIZE"},
		{"zero heartbeat", func(c *Config) { c.SSE.Heartbeat = 0 }, "SSE_HEARTBEAT"},
		{"nats without url", func(c *Config) { c.NATS.Enabled = true; c.NATS.URL = "" }, "NATS_URL"},
		{"nats wildcard prefix", func(c *Config) { c.NATS.Enabled = true; c.NATS.SubjectPrefix = "events.>" }, "NATS_SUBJECT_PREFIX"},
		{"mysql database url", func(c *Config) { c.Database.URL = "mysql://x" }, "DATABASE_URL"},
		{"postgres database url", func(c *Config) { c.Database.URL = "postgres://u:p@db:5432/clinic" }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 4100
	if got := cfg.Addr(); got != "127.0.0.1:4100" {
		t.Errorf("Addr() = %q, want 127.0.0.1:4100", got)
	}
}
