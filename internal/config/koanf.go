// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/chairside/config.yaml",
	"/etc/chairside/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all defaults applied.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        4000,
			Host:        "0.0.0.0",
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 120 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			SocketTokenTTL:  30 * time.Minute,
			SessionTTL:      24 * time.Hour,
			SessionCookie:   "session",
			CookieSecure:    true,
			CORSOrigins:     []string{"*"},
			TokenRateLimit:  30,
			TokenRateWindow: time.Minute,
		},
		Gateway: GatewayConfig{
			Path:             "/rt/ws",
			HandshakeTimeout: 10 * time.Second,
			MaxMessageSize:   64 * 1024,
			SendBuffer:       256,
			QueueSize:        1024,
			InboundRate:      20,
			InboundBurst:     40,
		},
		SSE: SSEConfig{
			Heartbeat:  25 * time.Second,
			BufferSize: 64,
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "chairside.events",
			QueueGroup:    "",
			ReconnectWait: 2 * time.Second,
			MaxReconnects: -1,
		},
		Database: DatabaseConfig{
			URL:                "",
			MaxConns:           10,
			BreakerMaxRequests: 3,
			BreakerInterval:    time.Minute,
			BreakerTimeout:     30 * time.Second,
			BreakerFailures:    5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file and
// environment variables, in increasing priority, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"http_port":         "server.port",
	"http_host":         "server.host",
	"http_read_timeout": "server.read_timeout",
	"http_idle_timeout": "server.idle_timeout",
	"environment":       "server.environment",
	"public_origin":     "server.public_origin",

	// Security
	"jwt_secret":        "security.jwt_secret",
	"socket_token_ttl":  "security.socket_token_ttl",
	"session_ttl":       "security.session_ttl",
	"session_cookie":    "security.session_cookie",
	"cookie_secure":     "security.cookie_secure",
	"cors_origins":      "security.cors_origins",
	"token_rate_limit":  "security.token_rate_limit",
	"token_rate_window": "security.token_rate_window",

	// Gateway
	"rt_path":              "gateway.path",
	"rt_handshake_timeout": "gateway.handshake_timeout",
	"rt_max_message_size":  "gateway.max_message_size",
	"rt_send_buffer":       "gateway.send_buffer",
	"rt_queue_size":        "gateway.queue_size",
	"rt_inbound_rate":      "gateway.inbound_rate",
	"rt_inbound_burst":     "gateway.inbound_burst",

	// SSE
	"sse_heartbeat":   "sse.heartbeat",
	"sse_buffer_size": "sse.buffer_size",

	// NATS
	"nats_enabled":        "nats.enabled",
	"nats_url":            "nats.url",
	"nats_subject_prefix": "nats.subject_prefix",
	"nats_queue_group":    "nats.queue_group",
	"nats_reconnect_wait": "nats.reconnect_wait",
	"nats_max_reconnects": "nats.max_reconnects",

	// Database
	"database_url":            "database.url",
	"database_max_conns":      "database.max_conns",
	"db_breaker_max_requests": "database.breaker_max_requests",
	"db_breaker_interval":     "database.breaker_interval",
	"db_breaker_timeout":      "database.breaker_timeout",
	"db_breaker_failures":     "database.breaker_failures",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - JWT_SECRET -> security.jwt_secret
//   - RT_HANDSHAKE_TIMEOUT -> gateway.handshake_timeout
//   - SSE_HEARTBEAT -> sse.heartbeat
//   - DATABASE_URL -> database.url
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
