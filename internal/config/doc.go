// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

/*
Package config loads the gateway configuration with koanf in three layers:

 1. Built-in defaults (defaultConfig, structs provider)
 2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/chairside/config.yaml)
 3. Environment variables, mapped explicitly by envTransformFunc

The merged result is unmarshalled into Config and validated. Config is
immutable after Load and safe for concurrent reads.

Sections:

  - server: listen address, HTTP timeouts, environment
  - security: JWT secret, token lifetimes, CORS origins, session cookie
  - gateway: socket path, handshake timeout, buffers, inbound rate limit
  - sse: heartbeat interval and per-subscriber buffer
  - nats: cross-process event intake
  - database: Postgres message store and its circuit breaker
  - logging: level, format, caller
  - supervisor: suture failure thresholds and shutdown timeout

Example:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
*/
package config
