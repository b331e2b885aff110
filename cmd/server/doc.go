// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

// Package main is the entry point of the Chairside realtime gateway.
//
// Chairside pushes clinic events (chat messages, appointment changes,
// treatment progress) to browsers over an authenticated socket, with an
// SSE stream as fallback for clients that cannot hold a socket.
//
// # Startup
//
//  1. Configuration: defaults, config.yaml, then environment (koanf v2)
//  2. Token service for socket and session tokens
//  3. Message store: PostgreSQL when DATABASE_URL is set, memory otherwise,
//     behind a circuit breaker
//  4. Socket hub, SSE broker and the publisher that fans out to both
//  5. NATS event intake when NATS_ENABLED=true
//  6. HTTP router and server
//  7. Supervisor tree (messaging and api layers)
//
// # Configuration
//
// Required:
//   - JWT_SECRET: 32+ characters in production
//
// Common:
//   - SERVER_PORT (default 4000)
//   - SECURITY_CORS_ORIGINS: comma-separated allowed origins
//   - DATABASE_URL: postgres://... for durable chat history
//   - NATS_ENABLED, NATS_URL: cross-process event intake
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
// server, closes every socket and SSE stream, then drains NATS.
//
// # Example
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export SECURITY_CORS_ORIGINS=https://clinic.example
//	./chairside
package main
