// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

/*
Package supervisor runs the gateway's long-lived components under a
suture v4 supervisor tree.

The tree has two layers below the root:

	chairside
	├── messaging-layer   socket hub, SSE janitor, NATS event intake
	└── api-layer         HTTP server

A crashing service is restarted by its own layer with suture's failure
backoff. The HTTP server keeps accepting requests while, for example, the
NATS subscriber is reconnecting.

Supervisor lifecycle events are logged through sutureslog, bridged to
zerolog by logging.NewSlogHandler.
*/
package supervisor
