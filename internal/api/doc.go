// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

/*
Package api is the HTTP surface of the gateway.

Routes:

	GET  {gateway.path}            socket upgrade (default /rt/ws)
	GET  /events                   SSE fallback channel (?patientId=&doctorId=)
	OPTIONS /events                CORS preflight
	GET  /rt/issue-socket-token    mints a socket token for a session
	GET  /api/v1/health            gateway status
	GET  /api/v1/health/live       liveness probe
	GET  /api/v1/health/ready      readiness probe
	GET  /metrics                  Prometheus exposition

Every route runs behind request-id propagation, RealIP, panic recovery,
CORS, access logging and Prometheus instrumentation. The token endpoint is
rate limited per client IP with go-chi/httprate.

Health endpoints answer with the APIResponse envelope. The token endpoint
keeps the {ok, socketToken} shape the browser client expects.
*/
package api
