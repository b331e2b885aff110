// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

/*
Package middleware provides the HTTP middleware shared by every route of the
gateway.

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: request counters, latency histogram, active gauge
  - AccessLog: per-request debug line, slow requests at warn

All middleware here wraps the response writer with a recorder that still
implements http.Flusher and http.Hijacker, so the SSE stream and the socket
upgrade can sit behind it.

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
*/
package middleware
