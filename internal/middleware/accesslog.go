// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/chairside/internal/logging"
)

// AccessLog logs every request at debug level and requests slower than
// slow at warn. Long-lived streams (SSE, upgraded sockets) are logged when
// they end; a zero slow disables the warn line.
func AccessLog(slow time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next(rec, r)

			elapsed := time.Since(start)
			log := logging.Ctx(r.Context())
			ev := log.Debug()
			if slow > 0 && elapsed > slow && rec.statusCode != http.StatusSwitchingProtocols && !isEventStream(rec) {
				ev = log.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", rec.statusCode).
				Dur("duration", elapsed).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		}
	}
}

func isEventStream(rec *statusRecorder) bool {
	return rec.Header().Get("Content-Type") == "text/event-stream"
}
