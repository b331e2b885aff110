// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// Auth audit event names.
const (
	AuthEventHandshakeOK     = "socket_auth_success"
	AuthEventHandshakeFailed = "socket_auth_failed"
	AuthEventReauthOK        = "socket_reauth_success"
	AuthEventReauthFailed    = "socket_reauth_failed"
	AuthEventTokenIssued     = "socket_token_issued"
	AuthEventTokenDenied     = "socket_token_denied"
	AuthEventSSEConnected    = "sse_connected"
)

// AuthEvent is a single authentication outcome on the realtime surface.
type AuthEvent struct {
	Event     string
	UserID    string
	Email     string
	ConnID    string
	Transport string // "socket", "sse" or "http"
	IPAddress string
	UserAgent string
	Reason    string
	Success   bool
}

// AuthLogger writes auth audit lines. Identifiers and credentials are
// masked before they reach the log stream.
type AuthLogger struct {
	logger zerolog.Logger
}

// NewAuthLogger creates an auth logger on top of the global logger.
func NewAuthLogger() *AuthLogger {
	return &AuthLogger{logger: With().Str("component", "auth").Logger()}
}

// NewAuthLoggerWithLogger creates an auth logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAuthLoggerWithLogger(logger zerolog.Logger) *AuthLogger {
	return &AuthLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// Log writes the event. Failures are logged at warn level.
func (l *AuthLogger) Log(ev *AuthEvent) {
	var e *zerolog.Event
	if ev.Success {
		e = l.logger.Info().Str("status", "success")
	} else {
		e = l.logger.Warn().Str("status", "failed")
	}
	e = e.Str("event", ev.Event)

	if ev.Transport != "" {
		e = e.Str("transport", ev.Transport)
	}
	if ev.ConnID != "" {
		e = e.Str("conn_id", ev.ConnID)
	}
	if ev.UserID != "" {
		e = e.Str("user_id", SanitizeUserID(ev.UserID))
	}
	if ev.Email != "" {
		e = e.Str("email", SanitizeEmail(ev.Email))
	}
	if ev.IPAddress != "" {
		e = e.Str("ip", ev.IPAddress)
	}
	if ev.UserAgent != "" {
		e = e.Str("user_agent", truncateString(ev.UserAgent, 100))
	}
	if ev.Reason != "" {
		e = e.Str("reason", SanitizeError(ev.Reason))
	}
	e.Msg("realtime auth event")
}

// HandshakeSucceeded records a socket that authenticated on connect.
func (l *AuthLogger) HandshakeSucceeded(connID, userID, ip string) {
	l.Log(&AuthEvent{Event: AuthEventHandshakeOK, Transport: "socket", ConnID: connID, UserID: userID, IPAddress: ip, Success: true})
}

// HandshakeFailed records a rejected socket connection. reason is the wire
// error code (NO_TOKEN or INVALID_TOKEN).
func (l *AuthLogger) HandshakeFailed(connID, ip, reason string) {
	l.Log(&AuthEvent{Event: AuthEventHandshakeFailed, Transport: "socket", ConnID: connID, IPAddress: ip, Reason: reason})
}

// Reauthorized records the outcome of an in-band authorization message.
func (l *AuthLogger) Reauthorized(connID, userID string, success bool, reason string) {
	event := AuthEventReauthOK
	if !success {
		event = AuthEventReauthFailed
	}
	l.Log(&AuthEvent{Event: event, Transport: "socket", ConnID: connID, UserID: userID, Success: success, Reason: reason})
}

// TokenIssued records a socket token minted by the HTTP endpoint.
func (l *AuthLogger) TokenIssued(userID, email, ip string) {
	l.Log(&AuthEvent{Event: AuthEventTokenIssued, Transport: "http", UserID: userID, Email: email, IPAddress: ip, Success: true})
}

// TokenDenied records a refused socket-token request.
func (l *AuthLogger) TokenDenied(ip, userAgent, reason string) {
	l.Log(&AuthEvent{Event: AuthEventTokenDenied, Transport: "http", IPAddress: ip, UserAgent: userAgent, Reason: reason})
}

// SanitizeToken masks a token, showing only first and last 4 characters.
// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9" -> "eyJh...XVCJ9"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUserID masks a user ID.
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeEmail keeps the domain and the first two characters of the local part.
// Example: "dr.smith@clinic.example" -> "dr***@clinic.example"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

// SanitizeError collapses messages that may carry credentials into a generic
// string and truncates the rest.
func SanitizeError(msg string) string {
	lower := strings.ToLower(msg)
	for _, pattern := range []string{"password", "secret", "bearer", "authorization", "cookie", "eyj"} {
		if strings.Contains(lower, pattern) {
			return "authentication error"
		}
	}
	return truncateString(msg, 200)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
