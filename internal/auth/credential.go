// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package auth

import (
	"net/http"
	"strings"
)

// SocketTokenName is the key of the socket credential in the handshake
// payload, the request header and the cookie.
const SocketTokenName = "socket_token"

// ExtractCredential returns the socket credential for a new connection.
// Lookup order: handshake payload, socket_token header, socket_token cookie.
// The first non-empty value wins.
func ExtractCredential(payload map[string]any, header http.Header, cookies []*http.Cookie) (string, error) {
	if v, ok := payload[SocketTokenName].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	if v := strings.TrimSpace(header.Get(SocketTokenName)); v != "" {
		return v, nil
	}
	for _, c := range cookies {
		if c.Name == SocketTokenName && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", ErrNoToken
}

// SessionCredential returns the session token of an HTTP request: the named
// cookie first, then an Authorization: Bearer header.
func SessionCredential(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
