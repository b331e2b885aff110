// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

/*
Package auth verifies the credentials presented on the realtime surface and
mints the short-lived socket tokens the client library connects with.

Two token kinds share one HMAC secret and are told apart by audience:

  - session tokens ("session" audience) are issued by the clinic's login
    service. The gateway only verifies them, on the socket-token endpoint
    and in the in-band authorization message.
  - socket tokens ("socket" audience) are minted by TokenService for an
    already-authenticated user and are valid for 30 minutes by default.

Both carry {userId, email, role}. All verification failures wrap
ErrInvalidToken so callers can map them to the INVALID_TOKEN wire reason.

Usage:

	tokens, err := auth.NewTokenService(&cfg.Security)
	if err != nil {
	    return err
	}
	tok, exp, err := tokens.IssueSocketToken(auth.Identity{UserID: "u1", Role: "doctor"})

	claims, err := tokens.VerifySocketToken(tok)
	if errors.Is(err, auth.ErrInvalidToken) {
	    // reply core:auth:error INVALID_TOKEN
	}

Credential lookup for a new socket follows ExtractCredential: the
handshake payload's socket_token, then the socket_token header, then the
socket_token cookie.
*/
package auth
