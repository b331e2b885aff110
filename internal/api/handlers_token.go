// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package api

import (
	"net/http"

	"github.com/tomtom215/chairside/internal/auth"
	"github.com/tomtom215/chairside/internal/logging"
)

const (
	tokenErrUnauthorized = "unauthorized"
	tokenErrRateLimited  = "rate_limited"
	tokenErrServer       = "server_error"
)

// tokenResponse is the body of /rt/issue-socket-token.
type tokenResponse struct {
	OK          bool   `json:"ok"`
	SocketToken string `json:"socketToken,omitempty"`
	Error       string `json:"error,omitempty"`
}

// IssueSocketToken mints a short-lived socket token for the caller's
// session. The token is returned in the body and as an httpOnly cookie so
// browsers can authenticate the socket handshake without script access.
func (h *Handler) IssueSocketToken(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionCredential(r, h.cfg.Security.SessionCookie)
	if session == "" {
		h.authLog.TokenDenied(clientIP(r), r.UserAgent(), ErrNoSession.Error())
		writeJSON(w, http.StatusUnauthorized, tokenResponse{Error: tokenErrUnauthorized})
		return
	}

	claims, err := h.tokens.VerifySessionToken(session)
	if err != nil {
		h.authLog.TokenDenied(clientIP(r), r.UserAgent(), logging.SanitizeError(err.Error()))
		writeJSON(w, http.StatusUnauthorized, tokenResponse{Error: tokenErrUnauthorized})
		return
	}

	id := claims.Identity()
	token, _, err := h.tokens.IssueSocketToken(id)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to issue socket token")
		writeJSON(w, http.StatusInternalServerError, tokenResponse{Error: tokenErrServer})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SocketTokenName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.SocketTokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Security.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	h.authLog.TokenIssued(id.UserID, id.Email, clientIP(r))
	writeJSON(w, http.StatusOK, tokenResponse{OK: true, SocketToken: token})
}
