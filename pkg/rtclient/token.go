// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package rtclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// TokenSource mints socket tokens.
type TokenSource interface {
	FetchToken(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// FetchToken implements TokenSource.
func (f TokenSourceFunc) FetchToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// IssueTokenPath is the token endpoint relative to the server base URL.
const IssueTokenPath = "/rt/issue-socket-token"

// HTTPTokenSource fetches socket tokens from the gateway's token endpoint
// using a session credential.
type HTTPTokenSource struct {
	// BaseURL is the server origin, e.g. https://clinic.example.
	BaseURL string

	// SessionToken is sent as the SessionCookie cookie, or as a bearer
	// token when SessionCookie is empty.
	SessionToken  string
	SessionCookie string

	Client *http.Client
}

type issueTokenResponse struct {
	OK          bool   `json:"ok"`
	SocketToken string `json:"socketToken"`
	Error       string `json:"error"`
}

// FetchToken implements TokenSource. A 401 yields ErrUnauthorized.
func (s *HTTPTokenSource) FetchToken(ctx context.Context) (string, error) {
	url := strings.TrimRight(s.BaseURL, "/") + IssueTokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	if s.SessionToken != "" {
		if s.SessionCookie != "" {
			req.AddCookie(&http.Cookie{Name: s.SessionCookie, Value: s.SessionToken})
		} else {
			req.Header.Set("Authorization", "Bearer "+s.SessionToken)
		}
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("token request: unexpected status %d", resp.StatusCode)
	}

	var out issueTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if !out.OK || out.SocketToken == "" {
		return "", fmt.Errorf("token request: %s", out.Error)
	}
	return out.SocketToken, nil
}
