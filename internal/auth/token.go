// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/chairside/internal/config"
)

// Token audiences.
const (
	AudienceSocket  = "socket"
	AudienceSession = "session"
)

// Issuer is stamped on every token this package mints.
const Issuer = "chairside"

// DefaultSocketTokenTTL is the validity of a socket token.
const DefaultSocketTokenTTL = 30 * time.Minute

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// ErrNoToken is returned when no credential is presented.
var ErrNoToken = errors.New("no token")

// Identity is the authenticated principal behind a connection.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Claims represents the JWT claims of both token kinds.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the principal carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// TokenService issues and verifies socket and session tokens.
type TokenService struct {
	secret     []byte
	socketTTL  time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a token service from the security configuration.
//
// Returns an error if the JWT secret is empty. The secret length policy is
// enforced by config.Validate.
func NewTokenService(cfg *config.SecurityConfig) (*TokenService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}

	socketTTL := cfg.SocketTokenTTL
	if socketTTL == 0 {
		socketTTL = DefaultSocketTokenTTL
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL == 0 {
		sessionTTL = 24 * time.Hour
	}

	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		socketTTL:  socketTTL,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}, nil
}

// SocketTokenTTL returns the configured socket token validity.
func (s *TokenService) SocketTokenTTL() time.Duration {
	return s.socketTTL
}

// IssueSocketToken mints a socket token for an authenticated user.
//
// Returns the signed token and its expiry.
func (s *TokenService) IssueSocketToken(id Identity) (string, time.Time, error) {
	return s.issue(id, AudienceSocket, s.socketTTL)
}

// IssueSessionToken mints a session token. Production session tokens come
// from the login service; this exists for development tooling and tests.
func (s *TokenService) IssueSessionToken(id Identity) (string, time.Time, error) {
	return s.issue(id, AudienceSession, s.sessionTTL)
}

func (s *TokenService) issue(id Identity, audience string, ttl time.Duration) (string, time.Time, error) {
	if id.UserID == "" {
		return "", time.Time{}, fmt.Errorf("issue %s token: user id is required", audience)
	}

	now := s.now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   id.UserID,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

// VerifySocketToken validates a socket token.
//
// Fails with ErrInvalidToken on a bad signature, a non-HMAC algorithm, an
// elapsed expiry, or a non-socket audience.
func (s *TokenService) VerifySocketToken(token string) (*Claims, error) {
	return s.verify(token, AudienceSocket)
}

// VerifySessionToken validates a session token.
func (s *TokenService) VerifySessionToken(token string) (*Claims, error) {
	return s.verify(token, AudienceSession)
}

// VerifyAccessToken validates either a socket or a session token. It backs
// the in-band authorization message, which accepts both.
func (s *TokenService) VerifyAccessToken(token string) (*Claims, error) {
	claims, err := s.verify(token, "")
	if err != nil {
		return nil, err
	}
	if !hasAudience(claims, AudienceSocket) && !hasAudience(claims, AudienceSession) {
		return nil, fmt.Errorf("%w: unexpected audience", ErrInvalidToken)
	}
	return claims, nil
}

func (s *TokenService) verify(tokenString, audience string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return claims, nil
}

func hasAudience(c *Claims, aud string) bool {
	for _, a := range c.Audience {
		if a == aud {
			return true
		}
	}
	return false
}
