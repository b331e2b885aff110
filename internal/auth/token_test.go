// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/chairside/internal/config"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func newTestService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(&config.SecurityConfig{JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return svc
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantErr bool
		wantTTL time.Duration
	}{
		{
			name:    "default ttl",
			cfg:     &config.SecurityConfig{JWTSecret: testSecret},
			wantTTL: 30 * time.Minute,
		},
		{
			name:    "configured ttl",
			cfg:     &config.SecurityConfig{JWTSecret: testSecret, SocketTokenTTL: 5 * time.Minute},
			wantTTL: 5 * time.Minute,
		},
		{
			name:    "empty secret",
			cfg:     &config.SecurityConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTokenService(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewTokenService() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTokenService() unexpected error = %v", err)
			}
			if svc.SocketTokenTTL() != tt.wantTTL {
				t.Errorf("SocketTokenTTL() = %v, want %v", svc.SocketTokenTTL(), tt.wantTTL)
			}
		})
	}
}

func TestIssueAndVerifySocketToken(t *testing.T) {
	svc := newTestService(t)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	id := Identity{UserID: "doctor-1", Email: "dr@clinic.example", Role: "doctor"}
	token, exp, err := svc.IssueSocketToken(id)
	if err != nil {
		t.Fatalf("IssueSocketToken() error = %v", err)
	}
	if !exp.Equal(fixed.Add(30 * time.Minute)) {
		t.Errorf("expiry = %v, want %v", exp, fixed.Add(30*time.Minute))
	}

	claims, err := svc.VerifySocketToken(token)
	if err != nil {
		t.Fatalf("VerifySocketToken() error = %v", err)
	}
	if claims.Identity() != id {
		t.Errorf("Identity() = %+v, want %+v", claims.Identity(), id)
	}
	if claims.ID == "" {
		t.Error("expected jti to be set")
	}
}

func TestSocketTokenExpiresAfterTTL(t *testing.T) {
	svc := newTestService(t)
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, _, err := svc.IssueSocketToken(Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("IssueSocketToken() error = %v", err)
	}

	svc.now = func() time.Time { return issued.Add(29 * time.Minute) }
	if _, err := svc.VerifySocketToken(token); err != nil {
		t.Errorf("token should be valid at 29m, got %v", err)
	}

	svc.now = func() time.Time { return issued.Add(31 * time.Minute) }
	if _, err := svc.VerifySocketToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestVerifySocketToken_Invalid(t *testing.T) {
	svc := newTestService(t)
	other, err := NewTokenService(&config.SecurityConfig{JWTSecret: "second_secret_key_that_is_different_from_first_12345"})
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	foreign, _, _ := other.IssueSocketToken(Identity{UserID: "u1"})
	session, _, _ := svc.IssueSessionToken(Identity{UserID: "u1"})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{AudienceSocket},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not_a_jwt_token"},
		{"invalid token format", "invalid.token.format"},
		{"wrong secret", foreign},
		{"session audience", session},
		{"alg none", noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.VerifySocketToken(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("VerifySocketToken() error = %v, want ErrInvalidToken", err)
			}
			if claims != nil {
				t.Error("VerifySocketToken() expected nil claims")
			}
		})
	}
}

func TestVerifyAccessToken(t *testing.T) {
	svc := newTestService(t)
	socket, _, _ := svc.IssueSocketToken(Identity{UserID: "u1"})
	session, _, _ := svc.IssueSessionToken(Identity{UserID: "u2"})

	claims, err := svc.VerifyAccessToken(socket)
	if err != nil || claims.UserID != "u1" {
		t.Errorf("socket token: claims=%v err=%v", claims, err)
	}
	claims, err = svc.VerifyAccessToken(session)
	if err != nil || claims.UserID != "u2" {
		t.Errorf("session token: claims=%v err=%v", claims, err)
	}

	otherAud := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "u3",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"billing"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, _ := otherAud.SignedString([]byte(testSecret))
	if _, err := svc.VerifyAccessToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign audience, got %v", err)
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	svc := newTestService(t)
	if _, _, err := svc.IssueSocketToken(Identity{Email: "x@y.z"}); err == nil {
		t.Error("expected error for empty user id")
	}
}
