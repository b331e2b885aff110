// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, want string
	}{
		{"", ""},
		{"short", "***"},
		{"eyJhbGciOiJIUzI1NiJ9.payload.sig", "eyJh....sig"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.input); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, want string
	}{
		{"", ""},
		{"u1", "***"},
		{"user-12345678", "user...5678"},
	}
	for _, tt := range tests {
		if got := SanitizeUserID(tt.input); got != tt.want {
			t.Errorf("SanitizeUserID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, want string
	}{
		{"", ""},
		{"nodomain", "***"},
		{"ab@clinic.example", "***@clinic.example"},
		{"dr.smith@clinic.example", "dr***@clinic.example"},
	}
	for _, tt := range tests {
		if got := SanitizeEmail(tt.input); got != tt.want {
			t.Errorf("SanitizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError("bad Bearer eyJabc"); got != "authentication error" {
		t.Errorf("expected generic message, got %q", got)
	}
	if got := SanitizeError("INVALID_TOKEN"); got != "INVALID_TOKEN" {
		t.Errorf("expected passthrough, got %q", got)
	}
	long := strings.Repeat("x", 300)
	if got := SanitizeError(long); len(got) != 203 {
		t.Errorf("expected truncated length 203, got %d", len(got))
	}
}

func TestAuthLogger_HandshakeSucceeded(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewAuthLoggerWithLogger(NewTestLogger(&buf))
	l.HandshakeSucceeded("c-1", "user-12345678", "10.0.0.1")

	output := buf.String()
	for _, want := range []string{
		`"event":"socket_auth_success"`,
		`"status":"success"`,
		`"user_id":"user...5678"`,
		`"component":"auth"`,
		`"level":"info"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
}

func TestAuthLogger_FailuresAreWarnings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewAuthLoggerWithLogger(NewTestLogger(&buf))
	l.HandshakeFailed("c-2", "10.0.0.2", "NO_TOKEN")
	l.Reauthorized("c-2", "", false, "INVALID_TOKEN")

	output := buf.String()
	if strings.Count(output, `"level":"warn"`) != 2 {
		t.Errorf("expected two warn lines, got: %s", output)
	}
	if !strings.Contains(output, `"reason":"NO_TOKEN"`) {
		t.Errorf("expected NO_TOKEN reason, got: %s", output)
	}
	if !strings.Contains(output, `"event":"socket_reauth_failed"`) {
		t.Errorf("expected reauth failure event, got: %s", output)
	}
}

func TestAuthLogger_TokenIssuedMasksEmail(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewAuthLoggerWithLogger(NewTestLogger(&buf))
	l.TokenIssued("doctor-0001", "dr.smith@clinic.example", "10.0.0.3")

	output := buf.String()
	if strings.Contains(output, "dr.smith@") {
		t.Errorf("expected email to be masked, got: %s", output)
	}
	if !strings.Contains(output, `"transport":"http"`) {
		t.Errorf("expected http transport, got: %s", output)
	}
}
