// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateIDs(t *testing.T) {
	t.Parallel()

	if got := GenerateCorrelationID(); len(got) != 8 {
		t.Errorf("expected 8 character correlation id, got %q", got)
	}
	if got := GenerateRequestID(); len(got) != 36 {
		t.Errorf("expected 36 character request id, got %q", got)
	}
	if GenerateRequestID() == GenerateRequestID() {
		t.Error("expected request ids to be unique")
	}
}

func TestContextValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		set  func(context.Context) context.Context
		get  func(context.Context) string
		want string
	}{
		{
			name: "correlation id",
			set:  func(ctx context.Context) context.Context { return ContextWithCorrelationID(ctx, "abc12345") },
			get:  CorrelationIDFromContext,
			want: "abc12345",
		},
		{
			name: "request id",
			set:  func(ctx context.Context) context.Context { return ContextWithRequestID(ctx, "req-1") },
			get:  RequestIDFromContext,
			want: "req-1",
		},
		{
			name: "conn id",
			set:  func(ctx context.Context) context.Context { return ContextWithConnID(ctx, "c-42") },
			get:  ConnIDFromContext,
			want: "c-42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.get(context.Background()); got != "" {
				t.Errorf("expected empty value on bare context, got %q", got)
			}
			if got := tt.get(tt.set(context.Background())); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContextWithNewCorrelationID(t *testing.T) {
	t.Parallel()

	ctx := ContextWithNewCorrelationID(context.Background())
	if CorrelationIDFromContext(ctx) == "" {
		t.Error("expected generated correlation id")
	}
}

func TestCtxAddsFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-9")
	ctx = ContextWithConnID(ctx, "c-7")

	Ctx(ctx).Info().Msg("handshake complete")

	output := buf.String()
	for _, want := range []string{`"request_id":"req-9"`, `"conn_id":"c-7"`, "handshake complete"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
	if strings.Contains(output, "correlation_id") {
		t.Errorf("did not expect correlation_id, got: %s", output)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	log := WithComponent("gateway")
	log.Info().Msg("hub started")

	if !strings.Contains(buf.String(), `"component":"gateway"`) {
		t.Errorf("expected component field, got: %s", buf.String())
	}
}
