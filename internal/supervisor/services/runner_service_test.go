// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/gateway"
	"github.com/tomtom215/chairside/internal/sse"
)

func TestRunnerService_Names(t *testing.T) {
	hub := gateway.NewHub(8)
	broker := sse.NewBroker(config.SSEConfig{Heartbeat: time.Second})

	tests := []struct {
		svc  *RunnerService
		want string
	}{
		{NewHubService(hub), "socket-hub"},
		{NewJanitorService(broker), "sse-janitor"},
		{NewRunnerService("custom", func(context.Context) error { return nil }), "custom"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var _ suture.Service = tt.svc
			if got := tt.svc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunnerService_StopsOnCancel(t *testing.T) {
	hub := gateway.NewHub(8)
	broker := sse.NewBroker(config.SSEConfig{Heartbeat: 10 * time.Millisecond})

	for _, svc := range []*RunnerService{NewHubService(hub), NewJanitorService(broker)} {
		t.Run(svc.String(), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() { errCh <- svc.Serve(ctx) }()

			time.Sleep(30 * time.Millisecond)
			cancel()

			select {
			case err := <-errCh:
				if !errors.Is(err, context.Canceled) {
					t.Errorf("Serve() = %v, want context.Canceled", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Serve did not return")
			}
		})
	}
}

func TestRunnerService_RestartedBySupervisor(t *testing.T) {
	var runs atomic.Int32
	svc := NewRunnerService("flaky", func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("transient")
		}
		<-ctx.Done()
		return ctx.Err()
	})

	sup := suture.New("test", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	<-sup.ServeBackground(ctx)

	if runs.Load() < 3 {
		t.Errorf("runs = %d, want at least 3", runs.Load())
	}
}
