// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package services

import "context"

// ContextHub matches gateway.Hub's run loop.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// Janitor matches sse.Broker's stale-subscriber sweep.
type Janitor interface {
	RunJanitor(ctx context.Context) error
}

// RunnerService adapts a context-scoped loop to suture.Service.
type RunnerService struct {
	run  func(ctx context.Context) error
	name string
}

// NewRunnerService wraps run under name.
func NewRunnerService(name string, run func(ctx context.Context) error) *RunnerService {
	return &RunnerService{run: run, name: name}
}

// NewHubService supervises the socket hub loop.
func NewHubService(hub ContextHub) *RunnerService {
	return NewRunnerService("socket-hub", hub.RunWithContext)
}

// NewJanitorService supervises the SSE stale-subscriber sweep.
func NewJanitorService(j Janitor) *RunnerService {
	return NewRunnerService("sse-janitor", j.RunJanitor)
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.run(ctx)
}

// String implements fmt.Stringer.
func (s *RunnerService) String() string {
	return s.name
}
