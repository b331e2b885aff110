// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package main

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/events"
	"github.com/tomtom215/chairside/internal/store"
)

type recordingTree struct {
	added []suture.Service
}

func (r *recordingTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	r.added = append(r.added, svc)
	return suture.ServiceToken{}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any, events.Target) error { return nil }

func TestInitStore_MemoryFallback(t *testing.T) {
	s, closeFn, err := initStore(context.Background(), config.DatabaseConfig{})
	if err != nil {
		t.Fatalf("initStore() error = %v", err)
	}
	defer closeFn()

	if s.State() != "closed" {
		t.Errorf("breaker state = %q, want closed", s.State())
	}
	msg, err := s.CreateMessage(context.Background(), store.NewMessage{
		PatientID: "p1",
		Sender:    "u1",
		Content:   "hello",
	})
	if err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
	if msg.ID == "" {
		t.Error("message has no id")
	}
}

func TestInitStore_BadURL(t *testing.T) {
	_, _, err := initStore(context.Background(), config.DatabaseConfig{URL: "://not a url"})
	if err == nil {
		t.Fatal("initStore() should fail for an unparsable URL")
	}
}

func TestInitNATS_Disabled(t *testing.T) {
	tree := &recordingTree{}
	closeFn, err := initNATS(config.NATSConfig{}, tree, nopPublisher{})
	if err != nil {
		t.Fatal(err)
	}
	closeFn()
	if len(tree.added) != 0 {
		t.Errorf("services added = %d, want 0", len(tree.added))
	}
}

func TestInitNATS_Enabled(t *testing.T) {
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	defer ns.Shutdown()

	tree := &recordingTree{}
	closeFn, err := initNATS(config.NATSConfig{Enabled: true, URL: ns.ClientURL()}, tree, nopPublisher{})
	if err != nil {
		t.Fatalf("initNATS() error = %v", err)
	}
	if len(tree.added) != 1 {
		t.Fatalf("services added = %d, want 1", len(tree.added))
	}

	done := make(chan struct{})
	go func() {
		closeFn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout + time.Second):
		t.Fatal("close did not return")
	}
}
