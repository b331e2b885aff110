// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package publisher

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/chairside/internal/events"
	"github.com/tomtom215/chairside/internal/metrics"
)

type socketCall struct {
	event   string
	payload json.RawMessage
	target  events.Target
}

type fakeSockets struct {
	mu    sync.Mutex
	calls []socketCall
	err   error
}

func (f *fakeSockets) Emit(event string, payload any, target events.Target) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, _ := payload.(json.RawMessage)
	f.calls = append(f.calls, socketCall{event: event, payload: raw, target: target})
	return f.err
}

type sseCall struct {
	event  string
	scopes []events.Scope
}

type fakeSSE struct {
	mu    sync.Mutex
	calls []sseCall
}

func (f *fakeSSE) Broadcast(event string, _ any, scopes ...events.Scope) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sseCall{event: event, scopes: scopes})
	return len(scopes), nil
}

func newTestPublisher() (*Publisher, *fakeSockets, *fakeSSE) {
	sockets := &fakeSockets{}
	broker := &fakeSSE{}
	p := New(sockets, broker)
	p.now = func() time.Time { return time.UnixMilli(1760000000000) }
	return p, sockets, broker
}

func TestPublish_StampsAndFansOut(t *testing.T) {
	p, sockets, broker := newTestPublisher()
	scope := events.Scope{PatientID: "p1", DoctorID: "d1"}

	if err := p.AppointmentUpdated(context.Background(), map[string]string{"id": "a1"}, scope, "doctor-1"); err != nil {
		t.Fatal(err)
	}

	if len(sockets.calls) != 1 {
		t.Fatalf("socket calls = %d, want 1", len(sockets.calls))
	}
	call := sockets.calls[0]
	if call.event != events.AppointmentUpdate || call.target.Scope != scope {
		t.Errorf("socket call = %+v", call)
	}
	ts, ok := events.StampedAt(call.payload)
	if !ok || ts.UnixMilli() != 1760000000000 {
		t.Errorf("payload %s not stamped with fixed time", call.payload)
	}

	if len(broker.calls) != 1 || !reflect.DeepEqual(broker.calls[0].scopes, []events.Scope{scope}) {
		t.Errorf("sse calls = %+v, want one with the event scope", broker.calls)
	}
}

func TestPublish_RoomTargets(t *testing.T) {
	p, sockets, broker := newTestPublisher()

	target := events.ToRooms(events.UserRoom("u1"), events.PatientRoom("p1"))
	if err := p.Publish(context.Background(), events.TreatmentUpdate, events.TreatmentPayload{Procedure: "crown"}, target); err != nil {
		t.Fatal(err)
	}
	if len(sockets.calls) != 1 || !reflect.DeepEqual(sockets.calls[0].target.Rooms, target.Rooms) {
		t.Errorf("socket calls = %+v", sockets.calls)
	}
	want := []events.Scope{{PatientID: "p1"}}
	if len(broker.calls) != 1 || !reflect.DeepEqual(broker.calls[0].scopes, want) {
		t.Errorf("sse calls = %+v, want scopes %v", broker.calls, want)
	}

	if err := p.Publish(context.Background(), events.TreatmentUpdate, nil, events.ToRooms(events.UserRoom("u1"))); err != nil {
		t.Fatal(err)
	}
	if len(broker.calls) != 1 {
		t.Errorf("user-room-only publish reached sse: %+v", broker.calls)
	}
}

func TestPublish_SocketDropIsNotAnError(t *testing.T) {
	p, sockets, broker := newTestPublisher()
	sockets.err = errors.New("queue full")

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(events.MessageNew, metrics.ChannelSSE))
	p.MessageCreated(context.Background(), events.Message{ID: "m1", PatientID: "p1"})

	if len(broker.calls) != 1 {
		t.Errorf("sse should still receive the event")
	}
	if delta := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(events.MessageNew, metrics.ChannelSSE)) - before; delta != 1 {
		t.Errorf("sse publish counter delta = %v, want 1", delta)
	}
}

func TestPublish_UnencodablePayload(t *testing.T) {
	p, sockets, _ := newTestPublisher()
	if err := p.Publish(context.Background(), events.MessageNew, make(chan int), events.ToAll()); err == nil {
		t.Error("expected encode error")
	}
	if len(sockets.calls) != 0 {
		t.Error("nothing should be emitted")
	}
}

func TestPublish_NilChannels(t *testing.T) {
	p := New(nil, nil)
	if err := p.TreatmentUpdated(context.Background(), "x", events.Scope{}); err != nil {
		t.Errorf("Publish() with no channels = %v", err)
	}
}

func TestDefaultPublisher(t *testing.T) {
	SetDefault(nil)
	if err := Publish(context.Background(), events.MessageNew, nil, events.ToAll()); err != nil {
		t.Errorf("Publish() without default = %v, want nil", err)
	}

	p, sockets, _ := newTestPublisher()
	SetDefault(p)
	defer SetDefault(nil)

	if err := Publish(context.Background(), events.AppointmentCancelled, events.AppointmentCancelledPayload{AppointmentID: "a1"}, events.ToAll()); err != nil {
		t.Fatal(err)
	}
	if Default() != p || len(sockets.calls) != 1 {
		t.Errorf("default publisher not used: %d calls", len(sockets.calls))
	}
}
