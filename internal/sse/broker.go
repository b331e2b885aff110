// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

// Package sse serves the one-way fallback event stream.
//
// A subscriber opens GET /events?patientId=&doctorId= and receives every
// published event whose scope passes its filter, framed as
//
//	event: appointment:update
//	data: {"appointment":{...},"__m":{"ts":1760000000000}}
//
// Delivery never blocks the publisher. A subscriber whose buffer is full is
// marked stale and removed by the next Cleanup pass. There is no replay:
// events published before a subscriber connects are never sent to it.
package sse

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/events"
	"github.com/tomtom215/chairside/internal/logging"
	"github.com/tomtom215/chairside/internal/metrics"
)

const (
	defaultHeartbeat  = 25 * time.Second
	defaultBufferSize = 64
)

var readyFrame = []byte("event: " + events.Ready + "\ndata: {\"ok\":true}\n\n")

var heartbeatFrame = []byte(":heartbeat\n\n")

type subscriber struct {
	id     uint64
	filter events.Filter
	ch     chan []byte
	stale  atomic.Bool

	done     chan struct{}
	doneOnce sync.Once
}

func (s *subscriber) end() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Broker fans events out to SSE subscribers.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64

	heartbeat  time.Duration
	bufferSize int
	log        zerolog.Logger
	authLog    *logging.AuthLogger
}

// NewBroker creates a broker. Zero values in cfg select the defaults.
func NewBroker(cfg config.SSEConfig) *Broker {
	b := &Broker{
		subscribers: make(map[uint64]*subscriber),
		heartbeat:   cfg.Heartbeat,
		bufferSize:  cfg.BufferSize,
		log:         logging.WithComponent("sse"),
		authLog:     logging.NewAuthLogger(),
	}
	if b.heartbeat <= 0 {
		b.heartbeat = defaultHeartbeat
	}
	if b.bufferSize <= 0 {
		b.bufferSize = defaultBufferSize
	}
	return b
}

// Heartbeat returns the heartbeat and cleanup interval.
func (b *Broker) Heartbeat() time.Duration {
	return b.heartbeat
}

func (b *Broker) subscribe(f events.Filter) *subscriber {
	s := &subscriber{
		id:     b.nextID.Add(1),
		filter: f,
		ch:     make(chan []byte, b.bufferSize),
		done:   make(chan struct{}),
	}
	b.mu.Lock()
	b.subscribers[s.id] = s
	n := len(b.subscribers)
	b.mu.Unlock()

	metrics.SSESubscribers.Set(float64(n))
	return s
}

func (b *Broker) unsubscribe(s *subscriber) {
	b.mu.Lock()
	delete(b.subscribers, s.id)
	n := len(b.subscribers)
	b.mu.Unlock()

	s.end()
	metrics.SSESubscribers.Set(float64(n))
}

// Broadcast frames event once and hands it to every subscriber whose filter
// matches at least one of scopes; each subscriber gets the event at most
// once. It returns the number of subscribers it reached.
func (b *Broker) Broadcast(event string, payload any, scopes ...events.Scope) (int, error) {
	if len(scopes) == 0 {
		return 0, nil
	}
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return 0, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, s := range b.subscribers {
		if s.stale.Load() || !matchesAny(s.filter, scopes) {
			continue
		}
		select {
		case s.ch <- frame:
			delivered++
		default:
			s.stale.Store(true)
		}
	}
	return delivered, nil
}

// Cleanup removes stale subscribers and ends their responses.
func (b *Broker) Cleanup() int {
	b.mu.Lock()
	var removed []*subscriber
	for id, s := range b.subscribers {
		if s.stale.Load() {
			delete(b.subscribers, id)
			removed = append(removed, s)
		}
	}
	n := len(b.subscribers)
	b.mu.Unlock()

	for _, s := range removed {
		s.end()
	}
	if len(removed) > 0 {
		metrics.SSEStaleRemoved.Add(float64(len(removed)))
		metrics.SSESubscribers.Set(float64(n))
		b.log.Debug().Int("removed", len(removed)).Int("remaining", n).Msg("removed stale subscribers")
	}
	return len(removed)
}

// SubscriberCount returns the number of open subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// ServeHTTP holds the response open and streams matching events until the
// client goes away or the subscription is cleaned up.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	filter := events.Filter{
		PatientID: r.URL.Query().Get("patientId"),
		DoctorID:  r.URL.Query().Get("doctorId"),
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := b.subscribe(filter)
	defer b.unsubscribe(s)

	b.authLog.Log(&logging.AuthEvent{
		Event:     logging.AuthEventSSEConnected,
		Transport: "sse",
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
		Success:   true,
	})
	b.log.Debug().Str("patient_id", filter.PatientID).Str("doctor_id", filter.DoctorID).Msg("sse subscriber connected")

	if _, err := w.Write(readyFrame); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case frame := <-s.ch:
			if _, err := w.Write(frame); err != nil {
				s.stale.Store(true)
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := w.Write(heartbeatFrame); err != nil {
				s.stale.Store(true)
				return
			}
			flusher.Flush()
		}
	}
}

func matchesAny(f events.Filter, scopes []events.Scope) bool {
	for _, scope := range scopes {
		if f.Matches(scope) {
			return true
		}
	}
	return false
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode sse %s: %w", event, err)
	}
	var buf bytes.Buffer
	buf.Grow(len(event) + len(data) + 16)
	buf.WriteString("event: ")
	buf.WriteString(event)
	buf.WriteString("\ndata: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}
