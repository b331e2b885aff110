// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/chairside/internal/events"
)

// Memory keeps messages in process memory. Contents are lost on restart.
type Memory struct {
	mu       sync.RWMutex
	messages []events.Message
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// CreateMessage implements MessageStore.
func (s *Memory) CreateMessage(ctx context.Context, m NewMessage) (events.Message, error) {
	if err := ctx.Err(); err != nil {
		return events.Message{}, err
	}
	msg := events.Message{
		ID:        uuid.NewString(),
		PatientID: m.PatientID,
		Sender:    m.Sender,
		Content:   m.Content,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return msg, nil
}

// Messages returns the stored messages for a patient in insertion order.
func (s *Memory) Messages(patientID string) []events.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []events.Message
	for i := range s.messages {
		if s.messages[i].PatientID == patientID {
			out = append(out, s.messages[i])
		}
	}
	return out
}
