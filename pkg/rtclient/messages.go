// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package rtclient

import "time"

// MessageInput is the body of message:send.
type MessageInput struct {
	PatientID string `json:"patientId"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
}

// Message is a stored chat message.
type Message struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SendResult is the server's answer to message:send. Error is one of
// invalid_payload, server_error or rate_limited when OK is false.
type SendResult struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error,omitempty"`
	Message *Message `json:"message,omitempty"`
}
