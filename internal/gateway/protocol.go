// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package gateway

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chairside/internal/events"
)

// Frame is the unit of the wire protocol in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   uint64          `json:"ack,omitempty"`
}

// outFrame is the encoded shape of a server frame.
type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	Ack   uint64 `json:"ack,omitempty"`
}

// RoomsPayload is the body of join and leave.
type RoomsPayload struct {
	Rooms []string `json:"rooms"`
}

// AuthorizationPayload is the body of an in-band authorization message.
type AuthorizationPayload struct {
	SocketToken string `json:"socketToken,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// Token returns whichever credential was supplied, socket token first.
func (p AuthorizationPayload) Token() string {
	if p.SocketToken != "" {
		return p.SocketToken
	}
	return p.AccessToken
}

// SendMessagePayload is the body of message:send.
type SendMessagePayload struct {
	PatientID string `json:"patientId" validate:"required"`
	Sender    string `json:"sender" validate:"required,oneof=patient doctor"`
	Content   string `json:"content" validate:"required"`
}

// SuccessAck acknowledges join, leave and authorization.
type SuccessAck struct {
	Success bool `json:"success"`
}

// SendAck acknowledges message:send.
type SendAck struct {
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	Message *events.Message `json:"message,omitempty"`
}

// message:send error codes.
const (
	ErrCodeInvalidPayload = "invalid_payload"
	ErrCodeServerError    = "server_error"
	ErrCodeRateLimited    = "rate_limited"
)

// AuthSuccessData is the body of core:auth:success.
type AuthSuccessData struct {
	OK bool `json:"ok"`
}

// AuthErrorData is the body of core:auth:error.
type AuthErrorData struct {
	Error string `json:"error"`
}

// EncodeEvent encodes a server event frame.
func EncodeEvent(event string, data any) ([]byte, error) {
	b, err := json.Marshal(outFrame{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return b, nil
}

// EncodeAck encodes an acknowledgement for the request with the given id.
func EncodeAck(id uint64, data any) ([]byte, error) {
	b, err := json.Marshal(outFrame{Event: events.Ack, Data: data, Ack: id})
	if err != nil {
		return nil, fmt.Errorf("encode ack frame: %w", err)
	}
	return b, nil
}

// DecodeFrame parses a client frame.
func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("decode frame: missing event")
	}
	return f, nil
}

// decodeData unmarshals frame data into v. Empty data leaves v untouched.
func decodeData(f Frame, v any) error {
	if len(f.Data) == 0 || string(f.Data) == "null" {
		return nil
	}
	return json.Unmarshal(f.Data, v)
}
