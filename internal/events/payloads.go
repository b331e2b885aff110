// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package events

import "time"

// Message is a chat message between a patient and the care team.
type Message struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessagePayload is the body of message:new.
type MessagePayload struct {
	Message Message `json:"message"`
}

// AppointmentPayload is the body of appointment:new and appointment:update.
// Appointment is opaque to the gateway.
type AppointmentPayload struct {
	Appointment any    `json:"appointment"`
	By          string `json:"by,omitempty"`
}

// AppointmentCancelledPayload is the body of appointment:cancelled.
type AppointmentCancelledPayload struct {
	AppointmentID string `json:"appointmentId"`
	By            string `json:"by,omitempty"`
}

// TreatmentPayload is the body of treatment:update.
type TreatmentPayload struct {
	Procedure any `json:"procedure"`
}
