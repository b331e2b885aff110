// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package events

import "strings"

// Room name prefixes.
const (
	UserRoomPrefix    = "u:"
	PatientRoomPrefix = "patient:"
	DoctorRoomPrefix  = "doctor:"
)

// UserRoom returns the per-user room every authenticated socket joins.
func UserRoom(userID string) string { return UserRoomPrefix + userID }

// PatientRoom returns the room for everything concerning one patient.
func PatientRoom(patientID string) string { return PatientRoomPrefix + patientID }

// DoctorRoom returns the room for everything concerning one doctor.
func DoctorRoom(doctorID string) string { return DoctorRoomPrefix + doctorID }

// Scope carries the optional routing fields of a domain event.
type Scope struct {
	PatientID string `json:"patientId,omitempty"`
	DoctorID  string `json:"doctorId,omitempty"`
}

// IsGlobal reports whether the scope carries no routing fields.
func (s Scope) IsGlobal() bool {
	return s.PatientID == "" && s.DoctorID == ""
}

// Filter is a listener's constraint on which events it receives.
type Filter struct {
	PatientID string `json:"patientId,omitempty"`
	DoctorID  string `json:"doctorId,omitempty"`
}

// IsZero reports whether the filter accepts everything.
func (f Filter) IsZero() bool {
	return f.PatientID == "" && f.DoctorID == ""
}

// Matches reports whether an event with the given scope passes the filter.
// Each filter field is either unset or equal to the event's value.
func (f Filter) Matches(s Scope) bool {
	if f.PatientID != "" && f.PatientID != s.PatientID {
		return false
	}
	if f.DoctorID != "" && f.DoctorID != s.DoctorID {
		return false
	}
	return true
}

// FilterFromRoom derives the role filter implied by a room name.
// ok is false for rooms without one (u:<id> and free-form names).
func FilterFromRoom(room string) (f Filter, ok bool) {
	switch {
	case strings.HasPrefix(room, PatientRoomPrefix) && len(room) > len(PatientRoomPrefix):
		return Filter{PatientID: room[len(PatientRoomPrefix):]}, true
	case strings.HasPrefix(room, DoctorRoomPrefix) && len(room) > len(DoctorRoomPrefix):
		return Filter{DoctorID: room[len(DoctorRoomPrefix):]}, true
	default:
		return Filter{}, false
	}
}

// Target addresses a publication either to explicit rooms or to a scope.
type Target struct {
	Rooms []string
	Scope Scope
}

// ToRooms targets explicit rooms.
func ToRooms(rooms ...string) Target {
	return Target{Rooms: rooms}
}

// ToScope targets every listener whose filter matches scope. A zero scope
// reaches every authenticated listener.
func ToScope(scope Scope) Target {
	return Target{Scope: scope}
}

// ToAll is the global target.
func ToAll() Target {
	return Target{}
}

// HasRooms reports whether the target is room based.
func (t Target) HasRooms() bool {
	return len(t.Rooms) > 0
}

// SSEScopes returns the scopes a room-based target maps to on the SSE
// channel. Rooms without a role filter (u:<id>) are socket-only and
// contribute nothing.
func (t Target) SSEScopes() []Scope {
	if !t.HasRooms() {
		return []Scope{t.Scope}
	}
	var scopes []Scope
	for _, room := range t.Rooms {
		f, ok := FilterFromRoom(room)
		if !ok {
			continue
		}
		scopes = append(scopes, Scope(f))
	}
	return scopes
}
