// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package main

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantBase  string
		wantRooms []string
		errMsg    string
	}{
		{
			name:      "session with rooms",
			args:      []string{"-url", "wss://clinic.example/rt/ws", "-session", "s", "-rooms", "patient:p1, doctor:d1,,"},
			wantBase:  "https://clinic.example",
			wantRooms: []string{"patient:p1", "doctor:d1"},
		},
		{
			name:     "explicit base",
			args:     []string{"-token", "t", "-base", "http://api.local:8080"},
			wantBase: "http://api.local:8080",
		},
		{
			name:     "plain ws keeps port",
			args:     []string{"-url", "ws://localhost:4000/rt/ws", "-token", "t"},
			wantBase: "http://localhost:4000",
		},
		{name: "no credential", args: []string{"-session", ""}, errMsg: "-token or -session"},
		{name: "send without patient", args: []string{"-token", "t", "-send", "hi"}, errMsg: "-send requires -patient"},
		{name: "bad scheme", args: []string{"-token", "t", "-url", "ftp://x/y"}, errMsg: "scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CHAIRSIDE_SESSION", "")
			got, err := parseFlags(tt.args)
			if tt.errMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
					t.Fatalf("parseFlags() error = %v, want containing %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags() error = %v", err)
			}
			if got.base != tt.wantBase {
				t.Errorf("base = %q, want %q", got.base, tt.wantBase)
			}
			if !reflect.DeepEqual(got.rooms, tt.wantRooms) {
				t.Errorf("rooms = %v, want %v", got.rooms, tt.wantRooms)
			}
		})
	}
}
