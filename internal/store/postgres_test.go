// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func TestPostgres_CreateMessage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	defer mock.Close()

	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(pgxmock.AnyArg(), "p1", "doctor", "see you at 3").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	s := NewPostgres(mock)
	msg, err := s.CreateMessage(context.Background(), NewMessage{PatientID: "p1", Sender: "doctor", Content: "see you at 3"})
	if err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
	if msg.ID == "" || msg.PatientID != "p1" || msg.Sender != "doctor" {
		t.Errorf("unexpected message %+v", msg)
	}
	if !msg.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", msg.CreatedAt, created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgres_CreateMessageError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	defer mock.Close()

	dbErr := errors.New("connection reset")
	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(pgxmock.AnyArg(), "p1", "patient", "hi").
		WillReturnError(dbErr)

	s := NewPostgres(mock)
	_, err = s.CreateMessage(context.Background(), NewMessage{PatientID: "p1", Sender: "patient", Content: "hi"})
	if !errors.Is(err, dbErr) {
		t.Fatalf("CreateMessage() error = %v, want wrapped %v", err, dbErr)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgres_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS messages").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	if err := NewPostgres(mock).Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
