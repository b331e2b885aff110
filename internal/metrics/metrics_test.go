// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// histogramCount returns the sample count of one histogram series.
func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	m, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("%T is not a prometheus.Metric", o)
	}
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return out.GetHistogram().GetSampleCount()
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/rt/issue-socket-token", "200"))
	RecordAPIRequest("GET", "/rt/issue-socket-token", "200", 12*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/rt/issue-socket-token", "200"))

	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestRecordAPIRequest_Duration(t *testing.T) {
	series := APIRequestDuration.WithLabelValues("GET", "/api/v1/health/ready")
	before := histogramCount(t, series)

	RecordAPIRequest("GET", "/api/v1/health/ready", "200", 3*time.Millisecond)
	RecordAPIRequest("GET", "/api/v1/health/ready", "503", 40*time.Millisecond)

	if got := histogramCount(t, series); got != before+2 {
		t.Errorf("sample count = %d, want %d", got, before+2)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestRecordHelpers(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		read   func() float64
	}{
		{
			name:   "publish",
			record: func() { RecordPublish("message:new", ChannelSSE) },
			read:   func() float64 { return testutil.ToFloat64(EventsPublished.WithLabelValues("message:new", ChannelSSE)) },
		},
		{
			name:   "auth failure",
			record: func() { RecordAuthFailure("NO_TOKEN") },
			read:   func() float64 { return testutil.ToFloat64(RTAuthFailures.WithLabelValues("NO_TOKEN")) },
		},
		{
			name:   "drop",
			record: func() { RecordDrop("hub_queue_full") },
			read:   func() float64 { return testutil.ToFloat64(RTDeliveriesDropped.WithLabelValues("hub_queue_full")) },
		},
		{
			name:   "message send",
			record: func() { RecordMessageSend("server_error") },
			read:   func() float64 { return testutil.ToFloat64(MessageSendTotal.WithLabelValues("server_error")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.read()
			tt.record()
			if got := tt.read(); got != before+1 {
				t.Errorf("counter = %v, want %v", got, before+1)
			}
		})
	}
}
