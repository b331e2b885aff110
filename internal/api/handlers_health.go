// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the body of /api/v1/health and /api/v1/health/ready.
type HealthStatus struct {
	Status         string  `json:"status"`
	Connections    int     `json:"connections"`
	Rooms          int     `json:"rooms"`
	SSESubscribers int     `json:"sse_subscribers"`
	StoreBreaker   string  `json:"store_breaker,omitempty"`
	Uptime         float64 `json:"uptime"`
}

// Health returns gateway status. It always answers 200; use /ready for gating.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.status()
	NewResponseWriter(w, r).Success(status)
}

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"status": "alive",
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports 503 while the message store breaker is open, since
// message:send cannot succeed in that state.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := h.status()
	if status.Status != "healthy" {
		NewResponseWriter(w, r).SuccessStatus(http.StatusServiceUnavailable, status)
		return
	}
	NewResponseWriter(w, r).Success(status)
}

func (h *Handler) status() HealthStatus {
	stats := h.hub.Stats()
	s := HealthStatus{
		Status:         "healthy",
		Connections:    stats.Connections,
		Rooms:          stats.Rooms,
		SSESubscribers: h.sse.SubscriberCount(),
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if h.breaker != nil {
		s.StoreBreaker = h.breaker.State()
		if s.StoreBreaker == "open" {
			s.Status = "degraded"
		}
	}
	return s
}
