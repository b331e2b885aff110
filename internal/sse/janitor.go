// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package sse

import (
	"context"
	"time"
)

// RunJanitor runs Cleanup every heartbeat interval until ctx is canceled.
// On shutdown every remaining subscription is ended.
func (b *Broker) RunJanitor(ctx context.Context) error {
	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return ctx.Err()
		case <-ticker.C:
			b.Cleanup()
		}
	}
}

func (b *Broker) closeAll() {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = make(map[uint64]*subscriber)
	b.mu.Unlock()

	for _, s := range subs {
		s.end()
	}
	b.log.Info().Int("subscribers_closed", len(subs)).Msg("sse broker stopped")
}
