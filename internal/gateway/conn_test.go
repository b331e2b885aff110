// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package gateway

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/logging"
)

func TestNewConn_ContextLogger(t *testing.T) {
	var buf bytes.Buffer
	srv := NewServer(Deps{}, config.GatewayConfig{}, nil)
	srv.log = logging.NewTestLogger(&buf)

	c := newConn(srv, nil, nil)
	defer c.close()

	if got := logging.ConnIDFromContext(c.ctx); got != c.id {
		t.Errorf("ConnIDFromContext() = %q, want %q", got, c.id)
	}

	logging.Ctx(c.ctx).Info().Msg("message persisted")
	output := buf.String()
	for _, want := range []string{`"conn_id":"` + c.id + `"`, "message persisted"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
}
