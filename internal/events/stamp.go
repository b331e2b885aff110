// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// MetaKey is the payload key carrying delivery metadata.
const MetaKey = "__m"

// Meta is the metadata stamped onto every published payload.
type Meta struct {
	TS int64 `json:"ts"`
}

// Stamp returns the JSON encoding of payload with "__m":{"ts":<unix ms>}
// added. The caller's value is never modified. Payloads that do not encode
// to a JSON object are wrapped as {"data":<payload>,"__m":...}.
func Stamp(payload any, now time.Time) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		obj = map[string]json.RawMessage{"data": raw}
	}

	meta, err := json.Marshal(Meta{TS: now.UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}
	obj[MetaKey] = meta

	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode stamped payload: %w", err)
	}
	return out, nil
}

// StampedAt extracts __m.ts from a stamped payload.
func StampedAt(payload []byte) (time.Time, bool) {
	var env struct {
		M *Meta `json:"__m"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || env.M == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(env.M.TS), true
}
