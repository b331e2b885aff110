// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package api

import "errors"

var (
	// ErrNoSession means the request carried no session credential.
	ErrNoSession = errors.New("no session credential")

	// ErrMissingDependency is returned by NewRouter for an incomplete Deps.
	ErrMissingDependency = errors.New("missing router dependency")
)
