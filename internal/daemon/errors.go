// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingBroadcaster is returned when the app is created without a broadcast server.
	ErrMissingBroadcaster = errors.New("broadcaster is required")

	// ErrMissingSource is returned when the app is created without a capture source.
	ErrMissingSource = errors.New("capture source is required")
)
