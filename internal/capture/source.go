// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package capture defines the boundary to the frame-producing side of the
// system. The proprietary sensor driver lives behind the Source interface;
// the built-in synthetic source generates test-pattern frames at the
// configured rate so the daemon runs end to end without hardware.
package capture

import (
	"context"
	"time"
)

// Broadcaster is the narrow slice of the broadcast server the capture path
// needs. Calls must return promptly: the capture cycle is latency-critical
// and performs no network I/O of its own.
type Broadcaster interface {
	Broadcast(stream string, payload []byte) error
}

// Source produces frames until ctx is cancelled. Run blocks; it returns
// nil on cancellation and an error only on unrecoverable capture failure.
type Source interface {
	Run(ctx context.Context) error

	// LastFrame reports when the source last produced a frame, for
	// readiness probes. The zero time means no frame yet.
	LastFrame() time.Time
}
