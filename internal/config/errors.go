// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "errors"

var (
	// ErrInvalidPort is returned when a stream port is out of range or duplicated.
	ErrInvalidPort = errors.New("invalid stream port")

	// ErrInvalidGeometry is returned when a stream geometry describes an empty frame.
	ErrInvalidGeometry = errors.New("invalid stream geometry")

	// ErrInvalidFrameRate is returned when the capture cadence is out of range.
	ErrInvalidFrameRate = errors.New("invalid frame rate")

	// ErrInvalidQueueDepth is returned when the session queue tuning is out of range.
	ErrInvalidQueueDepth = errors.New("invalid broadcast tuning")
)
