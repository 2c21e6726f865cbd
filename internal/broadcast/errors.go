// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package broadcast

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPayload is returned when a payload does not match the channel's fixed frame size.
	ErrInvalidPayload = errors.New("payload size does not match channel frame size")

	// ErrAlreadyListening is returned when Listen is called on a channel that is not in Created state.
	ErrAlreadyListening = errors.New("channel already listening or closed")

	// ErrAlreadyStarted is returned when Start is called on a server twice.
	ErrAlreadyStarted = errors.New("server already started")

	// ErrUnknownStream is returned when a broadcast names a stream the server does not carry.
	ErrUnknownStream = errors.New("unknown stream")

	// ErrNoStreams is returned when a server is configured without any streams.
	ErrNoStreams = errors.New("at least one stream is required")

	// ErrDuplicatePort is returned when two streams are configured with the same port.
	ErrDuplicatePort = errors.New("duplicate stream port")
)

// BindError reports a channel that could not bind its listening port.
// It is fatal to server startup: Start rolls back already-open channels.
type BindError struct {
	Stream string
	Port   int
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s channel on port %d: %v", e.Stream, e.Port, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
