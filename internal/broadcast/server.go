// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package broadcast implements the multi-channel frame broadcast layer:
// one TCP listener per sensor stream, fanning every produced frame out to
// all connected clients without ever blocking the capture path.
package broadcast

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// StreamConfig declares one channel the server carries.
type StreamConfig struct {
	Name      string
	Port      int
	FrameSize int
}

// Config holds the static configuration of a broadcast server.
type Config struct {
	Streams      []StreamConfig
	QueueDepth   int
	WriteTimeout time.Duration
	Logger       zerolog.Logger
}

// Server aggregates one Channel per configured stream. All channels start
// and stop together: a single failed bind aborts startup and rolls back
// channels already opened.
type Server struct {
	logger   zerolog.Logger
	channels []*Channel
	byStream map[string]*Channel
	started  bool
}

// New validates cfg and builds a server in Created state.
func New(cfg Config) (*Server, error) {
	if len(cfg.Streams) == 0 {
		return nil, ErrNoStreams
	}

	ports := make(map[int]string, len(cfg.Streams))
	byStream := make(map[string]*Channel, len(cfg.Streams))
	channels := make([]*Channel, 0, len(cfg.Streams))

	for _, sc := range cfg.Streams {
		if sc.Name == "" {
			return nil, fmt.Errorf("stream with port %d has no name", sc.Port)
		}
		if sc.FrameSize <= 0 {
			return nil, fmt.Errorf("stream %s: frame size must be positive, got %d", sc.Name, sc.FrameSize)
		}
		if _, dup := byStream[sc.Name]; dup {
			return nil, fmt.Errorf("stream %s declared twice", sc.Name)
		}
		if other, dup := ports[sc.Port]; dup && sc.Port != 0 {
			return nil, fmt.Errorf("%w: %d used by %s and %s", ErrDuplicatePort, sc.Port, other, sc.Name)
		}
		ports[sc.Port] = sc.Name

		ch := NewChannel(ChannelConfig{
			Stream:       sc.Name,
			Port:         sc.Port,
			FrameSize:    sc.FrameSize,
			QueueDepth:   cfg.QueueDepth,
			WriteTimeout: cfg.WriteTimeout,
			Logger:       cfg.Logger,
		})
		channels = append(channels, ch)
		byStream[sc.Name] = ch
	}

	return &Server{
		logger:   cfg.Logger,
		channels: channels,
		byStream: byStream,
	}, nil
}

// Start opens every channel. If any bind fails, channels opened by this
// call are closed again and the error identifies the failing stream/port.
// The listeners are ready when Start returns.
func (s *Server) Start() error {
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	for i, ch := range s.channels {
		if err := ch.Listen(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = s.channels[j].Close()
			}
			return fmt.Errorf("start broadcast server: %w", err)
		}
	}

	s.logger.Info().
		Str("event", "broadcast.server_started").
		Int("channels", len(s.channels)).
		Msg("broadcast server started")
	return nil
}

// Broadcast delivers payload to every client of the named stream. The
// capture callback calls this at the sensor's native rate; it never blocks
// on network I/O and never fails because of a client.
func (s *Server) Broadcast(stream string, payload []byte) error {
	ch, ok := s.byStream[stream]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStream, stream)
	}
	return ch.Broadcast(payload)
}

// Channel returns the channel carrying the named stream, or nil.
func (s *Server) Channel(stream string) *Channel {
	return s.byStream[stream]
}

// Sessions returns a snapshot of live sessions across all channels.
func (s *Server) Sessions() []SessionInfo {
	var infos []SessionInfo
	for _, ch := range s.channels {
		infos = append(infos, ch.Sessions()...)
	}
	return infos
}

// Stop closes every channel. Individual close failures are collected but
// never abort the remaining closes: shutdown always completes. Idempotent.
func (s *Server) Stop() error {
	var errs []error
	for _, ch := range s.channels {
		if err := ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s channel: %w", ch.Stream(), err))
		}
	}

	s.logger.Info().
		Str("event", "broadcast.server_stopped").
		Msg("broadcast server stopped")
	return errors.Join(errs...)
}
