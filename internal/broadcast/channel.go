// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package broadcast

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sensegrid/framecast/internal/metrics"
)

// Channel lifecycle states. There is no paused state: a channel that
// stopped listening is closed for good.
const (
	stateCreated int32 = iota
	stateListening
	stateClosed
)

// Channel is one independent frame stream bound to its own TCP port.
//
// The accept loop and every session worker register on wg, so Close can
// wait for all of them with bounded latency: closing the listener unblocks
// Accept, closing each client socket unblocks reads and writes.
type Channel struct {
	stream       string
	port         int
	frameSize    int
	queueDepth   int
	writeTimeout time.Duration
	logger       zerolog.Logger

	state atomic.Int32

	mu       sync.Mutex
	ln       net.Listener
	sessions map[string]*session

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// ChannelConfig holds the static identity of one channel.
type ChannelConfig struct {
	// Stream is the modality name ("color", "depth", ...), used for logs and metrics.
	Stream string

	// Port is the TCP port to bind. Port 0 picks an ephemeral port.
	Port int

	// FrameSize is the fixed payload size; every broadcast must match it exactly.
	FrameSize int

	// QueueDepth bounds each session's send queue. Small values are preferred:
	// frames are large and a stale frame is worthless to a live viewer.
	QueueDepth int

	// WriteTimeout bounds a single frame write; a session that cannot take a
	// full frame within it is treated as failed. Zero disables the deadline.
	WriteTimeout time.Duration

	Logger zerolog.Logger
}

// NewChannel creates a channel in Created state. Listen binds the port.
func NewChannel(cfg ChannelConfig) *Channel {
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = 2
	}
	return &Channel{
		stream:       cfg.Stream,
		port:         cfg.Port,
		frameSize:    cfg.FrameSize,
		queueDepth:   depth,
		writeTimeout: cfg.WriteTimeout,
		logger:       cfg.Logger.With().Str("channel", cfg.Stream).Logger(),
		sessions:     make(map[string]*session),
	}
}

// Stream returns the channel's modality name.
func (c *Channel) Stream() string { return c.stream }

// FrameSize returns the fixed payload size for this channel.
func (c *Channel) FrameSize() int { return c.frameSize }

// Port returns the bound port once listening, or the configured port before.
func (c *Channel) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ln != nil {
		if addr, ok := c.ln.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return c.port
}

// Listen binds the channel's port and starts the accept loop. It returns
// once the listener is ready; accepting happens on a dedicated goroutine.
// A failed bind is fatal to the channel and reported as a *BindError.
func (c *Channel) Listen() error {
	if !c.state.CompareAndSwap(stateCreated, stateListening) {
		return ErrAlreadyListening
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", c.port))
	if err != nil {
		c.state.Store(stateClosed)
		return &BindError{Stream: c.stream, Port: c.port, Err: err}
	}

	c.mu.Lock()
	c.ln = ln
	c.mu.Unlock()

	c.wg.Add(1)
	go c.acceptLoop(ln)

	c.logger.Info().
		Str("event", "broadcast.channel_listening").
		Int("port", c.Port()).
		Int("frame_size", c.frameSize).
		Msg("channel listening")
	return nil
}

func (c *Channel) acceptLoop(ln net.Listener) {
	defer c.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if c.state.Load() == stateClosed || errors.Is(err, net.ErrClosed) {
				return
			}
			// Unplanned accept failure: the channel stops taking new
			// clients but existing sessions keep streaming.
			c.logger.Error().
				Err(err).
				Str("event", "broadcast.accept_failed").
				Msg("accept loop terminated")
			return
		}

		sess := newSession(c.stream, conn, c.queueDepth, c.writeTimeout, c.logger, c.removeSession)

		// Registration and worker accounting happen under the same lock that
		// Close uses to snapshot the session set, so a session is either seen
		// by Close or refused here, never leaked.
		c.mu.Lock()
		if c.state.Load() != stateListening {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.sessions[sess.id] = sess
		c.wg.Add(2)
		c.mu.Unlock()

		metrics.IncSessionsActive(c.stream)
		sess.start(&c.wg)

		c.logger.Info().
			Str("event", "broadcast.session_accepted").
			Str("session_id", sess.id).
			Str("remote_addr", conn.RemoteAddr().String()).
			Msg("client connected")
	}
}

// Broadcast fans payload out to every connected session. It never blocks
// on any client socket: each session gets the frame enqueued (or dropped
// per the session's policy) and the call returns.
//
// The payload buffer is owned by the caller and may be overwritten as soon
// as Broadcast returns; one defensive copy is shared across all sessions.
// Calling Broadcast on a channel that is not listening is a no-op, since
// capture callbacks may race with teardown.
func (c *Channel) Broadcast(payload []byte) error {
	if c.state.Load() != stateListening {
		return nil
	}
	if len(payload) != c.frameSize {
		return fmt.Errorf("%w: channel %s got %d bytes, want %d", ErrInvalidPayload, c.stream, len(payload), c.frameSize)
	}

	start := time.Now()
	metrics.IncFrameBroadcast(c.stream)

	c.mu.Lock()
	if len(c.sessions) == 0 {
		c.mu.Unlock()
		return nil
	}
	targets := make([]*session, 0, len(c.sessions))
	for _, s := range c.sessions {
		targets = append(targets, s)
	}
	c.mu.Unlock()

	// One copy per broadcast, immutable from here on, shared by all queues.
	buf := make([]byte, len(payload))
	copy(buf, payload)

	for _, s := range targets {
		s.enqueue(buf)
	}

	metrics.ObserveBroadcastDuration(c.stream, time.Since(start))
	return nil
}

// Close stops accepting, terminates every session and releases the
// listening socket. It is idempotent and waits for the accept loop and all
// session workers to exit; closing the sockets bounds that wait.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		prev := c.state.Swap(stateClosed)

		c.mu.Lock()
		ln := c.ln
		targets := make([]*session, 0, len(c.sessions))
		for _, s := range c.sessions {
			targets = append(targets, s)
		}
		c.sessions = make(map[string]*session)
		c.mu.Unlock()

		if ln != nil {
			_ = ln.Close()
		}
		for _, s := range targets {
			s.close()
		}
		c.wg.Wait()

		if prev == stateListening {
			c.logger.Info().
				Str("event", "broadcast.channel_closed").
				Msg("channel closed")
		}
	})
	return nil
}

// SessionCount returns the number of currently registered sessions.
func (c *Channel) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Sessions returns a snapshot of the live sessions on this channel.
func (c *Channel) Sessions() []SessionInfo {
	c.mu.Lock()
	targets := make([]*session, 0, len(c.sessions))
	for _, s := range c.sessions {
		targets = append(targets, s)
	}
	c.mu.Unlock()

	infos := make([]SessionInfo, 0, len(targets))
	for _, s := range targets {
		infos = append(infos, s.info())
	}
	return infos
}

// removeSession drops a dead session from the set. Invoked exactly once
// per session via its close path.
func (c *Channel) removeSession(s *session) {
	c.mu.Lock()
	_, ok := c.sessions[s.id]
	if ok {
		delete(c.sessions, s.id)
	}
	c.mu.Unlock()

	metrics.DecSessionsActive(c.stream)
	c.logger.Info().
		Str("event", "broadcast.session_closed").
		Str("session_id", s.id).
		Int64("bytes_sent", s.bytesSent.Load()).
		Uint64("dropped_frames", s.dropped.Load()).
		Msg("client disconnected")
}
