// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package broadcast

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sensegrid/framecast/internal/metrics"
)

// session is one accepted client connection within a channel.
//
// Each session owns two goroutines: a write worker draining the bounded
// send queue, and a read watcher that detects peer-initiated close. Both
// are unblocked by conn.Close, so teardown is bounded even mid-write.
type session struct {
	id      string
	channel string
	conn    net.Conn
	logger  zerolog.Logger

	queue        chan []byte
	writeTimeout time.Duration

	closed    chan struct{}
	closeOnce sync.Once

	startedAt time.Time
	bytesSent atomic.Int64
	dropped   atomic.Uint64

	// onExit is invoked exactly once when the session dies, from any cause.
	// The owning channel uses it to drop the session from its set.
	onExit func(*session)
}

func newSession(channel string, conn net.Conn, queueDepth int, writeTimeout time.Duration, logger zerolog.Logger, onExit func(*session)) *session {
	id := uuid.New().String()
	return &session{
		id:           id,
		channel:      channel,
		conn:         conn,
		logger:       logger.With().Str("session_id", id).Str("remote_addr", conn.RemoteAddr().String()).Logger(),
		queue:        make(chan []byte, queueDepth),
		writeTimeout: writeTimeout,
		closed:       make(chan struct{}),
		startedAt:    time.Now(),
		onExit:       onExit,
	}
}

// start launches the worker goroutines. wg must already account for both.
func (s *session) start(wg *sync.WaitGroup) {
	go s.writeLoop(wg)
	go s.readLoop(wg)
}

// enqueue hands a payload to the session without ever blocking the caller.
// If the queue is full the oldest pending frame is discarded first, so a
// slow client loses frames but always sees the most recent ones.
func (s *session) enqueue(payload []byte) {
	select {
	case <-s.closed:
		return
	default:
	}

	for {
		select {
		case s.queue <- payload:
			return
		default:
		}

		// Queue full: drop the oldest entry and retry. The worker may have
		// drained an entry in between, in which case the drop is a no-op.
		select {
		case <-s.queue:
			s.dropped.Add(1)
			metrics.IncFrameDropped(s.channel)
		default:
		}
	}
}

func (s *session) writeLoop(wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-s.closed:
			return
		case payload := <-s.queue:
			if s.writeTimeout > 0 {
				_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			}
			n, err := s.conn.Write(payload)
			if n > 0 {
				s.bytesSent.Add(int64(n))
				metrics.AddSessionBytes(s.channel, n)
			}
			if err != nil {
				s.logger.Debug().
					Err(err).
					Str("event", "broadcast.session_write_failed").
					Msg("session write failed, removing session")
				s.close()
				return
			}
		}
	}
}

// readLoop watches for peer-initiated close. Inbound bytes are discarded;
// the stream is strictly one-way.
func (s *session) readLoop(wg *sync.WaitGroup) {
	defer wg.Done()

	buf := make([]byte, 1)
	for {
		if _, err := s.conn.Read(buf); err != nil {
			s.close()
			return
		}
	}
}

// close marks the session dead, closes the socket (unblocking both worker
// goroutines) and notifies the owning channel. Idempotent.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
		if s.onExit != nil {
			s.onExit(s)
		}
	})
}

// SessionInfo is a point-in-time snapshot of one live session, exposed on
// the status API.
type SessionInfo struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	RemoteAddr string    `json:"remote_addr"`
	StartedAt  time.Time `json:"started_at"`
	BytesSent  int64     `json:"bytes_sent"`
	Dropped    uint64    `json:"dropped_frames"`
	Queued     int       `json:"queued_frames"`
}

func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:         s.id,
		Channel:    s.channel,
		RemoteAddr: s.conn.RemoteAddr().String(),
		StartedAt:  s.startedAt,
		BytesSent:  s.bytesSent.Load(),
		Dropped:    s.dropped.Load(),
		Queued:     len(s.queue),
	}
}
