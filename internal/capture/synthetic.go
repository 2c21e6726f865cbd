// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sensegrid/framecast/internal/frame"
	"github.com/sensegrid/framecast/internal/metrics"
)

// SyntheticConfig configures the built-in test-pattern source.
type SyntheticConfig struct {
	Color     frame.Geometry
	Depth     frame.Geometry
	Infrared  frame.Geometry
	FrameRate int // frames per second, e.g. 30
	Logger    zerolog.Logger
}

// Synthetic produces a moving test pattern for the color, depth and
// infrared streams at a fixed rate. Audio frame arrival is observed and
// counted, but no audio payload is constructed; that part of the hardware
// contract is still provisional.
//
// All frame buffers are allocated once and overwritten in place each
// cycle, mirroring how the real driver reuses its capture buffers. The
// broadcast layer copies before the next cycle, so this is safe.
type Synthetic struct {
	sink   Broadcaster
	cfg    SyntheticConfig
	logger zerolog.Logger

	color    []byte
	depth    []byte
	infrared []byte

	seq         uint64
	audioBlocks atomic.Uint64
	lastFrame   atomic.Int64 // unix nanos
}

// NewSynthetic allocates the per-stream buffers and returns a source that
// feeds sink at cfg.FrameRate.
func NewSynthetic(cfg SyntheticConfig, sink Broadcaster) *Synthetic {
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	return &Synthetic{
		sink:     sink,
		cfg:      cfg,
		logger:   cfg.Logger.With().Str("component", "capture").Logger(),
		color:    make([]byte, cfg.Color.Size()),
		depth:    make([]byte, cfg.Depth.Size()),
		infrared: make([]byte, cfg.Infrared.Size()),
	}
}

// Run generates frames until ctx is cancelled. The limiter paces cycles at
// the configured rate with burst 1, like a hardware callback cadence.
func (s *Synthetic) Run(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Limit(s.cfg.FrameRate), 1)

	s.logger.Info().
		Str("event", "capture.started").
		Int("frame_rate", s.cfg.FrameRate).
		Int("color_bytes", len(s.color)).
		Int("depth_bytes", len(s.depth)).
		Msg("synthetic capture source started")

	for {
		if err := limiter.Wait(ctx); err != nil {
			s.logger.Info().
				Str("event", "capture.stopped").
				Uint64("frames", s.seq).
				Msg("capture source stopped")
			return nil
		}
		s.cycle()
	}
}

// cycle is one capture callback: fill the reused buffers, hand each to the
// broadcaster. Broadcast errors never propagate past the capture path.
func (s *Synthetic) cycle() {
	s.seq++
	s.lastFrame.Store(time.Now().UnixNano())

	s.fillColor()
	s.deliver(frame.StreamColor, s.color)

	s.fillGradient16(s.depth)
	s.deliver(frame.StreamDepth, s.depth)

	s.fillGradient16(s.infrared)
	s.deliver(frame.StreamInfrared, s.infrared)

	// Audio arrival is observed only; no payload is materialized yet.
	s.audioBlocks.Add(1)
	metrics.IncCaptureFrame(frame.StreamAudio)
}

func (s *Synthetic) deliver(stream string, payload []byte) {
	metrics.IncCaptureFrame(stream)
	if err := s.sink.Broadcast(stream, payload); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event", "capture.broadcast_failed").
			Str("stream", stream).
			Msg("frame not broadcast")
	}
}

// fillColor writes a scrolling BGRA gradient.
func (s *Synthetic) fillColor() {
	shift := byte(s.seq)
	for i := 0; i+3 < len(s.color); i += 4 {
		s.color[i] = byte(i) + shift // B
		s.color[i+1] = byte(i >> 8)  // G
		s.color[i+2] = shift         // R
		s.color[i+3] = 0xFF          // A
	}
}

// fillGradient16 writes a scrolling 16-bit ramp, little-endian.
func (s *Synthetic) fillGradient16(buf []byte) {
	shift := uint16(s.seq)
	for i := 0; i+1 < len(buf); i += 2 {
		v := uint16(i/2) + shift
		buf[i] = byte(v)
		buf[i+1] = byte(v >> 8)
	}
}

// LastFrame reports when the last capture cycle ran.
func (s *Synthetic) LastFrame() time.Time {
	n := s.lastFrame.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// AudioBlocks returns the number of observed (unmaterialized) audio blocks.
func (s *Synthetic) AudioBlocks() uint64 {
	return s.audioBlocks.Load()
}
