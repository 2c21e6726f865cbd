// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capture

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensegrid/framecast/internal/frame"
)

// recordingSink captures every broadcast by stream name.
type recordingSink struct {
	mu    sync.Mutex
	sizes map[string][]int
}

func (r *recordingSink) Broadcast(stream string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sizes == nil {
		r.sizes = make(map[string][]int)
	}
	r.sizes[stream] = append(r.sizes[stream], len(payload))
	return nil
}

func (r *recordingSink) counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.sizes))
	for k, v := range r.sizes {
		out[k] = len(v)
	}
	return out
}

func TestSyntheticProducesFixedSizeFrames(t *testing.T) {
	sink := &recordingSink{}
	src := NewSynthetic(SyntheticConfig{
		Color:     frame.Color(16, 8),
		Depth:     frame.Depth16(16, 8),
		Infrared:  frame.Depth16(16, 8),
		FrameRate: 200,
		Logger:    zerolog.New(io.Discard),
	}, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	require.NoError(t, src.Run(ctx))

	counts := sink.counts()
	require.Greater(t, counts[frame.StreamColor], 0, "no color frames produced")
	assert.Equal(t, counts[frame.StreamColor], counts[frame.StreamDepth])
	assert.Equal(t, counts[frame.StreamColor], counts[frame.StreamInfrared])

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, n := range sink.sizes[frame.StreamColor] {
		assert.Equal(t, 16*8*4, n)
	}
	for _, n := range sink.sizes[frame.StreamDepth] {
		assert.Equal(t, 16*8*2, n)
	}

	// Audio is observed but never materialized into a payload.
	assert.Zero(t, counts[frame.StreamAudio])
	assert.Equal(t, uint64(counts[frame.StreamColor]), src.AudioBlocks())
}

func TestSyntheticLastFrame(t *testing.T) {
	sink := &recordingSink{}
	src := NewSynthetic(SyntheticConfig{
		Color:     frame.Color(4, 4),
		Depth:     frame.Depth16(4, 4),
		Infrared:  frame.Depth16(4, 4),
		FrameRate: 500,
		Logger:    zerolog.New(io.Discard),
	}, sink)

	assert.True(t, src.LastFrame().IsZero())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, src.Run(ctx))

	assert.WithinDuration(t, time.Now(), src.LastFrame(), time.Second)
}
