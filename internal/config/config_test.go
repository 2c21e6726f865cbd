// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader("", "test").Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 13000, cfg.Ports.Color)
	assert.Equal(t, 13001, cfg.Ports.Depth)
	assert.Equal(t, 13002, cfg.Ports.Infrared)
	assert.Equal(t, 13003, cfg.Ports.Audio)
	assert.Equal(t, 640*480*4, cfg.ColorGeometry().Size())
	assert.Equal(t, 640*480*2, cfg.DepthGeometry().Size())
	assert.Equal(t, 32000, cfg.AudioFormat().BlockSize())
	assert.Equal(t, 2, cfg.Broadcast.QueueDepth)
	assert.Equal(t, "test", cfg.Version)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
log_level: debug
ports:
  color: 14000
  depth: 14001
  infrared: 14002
  audio: 14003
video:
  width: 320
  height: 240
  frame_rate: 15
broadcast:
  queue_depth: 3
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 14000, cfg.Ports.Color)
	assert.Equal(t, 320*240*4, cfg.ColorGeometry().Size())
	assert.Equal(t, 15, cfg.Video.FrameRate)
	assert.Equal(t, 3, cfg.Broadcast.QueueDepth)
	// Untouched sections keep their defaults.
	assert.Equal(t, 640, cfg.Depth.Width)
	assert.Equal(t, 10*time.Second, cfg.Broadcast.WriteTimeout)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prots:\n  color: 14000\n"), 0o600))

	_, err := NewLoader(path, "test").Load()
	require.Error(t, err, "typo'd keys must not be silently ignored")
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ports:\n  color: 14000\n"), 0o600))

	t.Setenv("FRAMECAST_PORT_COLOR", "15000")
	t.Setenv("FRAMECAST_WRITE_TIMEOUT", "2s")

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, 15000, cfg.Ports.Color)
	assert.Equal(t, 2*time.Second, cfg.Broadcast.WriteTimeout)
}

func TestValidateRejectsDuplicatePorts(t *testing.T) {
	cfg := defaults()
	cfg.Ports.Depth = cfg.Ports.Color

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidPort)
}

func TestValidateRejectsBadGeometry(t *testing.T) {
	cfg := defaults()
	cfg.Video.Width = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidGeometry)

	cfg = defaults()
	cfg.Depth.Height = -1
	require.ErrorIs(t, cfg.Validate(), ErrInvalidGeometry)
}

func TestValidateRejectsBadTuning(t *testing.T) {
	cfg := defaults()
	cfg.Broadcast.QueueDepth = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidQueueDepth)

	cfg = defaults()
	cfg.Video.FrameRate = 500
	require.ErrorIs(t, cfg.Validate(), ErrInvalidFrameRate)
}

func TestParseHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("FRAMECAST_TEST_INT", "not-a-number")
	assert.Equal(t, 7, ParseInt("FRAMECAST_TEST_INT", 7))

	t.Setenv("FRAMECAST_TEST_DUR", "eleven")
	assert.Equal(t, time.Second, ParseDuration("FRAMECAST_TEST_DUR", time.Second))

	t.Setenv("FRAMECAST_TEST_BOOL", "yep")
	assert.True(t, ParseBool("FRAMECAST_TEST_BOOL", true))
}
