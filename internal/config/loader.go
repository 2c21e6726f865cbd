// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. configPath may be empty,
// in which case only defaults and environment variables apply.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load builds the effective configuration and validates it.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		if err := l.mergeFile(&cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays the YAML file on top of the defaults. Unknown keys
// are rejected so a typo cannot silently fall back to a default.
func (l *Loader) mergeFile(cfg *AppConfig) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", l.configPath, err)
	}
	return nil
}

// mergeEnv overlays FRAMECAST_* environment variables, the highest
// precedence source.
func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = ParseString("FRAMECAST_LOG_LEVEL", cfg.LogLevel)
	cfg.APIAddr = ParseString("FRAMECAST_API_ADDR", cfg.APIAddr)

	cfg.Ports.Color = ParseInt("FRAMECAST_PORT_COLOR", cfg.Ports.Color)
	cfg.Ports.Depth = ParseInt("FRAMECAST_PORT_DEPTH", cfg.Ports.Depth)
	cfg.Ports.Infrared = ParseInt("FRAMECAST_PORT_INFRARED", cfg.Ports.Infrared)
	cfg.Ports.Audio = ParseInt("FRAMECAST_PORT_AUDIO", cfg.Ports.Audio)

	cfg.Video.Width = ParseInt("FRAMECAST_VIDEO_WIDTH", cfg.Video.Width)
	cfg.Video.Height = ParseInt("FRAMECAST_VIDEO_HEIGHT", cfg.Video.Height)
	cfg.Video.FrameRate = ParseInt("FRAMECAST_FRAME_RATE", cfg.Video.FrameRate)

	cfg.Depth.Width = ParseInt("FRAMECAST_DEPTH_WIDTH", cfg.Depth.Width)
	cfg.Depth.Height = ParseInt("FRAMECAST_DEPTH_HEIGHT", cfg.Depth.Height)

	cfg.Audio.SampleRate = ParseInt("FRAMECAST_AUDIO_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.BytesPerSample = ParseInt("FRAMECAST_AUDIO_BYTES_PER_SAMPLE", cfg.Audio.BytesPerSample)
	cfg.Audio.BlockSeconds = ParseInt("FRAMECAST_AUDIO_BLOCK_SECONDS", cfg.Audio.BlockSeconds)

	cfg.Broadcast.QueueDepth = ParseInt("FRAMECAST_QUEUE_DEPTH", cfg.Broadcast.QueueDepth)
	cfg.Broadcast.WriteTimeout = ParseDuration("FRAMECAST_WRITE_TIMEOUT", cfg.Broadcast.WriteTimeout)
}
