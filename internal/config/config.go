// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the daemon configuration with the precedence
// ENV > file > defaults and validates the result before anything binds.
package config

import (
	"fmt"
	"time"

	"github.com/sensegrid/framecast/internal/frame"
)

// Ports assigns one TCP port per stream. Every channel owns its port for
// the daemon's whole lifetime; there is no rebinding at runtime.
type Ports struct {
	Color    int `yaml:"color"`
	Depth    int `yaml:"depth"`
	Infrared int `yaml:"infrared"`
	Audio    int `yaml:"audio"`
}

// Video describes the color stream geometry and the capture cadence.
type Video struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	FrameRate int `yaml:"frame_rate"`
}

// Plane describes the shared depth/infrared geometry.
type Plane struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Audio describes the provisional fixed-size audio block contract.
type Audio struct {
	SampleRate     int `yaml:"sample_rate"`
	BytesPerSample int `yaml:"bytes_per_sample"`
	BlockSeconds   int `yaml:"block_seconds"`
}

// Broadcast tunes the per-session send queue.
type Broadcast struct {
	// QueueDepth bounds each client's pending frames. Keep it small: a
	// real-time stream prefers dropping over buffering stale frames.
	QueueDepth int `yaml:"queue_depth"`

	// WriteTimeout bounds a single frame write to one client.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AppConfig is the full daemon configuration.
type AppConfig struct {
	LogLevel  string    `yaml:"log_level"`
	APIAddr   string    `yaml:"api_addr"`
	Ports     Ports     `yaml:"ports"`
	Video     Video     `yaml:"video"`
	Depth     Plane     `yaml:"depth"`
	Audio     Audio     `yaml:"audio"`
	Broadcast Broadcast `yaml:"broadcast"`
	Version   string    `yaml:"-"`
}

// ColorGeometry returns the color stream geometry.
func (c AppConfig) ColorGeometry() frame.Geometry {
	return frame.Color(c.Video.Width, c.Video.Height)
}

// DepthGeometry returns the geometry shared by depth and infrared streams.
func (c AppConfig) DepthGeometry() frame.Geometry {
	return frame.Depth16(c.Depth.Width, c.Depth.Height)
}

// AudioFormat returns the provisional audio block format.
func (c AppConfig) AudioFormat() frame.AudioFormat {
	return frame.AudioFormat{
		SampleRate:     c.Audio.SampleRate,
		BytesPerSample: c.Audio.BytesPerSample,
		BlockSeconds:   c.Audio.BlockSeconds,
	}
}

// Validate checks the configuration before any socket is bound.
func (c AppConfig) Validate() error {
	ports := map[int]string{}
	for name, p := range map[string]int{
		frame.StreamColor:    c.Ports.Color,
		frame.StreamDepth:    c.Ports.Depth,
		frame.StreamInfrared: c.Ports.Infrared,
		frame.StreamAudio:    c.Ports.Audio,
	} {
		if p < 0 || p > 65535 {
			return fmt.Errorf("%w: %s port %d", ErrInvalidPort, name, p)
		}
		if other, dup := ports[p]; dup && p != 0 {
			return fmt.Errorf("%w: port %d assigned to both %s and %s", ErrInvalidPort, p, other, name)
		}
		ports[p] = name
	}

	if !c.ColorGeometry().Valid() {
		return fmt.Errorf("%w: video %dx%d", ErrInvalidGeometry, c.Video.Width, c.Video.Height)
	}
	if !c.DepthGeometry().Valid() {
		return fmt.Errorf("%w: depth %dx%d", ErrInvalidGeometry, c.Depth.Width, c.Depth.Height)
	}
	if c.Video.FrameRate < 1 || c.Video.FrameRate > 120 {
		return fmt.Errorf("%w: frame rate %d", ErrInvalidFrameRate, c.Video.FrameRate)
	}
	if !c.AudioFormat().Valid() {
		return fmt.Errorf("%w: audio %+v", ErrInvalidGeometry, c.Audio)
	}
	if c.Broadcast.QueueDepth < 1 || c.Broadcast.QueueDepth > 8 {
		return fmt.Errorf("%w: queue depth %d (want 1-8)", ErrInvalidQueueDepth, c.Broadcast.QueueDepth)
	}
	if c.Broadcast.WriteTimeout < 0 {
		return fmt.Errorf("%w: write timeout %s", ErrInvalidQueueDepth, c.Broadcast.WriteTimeout)
	}
	return nil
}

func defaults() AppConfig {
	return AppConfig{
		LogLevel: "info",
		APIAddr:  ":8090",
		Ports: Ports{
			Color:    13000,
			Depth:    13001,
			Infrared: 13002,
			Audio:    13003,
		},
		Video: Video{Width: 640, Height: 480, FrameRate: 30},
		Depth: Plane{Width: 640, Height: 480},
		Audio: Audio{SampleRate: 16000, BytesPerSample: 2, BlockSeconds: 1},
		Broadcast: Broadcast{
			QueueDepth:   2,
			WriteTimeout: 10 * time.Second,
		},
	}
}
