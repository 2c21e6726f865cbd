// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sensegrid/framecast/internal/api"
	"github.com/sensegrid/framecast/internal/broadcast"
	"github.com/sensegrid/framecast/internal/capture"
	"github.com/sensegrid/framecast/internal/config"
	"github.com/sensegrid/framecast/internal/daemon"
	"github.com/sensegrid/framecast/internal/frame"
	fclog "github.com/sensegrid/framecast/internal/log"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.NewLoader(*configPath, version).Load()
	if err != nil {
		bootLogger := fclog.WithComponent("daemon")
		bootLogger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
	}

	fclog.Configure(fclog.Config{
		Level:   cfg.LogLevel,
		Service: "framecast",
		Version: version,
	})
	logger := fclog.WithComponent("daemon")

	logger.Info().
		Str("event", "config.loaded").
		Str("config_path", *configPath).
		Int("port_color", cfg.Ports.Color).
		Int("port_depth", cfg.Ports.Depth).
		Int("port_infrared", cfg.Ports.Infrared).
		Int("port_audio", cfg.Ports.Audio).
		Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := broadcast.New(broadcast.Config{
		Streams: []broadcast.StreamConfig{
			{Name: frame.StreamColor, Port: cfg.Ports.Color, FrameSize: cfg.ColorGeometry().Size()},
			{Name: frame.StreamDepth, Port: cfg.Ports.Depth, FrameSize: cfg.DepthGeometry().Size()},
			{Name: frame.StreamInfrared, Port: cfg.Ports.Infrared, FrameSize: cfg.DepthGeometry().Size()},
			{Name: frame.StreamAudio, Port: cfg.Ports.Audio, FrameSize: cfg.AudioFormat().BlockSize()},
		},
		QueueDepth:   cfg.Broadcast.QueueDepth,
		WriteTimeout: cfg.Broadcast.WriteTimeout,
		Logger:       fclog.WithComponent("broadcast"),
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "broadcast.config_invalid").
			Msg("invalid broadcast configuration")
	}

	source := capture.NewSynthetic(capture.SyntheticConfig{
		Color:     cfg.ColorGeometry(),
		Depth:     cfg.DepthGeometry(),
		Infrared:  cfg.DepthGeometry(),
		FrameRate: cfg.Video.FrameRate,
		Logger:    fclog.Base(),
	}, srv)

	statusServer := api.New(api.Config{
		Addr:     cfg.APIAddr,
		Version:  version,
		Sessions: srv,
		Capture:  source,
		Logger:   fclog.Base(),
	})

	app := daemon.NewApp(logger, srv, source, statusServer)
	if err := app.Run(ctx); err != nil {
		logger.Error().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon exited with error")
		os.Exit(1)
	}
}
